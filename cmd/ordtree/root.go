package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/cyraxred/ordtree"
	"github.com/cyraxred/ordtree/internal/core"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
)

// ConfigQuiet is the name of the option which disables the status updates.
const ConfigQuiet = "Core.Quiet"

var quietOption = core.ConfigurationOption{
	Name:        ConfigQuiet,
	Description: "Do not print status updates to stderr.",
	Flag:        "quiet",
	Type:        core.BoolConfigurationOption,
	Default:     !terminal.IsTerminal(int(os.Stdin.Fd())),
}

var rootCmd = &cobra.Command{
	Use:   "ordtree",
	Short: "Exercise the red-black tree ordered set.",
	Long: `ordtree executes operation scripts against a red-black tree ordered set and
cross-checks the tree against a reference implementation on randomized sequences.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionCmd prints the API version and the Git commit hash
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and exit.",
	Long:  ``,
	Args:  cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %d\nGit:     %s\n",
			ordtree.BinaryVersion, ordtree.BinaryGitHash)
	},
}

// resolveFacts merges the command's flags with its section of the --config file.
func resolveFacts(cmd *cobra.Command, options *core.Options) (core.Facts, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	var section map[string]interface{}
	if path != "" {
		config, err := core.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		if section, err = core.Section(config, cmd.Name()); err != nil {
			return nil, err
		}
	}
	return options.Resolve(section)
}

// newLogger creates the logger which writes to the command's stderr.
func newLogger(cmd *cobra.Command, quiet bool) *core.DefaultLogger {
	logger := core.NewLogger()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetQuiet(quiet)
	return logger
}

func tmpl(w io.Writer, text string, data interface{}) error {
	var templateFuncs = template.FuncMap{
		"trim": strings.TrimSpace,
	}
	for k, v := range sprig.TxtFuncMap() {
		templateFuncs[k] = v
	}
	t := template.New("top")
	t.Funcs(templateFuncs)
	if _, err := t.Parse(text); err != nil {
		return err
	}
	return t.Execute(w, data)
}

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"YAML file with the default flag values, one section per command (\"run:\", \"stress:\").")
	if err := rootCmd.MarkPersistentFlagFilename("config", "yml", "yaml"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(versionCmd)
}
