package main

import (
	"cmp"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"time"

	"github.com/cyraxred/ordtree"
	"github.com/cyraxred/ordtree/internal/core"
	"github.com/cyraxred/ordtree/internal/pb"
	"github.com/cyraxred/ordtree/internal/script"
	"github.com/cyraxred/ordtree/internal/yaml"
	"github.com/cyraxred/ordtree/rbtree"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// ConfigRunKeys is the name of the option which selects the key type.
	ConfigRunKeys = "Run.Keys"
	// ConfigRunProtobuf is the name of the option which switches the output to Protocol Buffers.
	ConfigRunProtobuf = "Run.Protobuf"
	// ConfigRunTemplate is the name of the option which renders the output with a template.
	ConfigRunTemplate = "Run.Template"
)

var runOptions *core.Options

// session is the outcome of a script run.
type session struct {
	Script  string
	KeyType string
	Results []script.Result
	Size    int
	Height  int
	RunTime time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Execute an operation script against a red-black tree.",
	Long: `Executes the script, one operation per line, and prints the results. The script is read
from stdin if the path is omitted. Supported operations: insert K..., delete K..., search K,
min, max, pred K, succ K, traverse, len, height, verify, erase. '#' starts a comment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facts, err := resolveFacts(cmd, runOptions)
		if err != nil {
			return err
		}
		name := "<stdin>"
		var reader io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			name = args[0]
			file, err := os.Open(name)
			if err != nil {
				return errors.Wrapf(err, "cannot open the script")
			}
			defer file.Close()
			reader = file
		}
		logger := newLogger(cmd, facts[ConfigQuiet].(bool))
		return runScript(cmd.OutOrStdout(), name, reader, facts, logger)
	},
}

func runScript(out io.Writer, name string, reader io.Reader, facts core.Facts, logger core.Logger) error {
	templatePath := facts[ConfigRunTemplate].(string)
	if templatePath != "" && facts[ConfigRunProtobuf].(bool) {
		return errors.New("--template and --pb are mutually exclusive")
	}
	ops, err := script.Parse(name, reader)
	if err != nil {
		return err
	}
	logger.Infof("parsed %d operations from %s", len(ops), name)
	keyType := facts[ConfigRunKeys].(string)
	start := time.Now()
	var result session
	switch keyType {
	case "int":
		result, err = execute[int64](ops, script.IntKey)
	case "float":
		result, err = execute[float64](ops, script.FloatKey)
	case "string":
		result, err = execute[string](ops, script.StringKey)
	default:
		return errors.Errorf("unsupported key type %q, must be one of int, float, string", keyType)
	}
	if err != nil {
		logger.Errorf("%s: stopped after %d operations", name, len(result.Results))
		return err
	}
	result.Script = name
	result.KeyType = keyType
	result.RunTime = time.Since(start)
	logger.Infof("executed %d operations in %v", len(result.Results), result.RunTime)

	if templatePath != "" {
		text, err := ioutil.ReadFile(templatePath)
		if err != nil {
			return errors.Wrapf(err, "cannot read the template")
		}
		return tmpl(out, string(text), result)
	}
	if facts[ConfigRunProtobuf].(bool) {
		return protobufResults(out, result)
	}
	printResults(out, result)
	return nil
}

func execute[K cmp.Ordered](ops []script.Op, parse script.KeyParser[K]) (session, error) {
	tree := rbtree.New[K]()
	results, err := script.Run(tree, ops, parse)
	return session{Results: results, Size: tree.Len(), Height: tree.Height()}, err
}

func printResults(out io.Writer, result session) {
	fmt.Fprintln(out, "ordtree:")
	fmt.Fprintf(out, "  version: %d\n", ordtree.BinaryVersion)
	fmt.Fprintln(out, "  hash:", ordtree.BinaryGitHash)
	fmt.Fprintln(out, "  script:", yaml.SafeString(result.Script))
	fmt.Fprintln(out, "  key_type:", result.KeyType)
	fmt.Fprintln(out, "  run_time:", result.RunTime.Nanoseconds()/1e6)
	fmt.Fprintln(out, "results:")
	yaml.PrintResults(out, result.Results, 2)
	fmt.Fprintln(out, "size:", result.Size)
	fmt.Fprintln(out, "height:", result.Height)
}

func protobufResults(out io.Writer, result session) error {
	header := pb.Metadata{
		Version: int32(ordtree.BinaryVersion),
		Hash:    ordtree.BinaryGitHash,
		Script:  result.Script,
		KeyType: result.KeyType,
		RunTime: result.RunTime.Nanoseconds() / 1e6,
	}
	message := pb.ToSessionResults(&header, result.Results, result.Size, result.Height)
	serialized, err := proto.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "cannot serialize the results")
	}
	_, err = out.Write(serialized)
	return err
}

func init() {
	runOptions = core.AddFlags(runCmd.Flags(), core.ConfigurationOption{
		Name:        ConfigRunKeys,
		Description: "Key type: int, float or string.",
		Type:        core.StringConfigurationOption,
		Default:     "int",
	}, core.ConfigurationOption{
		Name:        ConfigRunProtobuf,
		Description: "The output format will be Protocol Buffers instead of YAML.",
		Flag:        "pb",
		Type:        core.BoolConfigurationOption,
		Default:     false,
	}, core.ConfigurationOption{
		Name: ConfigRunTemplate,
		Description: "Render the results with this text/template file instead of YAML. " +
			"Sprig functions are available.",
		Type:    core.PathConfigurationOption,
		Default: "",
	}, quietOption)
	if err := runCmd.MarkFlagFilename("template"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(runCmd)
}
