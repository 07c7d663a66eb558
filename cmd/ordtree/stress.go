package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cyraxred/ordtree/internal/core"
	"github.com/cyraxred/ordtree/internal/stress"
	"github.com/cyraxred/ordtree/internal/yaml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	progress "gopkg.in/cheggaaa/pb.v1"
)

var stressOptions *core.Options

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Cross-check the tree against a reference B-tree on random sequences.",
	Long: `Runs randomized insert, delete, search, predecessor and successor sequences against the
red-black tree and a reference ordered multiset. The tree invariants are verified after every
mutation. The first discrepancy of each sequence is reported.`,
	Args: cobra.MaximumNArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		facts, err := resolveFacts(cmd, stressOptions)
		if err != nil {
			return err
		}
		quiet := facts[ConfigQuiet].(bool)
		return runStress(cmd.OutOrStdout(), facts, newLogger(cmd, quiet), quiet)
	},
}

func runStress(out io.Writer, facts core.Facts, logger core.Logger, quiet bool) error {
	config := stress.Config{}
	config.Configure(facts)
	if err := config.Validate(); err != nil {
		return err
	}
	logger.Infof("checking %d sequences of %d operations with %d workers",
		config.Seeds, config.Operations, config.Workers)
	var onProgress func(int)
	var bar *progress.ProgressBar
	if !quiet {
		bar = progress.New(config.Seeds)
		bar.Callback = func(msg string) {
			os.Stderr.WriteString("\033[2K\r" + msg)
		}
		bar.NotPrint = true
		bar.ShowPercent = false
		bar.ShowSpeed = false
		bar.SetMaxWidth(80).Start()
		onProgress = func(done int) {
			bar.Set(done).Postfix(" [stress] ")
		}
	}
	report, err := stress.Run(config, onProgress)
	if bar != nil {
		bar.Finish()
		fmt.Fprint(os.Stderr, "\033[2K\r")
	}
	if err != nil {
		return err
	}
	printReport(out, report)
	logFailures(logger, report)
	if !report.Passed() {
		return errors.Errorf("%d of %d sequences failed", len(report.Failures), report.Seeds)
	}
	return nil
}

// logFailures reports every failed sequence as a tree defect, with the stack attached.
func logFailures(logger core.Logger, report stress.Report) {
	for _, failure := range report.Failures {
		logger.Critical(failure.String())
	}
}

func printReport(out io.Writer, report stress.Report) {
	fmt.Fprintln(out, "stress:")
	fmt.Fprintln(out, "  seeds:", report.Seeds)
	fmt.Fprintln(out, "  operations:", report.Operations)
	fmt.Fprintf(out, "  digest: \"%016x\"\n", report.Digest)
	fmt.Fprintln(out, "  run_time:", report.Duration.Nanoseconds()/1e6)
	if report.Passed() {
		fmt.Fprintln(out, "  failures: []")
		return
	}
	fmt.Fprintln(out, "  failures:")
	for _, failure := range report.Failures {
		fmt.Fprintln(out, "    - seed:", failure.Seed)
		fmt.Fprintln(out, "      step:", failure.Step)
		fmt.Fprintln(out, "      op:", yaml.SafeString(failure.Op))
		fmt.Fprintln(out, "      message:", yaml.SafeString(failure.Message))
	}
}

func init() {
	opts := append(stress.ListConfigurationOptions(), quietOption)
	stressOptions = core.AddFlags(stressCmd.Flags(), opts...)
	rootCmd.AddCommand(stressCmd)
}
