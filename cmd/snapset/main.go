package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/mount"
	"github.com/jbweber/snapset/internal/output"
	"github.com/jbweber/snapset/internal/snapset"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	checkMode  bool
	verifyOnly bool

	outputFormat string
	noHeaders    bool
	logLevel     string
	logFile      string

	// set discovery flags
	allVGs    bool
	vgName    string
	lvName    string
	vgInclude string
	setName   string
	percent   int
)

var log = logrus.New()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snapset",
	Short: "snapset - LVM snapshot set management tool",
	Long: `snapset manages named sets of LVM snapshots as a unit.

A snapshot set is an ordered list of volumes described in a YAML file
or discovered from the live inventory. Each operation runs across the
whole set and reports a single status, message and changed flag.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		log.SetLevel(level)

		// stdout carries the result document, so logs never go there
		log.SetOutput(os.Stderr)
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", logFile, err)
			}
			log.SetOutput(f)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&checkMode, "check", false, "dry run: report the commands that would run without executing them")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format (table, yaml, json)")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "omit headers in table output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to a file instead of stderr")

	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(extendCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(umountCmd)
	rootCmd.AddCommand(listCmd)
}

// addVerifyFlag marks a command as supporting post-state verification.
func addVerifyFlag(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "verify the expected end state of a prior run instead of acting")
	}
}

// addDiscoveryFlags marks a command as supporting inventory discovery
// instead of a config file.
func addDiscoveryFlags(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.Flags().BoolVar(&allVGs, "all-vgs", false, "discover the set from every volume group instead of a config file")
		cmd.Flags().StringVar(&vgName, "vg", "", "limit discovery to one volume group")
		cmd.Flags().StringVar(&lvName, "lv", "", "limit discovery to one logical volume")
		cmd.Flags().StringVar(&vgInclude, "vg-include", "", "limit discovery to volume groups matching a regexp")
		cmd.Flags().StringVar(&setName, "name", "", "snapshot set name for discovered sets")
		cmd.Flags().IntVar(&percent, "percent", 0, "percent of source size to reserve for discovered snapshots")
	}
}

// newOrchestrator wires the exec-backed volume manager and mounter.
func newOrchestrator() *snapset.Orchestrator {
	run := lvm.NewExecRunner()
	client := lvm.NewClient(run, log, checkMode)
	mnt := mount.NewExecMounter(run, log, checkMode)
	return snapset.New(client, mnt, log, checkMode)
}

// discoveryRequested reports whether any discovery flag was used.
func discoveryRequested() bool {
	return allVGs || vgName != "" || lvName != "" || vgInclude != ""
}

// discoveryFilter builds the volume filter from the discovery flags.
func discoveryFilter() (lvm.Filter, error) {
	f := lvm.Filter{VG: vgName, LV: lvName, OmitEmpty: true}
	if vgInclude != "" {
		re, err := regexp.Compile(vgInclude)
		if err != nil {
			return lvm.Filter{}, fmt.Errorf("invalid --vg-include regexp: %w", err)
		}
		f.VGInclude = re
	}
	return f, nil
}

// reportResult prints the operation report and converts a failing
// status into a process failure.
func reportResult(op snapset.Operation, res snapset.Result, data *snapset.ListData) error {
	if err := output.ValidateFormat(outputFormat); err != nil {
		return err
	}
	formatter, err := output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
	})
	if err != nil {
		return err
	}

	rep := snapset.NewReport(op, res, data)
	text, err := formatter.FormatReport(rep)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(text)

	if !res.OK() {
		return fmt.Errorf("%s: %s", res.Status, res.Message)
	}
	return nil
}

// loadConfigSet loads the snapshot set from the single positional
// config file argument.
func loadConfigSet(args []string) (*config.SnapshotSet, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a snapshot set config file is required (or use discovery flags)")
	}
	return config.LoadFromFile(args[0])
}
