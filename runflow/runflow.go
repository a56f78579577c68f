// Package runflow wraps a flow as a command-line program.
//
// Downstream flow definitions call Main from their own main package:
//
//	func main() {
//	    f := flow.New[student.Record]("github-setup", "...", "roster", storerDef)
//	    // register steps...
//	    runflow.Main(f)
//	}
//
// The resulting binary can dump a documented config template, validate a
// config file without running, or configure and run the flow. It exits 0
// on success and 1 on any configuration, validation, or run failure.
package runflow

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aidan-McNay/courseflow/config"
	"github.com/Aidan-McNay/courseflow/flow"
)

type options struct {
	logfiles []string
	silent   bool
}

func (o options) apply(f flow.Handle) error {
	if o.silent {
		f.Silent()
	}
	for _, logfile := range o.logfiles {
		if err := f.Logfile(logfile); err != nil {
			return err
		}
	}
	return nil
}

// Command builds the CLI for a flow.
func Command(f flow.Handle) *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           f.Name(),
		Short:         f.Description(),
		Long:          fmt.Sprintf("%s: %s", f.Name(), f.Description()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringArrayVarP(&opts.logfiles, "logfile", "l", nil,
		"a logfile to record results to (repeatable)")
	root.PersistentFlags().BoolVarP(&opts.silent, "silent", "s", false,
		"disable logging on the command line")

	root.AddCommand(&cobra.Command{
		Use:   "dump <yaml-file>",
		Short: "Dump a YAML template documenting the expected configurations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(f.DescribeConfig())
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate <config-file>",
		Short: "Populate configurations from a config file, but don't run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configure(f, opts, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Validated, ready to deploy!")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run <config-file>",
		Short: "Configure and run the flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configure(f, opts, args[0]); err != nil {
				return err
			}
			return f.Run()
		},
	})

	return root
}

func configure(f flow.Handle, opts options, configPath string) error {
	if err := opts.apply(f); err != nil {
		return err
	}
	raw, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return f.Config(raw)
}

// Main runs the flow's CLI and exits the process with a non-zero code on
// any failure.
func Main(f flow.Handle) {
	if err := Command(f).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
