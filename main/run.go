package main

import (
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace/internal/logger"
)

var (
	memProfile string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&memProfile, "memprofile", "", "Write a heap profile to this file after the run")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <workload.yaml>",
		Short: "Run a placement workload",
		Long: `The run command places each step's payload into one Dynamic storage
and reports the storage capacity, spill state and allocator calls per step.

Example:
  inplace run workload.yaml
  inplace run workload.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload(args[0])
		},
	}
}

func runWorkload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	w, err := ParseWorkload(data)
	if err != nil {
		return xerrors.Errorf("%s: %w", path, err)
	}
	logger.Debug("running workload", "path", path, "threshold", w.Threshold, "allocator", w.Allocator, "steps", len(w.Steps))

	rep, err := Run(w)
	if err != nil {
		logger.Warn("workload failed", "path", path, "err", err)
		return err
	}
	if memProfile != "" {
		if err := writeHeapProfile(memProfile); err != nil {
			return err
		}
		logger.Info("wrote heap profile", "path", memProfile)
	}

	if jsonOut {
		return printJSON(rep)
	}
	printInfo("threshold %d, allocator %s\n", rep.Threshold, rep.Allocator)
	for i, st := range rep.Steps {
		state := "inline"
		if st.Spilled {
			state = "spilled"
		}
		printInfo("  step %-3d size %-6d align %-3d offset %-3d capacity %-6d %-7s allocs %d\n",
			i, st.Size, st.Align, st.Offset, st.Capacity, state, st.Allocs)
	}
	printInfo("final: %s\n", rep.Final)
	return nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
