package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dubmux/internal/config"
	"dubmux/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var baseDir, donorDir, outDir string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg, ffprobe and directory access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			in := preflight.Inputs{OutputDir: cfg.Paths.OutputDir, ExportDir: exportDirFor(cfg)}
			for _, p := range []struct {
				flag string
				dst  *string
				val  string
			}{
				{"base-dir", &in.BaseDir, baseDir},
				{"donor-dir", &in.DonorDir, donorDir},
				{"out-dir", &in.OutputDir, outDir},
			} {
				if !cmd.Flags().Changed(p.flag) {
					continue
				}
				if *p.dst, err = config.ExpandPath(p.val); err != nil {
					return fmt.Errorf("--%s: %w", p.flag, err)
				}
			}

			checkCtx := cmd.Context()
			if checkCtx == nil {
				checkCtx = context.Background()
			}
			results := preflight.RunAll(checkCtx, cfg, in)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if skippedCheck(r) {
					rows = append(rows, []string{r.Name, statusCell(statusInfo, colorize), "skipped (not set)"})
					continue
				}
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				rows = append(rows, []string{r.Name, statusCell(kind, colorize), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if ctx.configPath != "" {
				fmt.Fprintf(out, "config: %s\n", ctx.configPath)
			}
			return checkFailures(results)
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Base tree to check for read access")
	cmd.Flags().StringVar(&donorDir, "donor-dir", "", "Donor tree to check for read access")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory to check for write access")
	return cmd
}

// skippedCheck reports a directory check with no path to check.
func skippedCheck(r preflight.Result) bool {
	return !r.Passed && r.Detail == "not set"
}

func checkFailures(results []preflight.Result) error {
	filtered := make([]preflight.Result, 0, len(results))
	for _, r := range results {
		if skippedCheck(r) {
			continue
		}
		filtered = append(filtered, r)
	}
	return preflight.Failed(filtered)
}
