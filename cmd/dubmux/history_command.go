package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dubmux/internal/history"
)

type runView struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	DryRun     bool   `json:"dry_run"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded batch runs, or the episodes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.History.Path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "No history recorded yet (%s)\n", cfg.History.Path)
				return nil
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				episodes, err := store.Episodes(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, history.ErrRunNotFound) {
						return fmt.Errorf("no run with id %s", args[0])
					}
					return err
				}
				if asJSON {
					if episodes == nil {
						episodes = []history.Episode{}
					}
					return writeJSON(cmd, episodes)
				}
				fmt.Fprintln(out, renderEpisodes(episodes, shouldColorize(out)))
				return nil
			}

			if !cmd.Flags().Changed("limit") {
				limit = cfg.History.Limit
			}
			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]runView, 0, len(runs))
			for _, run := range runs {
				views = append(views, newRunView(run))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				mode := v.Mode
				if v.DryRun {
					mode += " (dry run)"
				}
				rows = append(rows, []string{
					v.ID, v.StartedAt, mode,
					strconv.Itoa(v.Succeeded), strconv.Itoa(v.Failed),
				})
			}
			headers := []string{"Run", "Started", "Mode", "OK", "Failed"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (defaults to history.limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newRunView(run history.Run) runView {
	view := runView{
		ID:        run.ID,
		Mode:      run.Mode,
		DryRun:    run.DryRun,
		StartedAt: formatHistoryTime(run.StartedAt),
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
	}
	if !run.FinishedAt.IsZero() {
		view.FinishedAt = formatHistoryTime(run.FinishedAt)
	}
	return view
}

func renderEpisodes(episodes []history.Episode, colorize bool) string {
	rows := make([][]string, 0, len(episodes))
	for _, ep := range episodes {
		status := statusCell(statusOK, colorize)
		if !ep.Success {
			status = statusCell(statusError, colorize)
		}
		rows = append(rows, []string{
			ep.Key,
			status,
			yesNo(ep.SpeedCorrection),
			strconv.Itoa(ep.OffsetMS),
			(time.Duration(ep.DurationMS) * time.Millisecond).String(),
			ep.Message,
		})
	}
	headers := []string{"Episode", "Status", "Speedfix", "Offset ms", "Took", "Result"}
	return renderTable(headers, rows, nil)
}

func formatHistoryTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
