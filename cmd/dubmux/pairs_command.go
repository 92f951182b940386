package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"dubmux/internal/config"
	"dubmux/internal/episode"
)

type pairView struct {
	Key       string `json:"key"`
	BasePath  string `json:"base_path"`
	DonorPath string `json:"donor_path"`
}

type pairsView struct {
	Pairs     []pairView `json:"pairs"`
	BaseOnly  []string   `json:"base_only"`
	DonorOnly []string   `json:"donor_only"`
}

func newPairsCommand(ctx *commandContext) *cobra.Command {
	var baseDir, donorDir string
	var relax, asJSON bool

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List the episodes the base and donor trees have in common",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			extractor := extractorFromConfig(cfg)
			if cmd.Flags().Changed("relax-extract") {
				extractor.Relaxed = relax
			}
			logger, closer, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			view, err := buildPairsView(logger, baseDir, donorDir, extractor)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(view.Pairs))
			for _, p := range view.Pairs {
				rows = append(rows, []string{p.Key, p.BasePath, p.DonorPath})
			}
			fmt.Fprintln(out, renderTable([]string{"Episode", "Base", "Donor"}, rows, nil))
			fmt.Fprintf(out, "%d paired", len(view.Pairs))
			if len(view.BaseOnly) > 0 {
				fmt.Fprintf(out, ", base only: %v", view.BaseOnly)
			}
			if len(view.DonorOnly) > 0 {
				fmt.Fprintf(out, ", donor only: %v", view.DonorOnly)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Tree providing the video stream (required)")
	cmd.Flags().StringVar(&donorDir, "donor-dir", "", "Tree providing the other-language audio (required)")
	cmd.Flags().BoolVar(&relax, "relax-extract", false, "Also match E## inside tokens such as S01E01")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("base-dir")
	_ = cmd.MarkFlagRequired("donor-dir")
	return cmd
}

func buildPairsView(logger *slog.Logger, baseDir, donorDir string, extractor episode.Extractor) (pairsView, error) {
	var err error
	if baseDir, err = config.ExpandPath(baseDir); err != nil {
		return pairsView{}, err
	}
	if donorDir, err = config.ExpandPath(donorDir); err != nil {
		return pairsView{}, err
	}
	baseMap, err := episode.Scan(baseDir, extractor, logger)
	if err != nil {
		return pairsView{}, fmt.Errorf("scan base tree: %w", err)
	}
	donorMap, err := episode.Scan(donorDir, extractor, logger)
	if err != nil {
		return pairsView{}, fmt.Errorf("scan donor tree: %w", err)
	}

	view := pairsView{Pairs: []pairView{}, BaseOnly: []string{}, DonorOnly: []string{}}
	for _, p := range episode.Intersect(baseMap, donorMap) {
		view.Pairs = append(view.Pairs, pairView{Key: p.Key.String(), BasePath: p.BasePath, DonorPath: p.DonorPath})
	}
	baseOnly, donorOnly := episode.Unpaired(baseMap, donorMap)
	for _, k := range baseOnly {
		view.BaseOnly = append(view.BaseOnly, k.String())
	}
	for _, k := range donorOnly {
		view.DonorOnly = append(view.DonorOnly, k.String())
	}
	return view, nil
}
