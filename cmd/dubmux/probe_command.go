package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dubmux/internal/config"
	"dubmux/internal/language"
	"dubmux/internal/media/ffprobe"
	"dubmux/internal/streams"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe FILE",
		Short: "Show how dubmux classifies the streams of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			probeCtx := cmd.Context()
			if probeCtx == nil {
				probeCtx = context.Background()
			}
			result, err := ffprobe.Inspect(probeCtx, cfg.Paths.FFprobeBinary, path)
			if err != nil {
				return err
			}
			if asJSON {
				_, err := cmd.OutOrStdout().Write(result.RawJSON())
				return err
			}
			renderProbe(cmd, cfg, path, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw ffprobe JSON")
	return cmd
}

func renderProbe(cmd *cobra.Command, cfg *config.Config, path string, result ffprobe.Result) {
	out := cmd.OutOrStdout()
	set := streams.Classify(result)
	classifier := classifierFromConfig(cfg)

	roles := map[int]string{}
	if idx, ok := set.PrimaryVideo(); ok {
		roles[idx] = "video"
	}
	if idx, ok := classifier.OriginalAudio(set); ok {
		roles[idx] = "original audio"
	}
	if idx, ok := classifier.TargetAudio(set); ok {
		roles[idx] = "target audio"
	}
	if idx, ok := classifier.TargetSubtitle(set); ok {
		roles[idx] = "target subtitle"
	}

	fmt.Fprintf(out, "%s\n", path)
	fmt.Fprintf(out, "size %s, duration %s, frame rate %s\n",
		humanize.IBytes(uint64(result.SizeBytes())), formatProbeDuration(result.DurationSeconds()), set.FrameRate())

	rows := make([][]string, 0, len(result.Streams))
	for _, s := range result.Streams {
		if !s.HasIndex() {
			continue
		}
		idx := s.AbsoluteIndex()
		kind := s.CodecType
		if s.CodecType == ffprobe.CodecTypeVideo && s.IsAttachedPicture() {
			kind = "cover art"
		}
		lang := language.FromTags(s.Tags)
		langCell := "-"
		if lang != "" {
			langCell = fmt.Sprintf("%s (%s)", lang, language.DisplayName(lang))
		}
		channels := "-"
		if s.CodecType == ffprobe.CodecTypeAudio {
			channels = strconv.Itoa(s.Channels)
		}
		role := roles[idx]
		if role == "" {
			role = "-"
		}
		rows = append(rows, []string{strconv.Itoa(idx), kind, s.CodecName, langCell, channels, role})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Index", "Type", "Codec", "Language", "Channels", "Role"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func formatProbeDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "unknown"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
