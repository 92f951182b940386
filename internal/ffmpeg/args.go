package ffmpeg

import (
	"fmt"
	"strings"

	"dubmux/internal/trackplan"
)

var preamble = []string{"-hide_banner", "-nostdin", "-y", "-v", "error"}

// PreprocessArgs renders the donor audio rewrite into a FLAC artifact.
func PreprocessArgs(donorPath string, p trackplan.Preprocess, dest string) []string {
	args := append([]string{}, preamble...)
	args = append(args,
		"-i", donorPath,
		"-map", fmt.Sprintf("0:%d", p.StreamIndex),
		"-vn", "-sn", "-dn",
	)
	if len(p.Filters) > 0 {
		args = append(args, "-af", strings.Join(p.Filters, ","))
	}
	return append(args, "-c:a", "flac", dest)
}

// ExtractArgs copies one audio stream losslessly into a standalone FLAC.
func ExtractArgs(src string, streamIndex int, dest string) []string {
	args := append([]string{}, preamble...)
	return append(args,
		"-i", src,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-vn", "-sn", "-dn",
		"-c:a", "flac",
		dest,
	)
}

// CombineInputs names the files a combine reads and writes.
type CombineInputs struct {
	BasePath     string
	DonorPath    string
	ArtifactPath string
	OutputPath   string
	// Title is written as container metadata when not empty.
	Title string
}

// inputLayout assigns input ordinals: base is 0, the donor follows only when
// something maps from it, the preprocessed artifact comes last.
type inputLayout struct {
	paths    []string
	donor    int
	artifact int
}

func layoutFor(in CombineInputs, plan trackplan.Plan) inputLayout {
	layout := inputLayout{paths: []string{in.BasePath}, donor: -1, artifact: -1}
	if plan.UsesDonorInput() {
		layout.donor = len(layout.paths)
		layout.paths = append(layout.paths, in.DonorPath)
	}
	if plan.Preprocess != nil {
		layout.artifact = len(layout.paths)
		layout.paths = append(layout.paths, in.ArtifactPath)
	}
	return layout
}

func (l inputLayout) ordinal(side trackplan.Side) int {
	if side == trackplan.Donor {
		return l.donor
	}
	return 0
}

// CombineArgs renders the final stream-copy combine for plan.
func CombineArgs(in CombineInputs, plan trackplan.Plan) ([]string, error) {
	if plan.Preprocess != nil && in.ArtifactPath == "" {
		return nil, fmt.Errorf("plan %s needs a preprocessed artifact", plan.Key)
	}
	layout := layoutFor(in, plan)

	args := append([]string{}, preamble...)
	for _, path := range layout.paths {
		args = append(args, "-i", path)
	}
	args = append(args,
		"-map_metadata", "0",
		"-map_chapters", "0",
		"-map", fmt.Sprintf("0:%d", plan.VideoIndex),
	)

	for _, track := range plan.Audio {
		switch {
		case track.Preprocessed:
			args = append(args, "-map", fmt.Sprintf("%d:a:0", layout.artifact))
		default:
			input := layout.ordinal(track.Side)
			if input < 0 {
				return nil, fmt.Errorf("plan %s maps %s audio without that input", plan.Key, track.Side)
			}
			args = append(args, "-map", fmt.Sprintf("%d:%d", input, track.StreamIndex))
		}
	}

	subtitleInput := layout.ordinal(plan.SubtitleSource)
	if plan.PassSubtitles {
		args = append(args, "-map", fmt.Sprintf("%d:s?", subtitleInput))
	}
	if plan.PassAttachments {
		args = append(args, "-map", fmt.Sprintf("%d:t?", subtitleInput))
	}

	args = append(args, "-c", "copy")

	for i, track := range plan.Audio {
		args = append(args,
			fmt.Sprintf("-metadata:s:a:%d", i), "language="+track.Language,
			fmt.Sprintf("-metadata:s:a:%d", i), "title="+track.Title,
		)
	}
	for i, track := range plan.Audio {
		disposition := "0"
		if track.Default {
			disposition = "default"
		}
		args = append(args, fmt.Sprintf("-disposition:a:%d", i), disposition)
	}
	if plan.PassSubtitles && plan.DefaultSubtitle >= 0 {
		args = append(args, fmt.Sprintf("-disposition:s:%d", plan.DefaultSubtitle), "default")
	}
	if strings.TrimSpace(in.Title) != "" {
		args = append(args, "-metadata", "title="+in.Title)
	}
	return append(args, in.OutputPath), nil
}
