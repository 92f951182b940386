package ffmpeg

import (
	"reflect"
	"strings"
	"testing"

	"dubmux/internal/trackplan"
)

func basePlan() trackplan.Plan {
	return trackplan.Plan{
		Key:        "E07",
		Mode:       trackplan.ModeTargetIntoOriginal,
		VideoIndex: 0,
		Audio: []trackplan.AudioTrack{
			{Side: trackplan.Base, StreamIndex: 2, Language: "jpn", Title: "VO (Japonais)", Default: true},
			{Side: trackplan.Donor, StreamIndex: 3, Language: "fra", Title: "VF"},
		},
		SubtitleSource:  trackplan.Base,
		PassSubtitles:   true,
		PassAttachments: true,
		DefaultSubtitle: 1,
	}
}

func indexOf(args []string, value string) int {
	for i, a := range args {
		if a == value {
			return i
		}
	}
	return -1
}

func mapsOf(args []string) []string {
	var maps []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-map" {
			maps = append(maps, args[i+1])
		}
	}
	return maps
}

func TestCombineArgsWithoutPreprocess(t *testing.T) {
	args, err := CombineArgs(CombineInputs{BasePath: "base.mkv", DonorPath: "donor.mkv", OutputPath: "out.mkv", Title: "Show - E07"}, basePlan())
	if err != nil {
		t.Fatalf("CombineArgs: %v", err)
	}
	want := []string{"0:0", "0:2", "1:3", "0:s?", "0:t?"}
	if got := mapsOf(args); !reflect.DeepEqual(got, want) {
		t.Fatalf("maps = %v, want %v", got, want)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{
		"-i base.mkv -i donor.mkv",
		"-c copy",
		"-metadata:s:a:0 language=jpn -metadata:s:a:0 title=VO (Japonais)",
		"-metadata:s:a:1 language=fra -metadata:s:a:1 title=VF",
		"-disposition:a:0 default -disposition:a:1 0",
		"-disposition:s:1 default",
		"-metadata title=Show - E07",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("missing %q in %s", fragment, joined)
		}
	}
	if args[len(args)-1] != "out.mkv" {
		t.Fatalf("output must be last, got %s", args[len(args)-1])
	}
}

func TestCombineArgsPreprocessedDonorSkipsDonorInput(t *testing.T) {
	plan := basePlan()
	plan.Audio[1].Preprocessed = true
	plan.Preprocess = &trackplan.Preprocess{StreamIndex: 3, Channels: 2}
	args, err := CombineArgs(CombineInputs{BasePath: "base.mkv", DonorPath: "donor.mkv", ArtifactPath: "tmp/E07.flac", OutputPath: "out.mkv"}, plan)
	if err != nil {
		t.Fatalf("CombineArgs: %v", err)
	}
	if indexOf(args, "donor.mkv") >= 0 {
		t.Fatalf("donor must not be opened: %v", args)
	}
	want := []string{"0:0", "0:2", "1:a:0", "0:s?", "0:t?"}
	if got := mapsOf(args); !reflect.DeepEqual(got, want) {
		t.Fatalf("maps = %v, want %v", got, want)
	}
	if strings.Contains(strings.Join(args, " "), "-metadata title=") {
		t.Fatal("empty title must not be written")
	}
}

func TestCombineArgsMirroredModeKeepsSubtitlesOnDonor(t *testing.T) {
	plan := trackplan.Plan{
		Key:        "E01",
		Mode:       trackplan.ModeOriginalIntoTarget,
		VideoIndex: 1,
		Audio: []trackplan.AudioTrack{
			{Side: trackplan.Donor, StreamIndex: 2, Preprocessed: true, Language: "jpn", Title: "VO", Default: false},
			{Side: trackplan.Base, StreamIndex: 3, Language: "fra", Title: "VF", Default: true},
		},
		SubtitleSource:  trackplan.Donor,
		PassSubtitles:   true,
		DefaultSubtitle: -1,
		Preprocess:      &trackplan.Preprocess{StreamIndex: 2},
	}
	args, err := CombineArgs(CombineInputs{BasePath: "vf.mkv", DonorPath: "vostfr.mkv", ArtifactPath: "a.flac", OutputPath: "o.mkv"}, plan)
	if err != nil {
		t.Fatalf("CombineArgs: %v", err)
	}
	want := []string{"0:1", "2:a:0", "0:3", "1:s?"}
	if got := mapsOf(args); !reflect.DeepEqual(got, want) {
		t.Fatalf("maps = %v, want %v", got, want)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-disposition:a:0 0 -disposition:a:1 default") {
		t.Fatalf("unexpected dispositions: %s", joined)
	}
	if strings.Contains(joined, "-disposition:s:") {
		t.Fatalf("no default subtitle expected: %s", joined)
	}
}

func TestCombineArgsRequiresArtifact(t *testing.T) {
	plan := basePlan()
	plan.Preprocess = &trackplan.Preprocess{StreamIndex: 3}
	plan.Audio[1].Preprocessed = true
	if _, err := CombineArgs(CombineInputs{BasePath: "b", OutputPath: "o"}, plan); err == nil {
		t.Fatal("expected missing artifact error")
	}
}

func TestPreprocessArgs(t *testing.T) {
	args := PreprocessArgs("donor.mkv", trackplan.Preprocess{StreamIndex: 4, Filters: []string{"atempo=0.95904", "adelay=150|150"}}, "tmp/E07.flac")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-i donor.mkv -map 0:4 -vn -sn -dn -af atempo=0.95904,adelay=150|150 -c:a flac tmp/E07.flac") {
		t.Fatalf("unexpected args: %s", joined)
	}

	plain := strings.Join(PreprocessArgs("d.mkv", trackplan.Preprocess{StreamIndex: 1}, "x.flac"), " ")
	if strings.Contains(plain, "-af") {
		t.Fatalf("no filter expected: %s", plain)
	}
}

func TestExtractArgs(t *testing.T) {
	joined := strings.Join(ExtractArgs("src.mkv", 5, "out.VF.flac"), " ")
	if !strings.HasSuffix(joined, "-i src.mkv -map 0:5 -vn -sn -dn -c:a flac out.VF.flac") {
		t.Fatalf("unexpected args: %s", joined)
	}
}
