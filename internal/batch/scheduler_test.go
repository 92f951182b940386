package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dubmux/internal/episode"
	"dubmux/internal/ffmpeg"
	"dubmux/internal/logging"
	"dubmux/internal/media/ffprobe"
	"dubmux/internal/streams"
	"dubmux/internal/syncplan"
	"dubmux/internal/testsupport"
	"dubmux/internal/trackplan"
)

type fakeBackend struct {
	mu       sync.Mutex
	probes   map[string]ffprobe.Result
	dryRun   bool
	failOn   map[string]error // keyed by output or artifact path
	panicOn  string           // base path that panics during inspect
	combines []ffmpeg.CombineInputs
	plans    []trackplan.Plan
	preprocs []trackplan.Preprocess
	extracts []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (f *fakeBackend) Inspect(_ context.Context, path string) (ffprobe.Result, error) {
	if path == f.panicOn {
		panic("probe exploded")
	}
	res, ok := f.probes[path]
	if !ok {
		return ffprobe.Result{}, fmt.Errorf("inspect %s: no such file", path)
	}
	return res, nil
}

func (f *fakeBackend) Preprocess(_ context.Context, _ string, p trackplan.Preprocess, dest string) (string, error) {
	f.mu.Lock()
	f.preprocs = append(f.preprocs, p)
	f.mu.Unlock()
	if err := f.failOn[dest]; err != nil {
		return "ffmpeg preprocess", err
	}
	if !f.dryRun {
		if err := os.WriteFile(dest, []byte("flac"), 0o644); err != nil {
			return "", err
		}
	}
	return "ffmpeg preprocess", nil
}

func (f *fakeBackend) Combine(_ context.Context, in ffmpeg.CombineInputs, plan trackplan.Plan) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.combines = append(f.combines, in)
	f.plans = append(f.plans, plan)
	f.mu.Unlock()
	if err := f.failOn[in.OutputPath]; err != nil {
		return "ffmpeg combine", err
	}
	if in.ArtifactPath != "" && !f.dryRun {
		if _, err := os.Stat(in.ArtifactPath); err != nil {
			return "", fmt.Errorf("artifact missing: %w", err)
		}
	}
	if !f.dryRun {
		if err := os.WriteFile(in.OutputPath, []byte("mkv"), 0o644); err != nil {
			return "", err
		}
	}
	return "ffmpeg combine", nil
}

func (f *fakeBackend) ExtractAudio(_ context.Context, _ string, _ int, dest string) (string, error) {
	f.mu.Lock()
	f.extracts = append(f.extracts, dest)
	f.mu.Unlock()
	if !f.dryRun {
		return "ffmpeg extract", os.WriteFile(dest, []byte("flac"), 0o644)
	}
	return "ffmpeg extract", nil
}

func (f *fakeBackend) DryRun() bool { return f.dryRun }

type fixture struct {
	outDir  string
	backend *fakeBackend
	pairs   []episode.Pair
}

// newFixture registers n episodes: film-rate base with jpn audio and a fra
// subtitle, PAL donor with fra audio.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		outDir:  filepath.Join(root, "out"),
		backend: &fakeBackend{probes: map[string]ffprobe.Result{}, failOn: map[string]error{}},
	}
	for i := 1; i <= n; i++ {
		key := episode.Key(fmt.Sprintf("E%02d", i))
		base := filepath.Join(root, "vostfr", fmt.Sprintf("ShowA.VOSTFR.%s.mkv", key))
		donor := filepath.Join(root, "vf", fmt.Sprintf("ShowA.VF.%s.mkv", key))
		f.backend.probes[base] = testsupport.NewProbe().Video("24000/1001").Audio("jpn", 2).Subtitle("fra").Result()
		f.backend.probes[donor] = testsupport.NewProbe().Video("25/1").Audio("fra", 2).Result()
		f.pairs = append(f.pairs, episode.Pair{Key: key, BasePath: base, DonorPath: donor})
	}
	return f
}

func (f *fixture) scheduler(opts Options) *Scheduler {
	opts.OutputDir = f.outDir
	if opts.Thresholds == (syncplan.Thresholds{}) {
		opts.Thresholds = syncplan.DefaultThresholds()
	}
	builder := trackplan.NewBuilder(streams.NewClassifier(streams.DefaultLanguages()), trackplan.Options{
		Mode:       trackplan.ModeTargetIntoOriginal,
		Default:    trackplan.DefaultOriginal,
		Labels:     trackplan.DefaultLabels(),
		Thresholds: opts.Thresholds,
	})
	s := New(f.backend, builder, opts, WithLogger(logging.NewNop()))
	s.newRunID = func() string { return "run-1" }
	return s
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t, 1)
	summary, err := f.scheduler(Options{Workers: 2}).Run(context.Background(), f.pairs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Err() != nil || summary.Succeeded != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	res := summary.Results[0]
	if !res.SpeedCorrection || res.OriginalStream != 1 || res.TargetStream != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if filepath.Base(res.OutputPath) != "ShowA.MULTi.E01.mkv" {
		t.Fatalf("unexpected output path %s", res.OutputPath)
	}
	if len(f.backend.preprocs) != 1 || f.backend.preprocs[0].Filters[0] != "atempo=0.95904" {
		t.Fatalf("expected speed-corrected preprocess, got %+v", f.backend.preprocs)
	}
	plan := f.backend.plans[0]
	if !plan.Audio[0].Default || plan.Audio[1].Default || !plan.Audio[1].Preprocessed || plan.DefaultSubtitle != 0 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if f.backend.combines[0].Title != "" && !strings.HasSuffix(f.backend.combines[0].Title, " - E01") {
		t.Fatalf("unexpected title %q", f.backend.combines[0].Title)
	}
	if _, err := os.Stat(filepath.Join(f.outDir, DefaultTempDirName)); !os.IsNotExist(err) {
		t.Fatalf("temp dir must be removed, stat err = %v", err)
	}
}

func TestRunOffsetsAndNoCorrection(t *testing.T) {
	f := newFixture(t, 2)
	s := f.scheduler(Options{NoCorrection: true, Offsets: syncplan.Offsets{"E02": -150}})
	summary, err := s.Run(context.Background(), f.pairs)
	if err != nil || summary.Failed != 0 {
		t.Fatalf("Run: %v %+v", err, summary)
	}
	if summary.Results[0].PreprocessCommand != "" {
		t.Fatal("E01 has no offset and no correction: no preprocess expected")
	}
	if summary.Results[1].OffsetMS != -150 || summary.Results[1].PreprocessCommand == "" {
		t.Fatalf("E02 must be trimmed: %+v", summary.Results[1])
	}
	if len(f.backend.preprocs) != 1 || f.backend.preprocs[0].Filters[0] != "atrim=start=0.15" {
		t.Fatalf("unexpected preprocess: %+v", f.backend.preprocs)
	}
}

func TestRunFailureDoesNotBlockSiblings(t *testing.T) {
	f := newFixture(t, 3)
	s := f.scheduler(Options{Workers: 3})
	jobs := s.Jobs(f.pairs)
	f.backend.failOn[jobs[1].OutputPath] = errors.New("exit status 1")
	f.backend.panicOn = f.pairs[2].BasePath

	summary, err := s.Run(context.Background(), f.pairs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 2 || summary.Err() == nil {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary.Results[0].Success {
		t.Fatalf("E01 must succeed: %+v", summary.Results[0])
	}
	if !strings.Contains(summary.Results[1].Message, "combine") {
		t.Fatalf("unexpected failure message %q", summary.Results[1].Message)
	}
	if !strings.Contains(summary.Results[2].Message, "panic") {
		t.Fatalf("panic must be converted to a failure: %q", summary.Results[2].Message)
	}
	entries, _ := os.ReadDir(f.outDir)
	for _, e := range entries {
		if e.Name() == DefaultTempDirName {
			t.Fatal("temp dir must be cleaned after failures")
		}
	}
}

func TestRunExistingOutputWithoutForce(t *testing.T) {
	f := newFixture(t, 1)
	s := f.scheduler(Options{})
	if _, err := s.Run(context.Background(), f.pairs); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := s.Run(context.Background(), f.pairs)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Failed != 1 || !errors.Is(summary.Results[0].Err, ErrOutputExists) {
		t.Fatalf("expected ErrOutputExists, got %+v", summary.Results[0])
	}
	if len(f.backend.combines) != 1 {
		t.Fatalf("existing output must not be rewritten, combines = %d", len(f.backend.combines))
	}

	forced := f.scheduler(Options{Force: true})
	summary, _ = forced.Run(context.Background(), f.pairs)
	if summary.Failed != 0 {
		t.Fatalf("force must overwrite: %+v", summary.Results[0])
	}
}

func TestRunMissingAudioIsEpisodeFailure(t *testing.T) {
	f := newFixture(t, 1)
	f.backend.probes[f.pairs[0].DonorPath] = testsupport.NewProbe().Audio("eng", 2).Result()
	summary, err := f.scheduler(Options{}).Run(context.Background(), f.pairs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(summary.Results[0].Err, trackplan.ErrMissingTargetAudio) {
		t.Fatalf("expected missing target audio, got %v", summary.Results[0].Err)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	f := newFixture(t, 8)
	f.backend.delay = 20 * time.Millisecond
	summary, err := f.scheduler(Options{Workers: 2, NoCorrection: true}).Run(context.Background(), f.pairs)
	if err != nil || summary.Failed != 0 {
		t.Fatalf("Run: %v %+v", err, summary)
	}
	if got := f.backend.maxInFlight.Load(); got > 2 || got < 1 {
		t.Fatalf("max in flight = %d, want <= 2", got)
	}
	for i, res := range summary.Results {
		if res.Key != f.pairs[i].Key {
			t.Fatalf("results must follow submission order: %d = %s", i, res.Key)
		}
	}
}

func TestRunDryRunCreatesNothing(t *testing.T) {
	f := newFixture(t, 1)
	f.backend.dryRun = true
	summary, err := f.scheduler(Options{ExportAudio: true}).Run(context.Background(), f.pairs)
	if err != nil || summary.Failed != 0 || !summary.DryRun {
		t.Fatalf("Run: %v %+v", err, summary)
	}
	if _, err := os.Stat(f.outDir); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the output dir: %v", err)
	}
}

func TestRunExportAudio(t *testing.T) {
	f := newFixture(t, 2)
	exportDir := filepath.Join(t.TempDir(), "export")
	s := f.scheduler(Options{ExportAudio: true, ExportDir: exportDir, NoCorrection: true, Offsets: syncplan.Offsets{"E01": 100}})
	summary, err := s.Run(context.Background(), f.pairs)
	if err != nil || summary.Failed != 0 {
		t.Fatalf("Run: %v %+v", err, summary)
	}
	// E01 was preprocessed: the artifact is copied.
	copied := filepath.Join(exportDir, "ShowA.VOSTFR.E01.VF.flac")
	if _, err := os.Stat(copied); err != nil {
		t.Fatalf("expected copied export: %v", err)
	}
	// E02 was not: the stream is extracted.
	if len(f.backend.extracts) != 1 || filepath.Base(f.backend.extracts[0]) != "ShowA.VOSTFR.E02.VF.flac" {
		t.Fatalf("unexpected extracts: %v", f.backend.extracts)
	}
}

func TestRunLockedOutput(t *testing.T) {
	f := newFixture(t, 1)
	lock, err := acquireLock(f.outDir)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	defer func() { _ = lock.Unlock() }()

	_, err = f.scheduler(Options{}).Run(context.Background(), f.pairs)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunNoPairs(t *testing.T) {
	f := newFixture(t, 0)
	if _, err := f.scheduler(Options{}).Run(context.Background(), nil); !errors.Is(err, ErrNoPairs) {
		t.Fatalf("expected ErrNoPairs, got %v", err)
	}
}

type memoryRecorder struct {
	mu       sync.Mutex
	started  int
	episodes []Result
	finished *Summary
}

func (m *memoryRecorder) StartRun(context.Context, Summary) error {
	m.started++
	return nil
}

func (m *memoryRecorder) RecordEpisode(_ context.Context, _ string, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodes = append(m.episodes, r)
	return errors.New("disk full")
}

func (m *memoryRecorder) FinishRun(_ context.Context, s Summary) error {
	m.finished = &s
	return nil
}

func TestRunRecordsHistory(t *testing.T) {
	f := newFixture(t, 2)
	rec := &memoryRecorder{}
	s := f.scheduler(Options{})
	s.recorder = rec
	summary, err := s.Run(context.Background(), f.pairs)
	if err != nil || summary.Failed != 0 {
		t.Fatalf("recorder errors must not fail the run: %v %+v", err, summary)
	}
	if rec.started != 1 || len(rec.episodes) != 2 || rec.finished == nil || rec.finished.RunID != "run-1" {
		t.Fatalf("unexpected recorder state: %+v", rec)
	}
}
