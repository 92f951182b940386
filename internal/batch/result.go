package batch

import (
	"errors"
	"fmt"
	"time"

	"dubmux/internal/episode"
)

var (
	// ErrOutputExists means the destination exists and force is off.
	ErrOutputExists = errors.New("output already exists (use --force to overwrite)")
	// ErrLocked means another run holds the output directory.
	ErrLocked = errors.New("output directory is locked by another run")
	// ErrNoPairs means pairing produced nothing to do.
	ErrNoPairs = errors.New("no paired episodes")
)

// Job is one submitted episode.
type Job struct {
	Key        episode.Key
	BasePath   string
	DonorPath  string
	OutputPath string
	OffsetMS   int
}

// Result is the outcome of one episode.
type Result struct {
	Key        episode.Key
	BasePath   string
	DonorPath  string
	OutputPath string

	Success bool
	Message string
	Err     error

	OriginalStream  int
	TargetStream    int
	SpeedCorrection bool
	OffsetMS        int

	PreprocessCommand string
	CombineCommand    string
	ExportPath        string
	ExportCommand     string

	Duration time.Duration
}

// Summary aggregates a run.
type Summary struct {
	RunID      string
	Mode       string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
	Succeeded  int
	Failed     int
}

// Total returns the number of episodes processed.
func (s Summary) Total() int { return len(s.Results) }

// Err returns a non-nil error when any episode failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d episodes failed", s.Failed, s.Total())
}

func summarize(s *Summary) {
	s.Succeeded, s.Failed = 0, 0
	for _, r := range s.Results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
}
