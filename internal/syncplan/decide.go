package syncplan

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dubmux/internal/streams"
)

// Thresholds are the immutable rate parameters used by Decide.
type Thresholds struct {
	FilmRate    streams.FrameRate
	PALRate     float64
	Tolerance   float64
	SpeedFactor float64
}

// DefaultThresholds returns the 23.976/25 pair with a 0.02 fps tolerance.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FilmRate:    streams.FrameRate{Num: 24000, Den: 1001},
		PALRate:     25.0,
		Tolerance:   0.02,
		SpeedFactor: 0.95904,
	}
}

// Validate reports inconsistent thresholds.
func (t Thresholds) Validate() error {
	switch {
	case !t.FilmRate.Known():
		return fmt.Errorf("film rate must be positive")
	case t.PALRate <= 0:
		return fmt.Errorf("pal rate must be positive")
	case t.Tolerance <= 0:
		return fmt.Errorf("tolerance must be positive")
	case t.SpeedFactor < 0.5 || t.SpeedFactor > 2.0:
		// atempo only accepts factors in [0.5, 2.0] per filter instance.
		return fmt.Errorf("speed factor %.5f outside [0.5, 2.0]", t.SpeedFactor)
	}
	return nil
}

// Decide reports whether the donor audio must be slowed down. It is true only
// when the base runs at film rate and the donor at PAL rate. Any other
// combination, including an unknown rate on either side, is left alone.
func (t Thresholds) Decide(base, donor streams.FrameRate, noCorrection bool) bool {
	if noCorrection || !base.Known() || !donor.Known() {
		return false
	}
	return within(base.FPS(), t.FilmRate.FPS(), t.Tolerance) &&
		within(donor.FPS(), t.PALRate, t.Tolerance)
}

func within(value, target, tolerance float64) bool {
	return math.Abs(value-target) <= tolerance
}

// Decision is the per-episode timing outcome.
type Decision struct {
	SpeedCorrection bool
	OffsetMS        int
}

// NeedsPreprocess reports whether the donor audio must be rewritten before
// combining.
func (d Decision) NeedsPreprocess() bool {
	return d.SpeedCorrection || d.OffsetMS != 0
}

// AudioFilters renders the preprocessing filter chain for d. Speed correction
// runs first so that the offset is expressed on the output timeline; older
// releases applied the offset before atempo, which scaled the delay by the
// speed factor. channels is the donor track's channel count; 0 means unknown
// and falls back to 2.
func AudioFilters(d Decision, channels int, t Thresholds) []string {
	var filters []string
	if d.SpeedCorrection {
		filters = append(filters, "atempo="+strconv.FormatFloat(t.SpeedFactor, 'f', -1, 64))
	}
	switch {
	case d.OffsetMS > 0:
		filters = append(filters, delayFilter(d.OffsetMS, channels))
	case d.OffsetMS < 0:
		start := strconv.FormatFloat(float64(-d.OffsetMS)/1000.0, 'f', -1, 64)
		filters = append(filters, "atrim=start="+start, "asetpts=PTS-STARTPTS")
	}
	return filters
}

// adelay takes one delay per channel separated by '|'.
func delayFilter(ms, channels int) string {
	if channels <= 0 {
		channels = 2
	}
	delays := make([]string, channels)
	for i := range delays {
		delays[i] = strconv.Itoa(ms)
	}
	return "adelay=" + strings.Join(delays, "|")
}
