package streams

import (
	"fmt"
	"strconv"
	"strings"

	"dubmux/internal/media/ffprobe"
)

// FrameRate is a rational frames-per-second value. The zero value means the
// rate could not be determined.
type FrameRate struct {
	Num int64
	Den int64
}

// Known reports whether the rate is usable.
func (r FrameRate) Known() bool {
	return r.Num > 0 && r.Den > 0
}

// FPS returns the rate as a float, or 0 when unknown.
func (r FrameRate) FPS() float64 {
	if !r.Known() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r FrameRate) String() string {
	if !r.Known() {
		return "unknown"
	}
	if r.Den == 1 {
		return strconv.FormatInt(r.Num, 10)
	}
	return fmt.Sprintf("%d/%d (%.3f)", r.Num, r.Den, r.FPS())
}

// rateFromStream resolves a video frame rate from ffprobe metadata: the
// average rate, then the base rate, then the inverted time base. Fields with
// a zero denominator or numerator are skipped.
func rateFromStream(s ffprobe.Stream) FrameRate {
	for _, value := range []string{s.AvgFrameRate, s.RFrameRate} {
		if rate, ok := parseRational(value); ok {
			return rate
		}
	}
	if tb, ok := parseRational(s.TimeBase); ok {
		return FrameRate{Num: tb.Den, Den: tb.Num}
	}
	return FrameRate{}
}

// parseRational accepts "num/den" or a bare integer.
func parseRational(value string) (FrameRate, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return FrameRate{}, false
	}
	numStr, denStr, hasDen := strings.Cut(value, "/")
	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return FrameRate{}, false
	}
	den := int64(1)
	if hasDen {
		den, err = strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
		if err != nil {
			return FrameRate{}, false
		}
	}
	rate := FrameRate{Num: num, Den: den}
	if !rate.Known() {
		return FrameRate{}, false
	}
	return rate, true
}
