package schedule

import (
	"errors"
	"fmt"
	"time"
)

// MaxExactScore is the largest magnitude a float64 sorted-set score holds
// without losing integer precision.
const MaxExactScore = int64(1) << 53

// DefaultResolution is the tick size used for scores unless configured otherwise.
const DefaultResolution = time.Millisecond

var ErrScoreOutOfRange = errors.New("score exceeds exact float64 range")

// Ticks counts resolution units between the Unix epoch and t, rounding
// toward the past. Resolutions that neither divide nor are a multiple of a
// second go through UnixNano, which covers the years 1678 to 2262.
func Ticks(t time.Time, resolution time.Duration) int64 {
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	sec := t.Unix()
	nsec := int64(t.Nanosecond())

	switch {
	case time.Second%resolution == 0:
		return sec*int64(time.Second/resolution) + nsec/int64(resolution)
	case resolution%time.Second == 0:
		return floorDiv(sec, int64(resolution/time.Second))
	default:
		return floorDiv(t.UnixNano(), int64(resolution))
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

// Score converts ticks to a sorted-set score, refusing values that would be
// rounded.
func Score(ticks int64) (float64, error) {
	if ticks > MaxExactScore || ticks < -MaxExactScore {
		return 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, ticks)
	}

	return float64(ticks), nil
}

// ScoreOf is Score(Ticks(t, resolution)).
func ScoreOf(t time.Time, resolution time.Duration) (float64, error) {
	return Score(Ticks(t, resolution))
}

// unixToDotNetSeconds is the distance between 0001-01-01 and 1970-01-01.
const unixToDotNetSeconds = 62135596800

// DotNetTicks counts 100ns intervals since 0001-01-01 UTC. Present-day values
// are beyond MaxExactScore.
func DotNetTicks(t time.Time) int64 {
	return (t.Unix()+unixToDotNetSeconds)*10_000_000 + int64(t.Nanosecond())/100
}
