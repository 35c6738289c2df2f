// Package depthmatch pairs ISIIS frames with the nearest ROV-CTD depth
// record and renames matched frames with a depth suffix.
package depthmatch

import (
	"sort"
	"time"

	"github.com/cfelab/isiis-prep/internal/ctdlog"
	"github.com/cfelab/isiis-prep/internal/isiis"
)

// Options tunes the matching pass.
type Options struct {
	// ClockOffset is added to each frame timestamp before comparison. The
	// instrument clock runs behind the CTD clock, so the correction is
	// normally negative.
	ClockOffset time.Duration
	// Threshold is the largest whole-second separation that still counts
	// as a match.
	Threshold time.Duration
}

// Match pairs a frame with its nearest depth record.
type Match struct {
	Frame  isiis.Frame
	Record ctdlog.Record
	// Delta is record time minus offset-adjusted frame time.
	Delta time.Duration
}

// Nearest finds, for every frame, the globally nearest record in time and
// keeps the pair when the separation is within the threshold. Frames and
// records are left in their input order; the result follows frame order.
func Nearest(records []ctdlog.Record, frames []isiis.Frame, opts Options) []Match {
	if len(records) == 0 || len(frames) == 0 {
		return nil
	}

	sorted := make([]ctdlog.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var matches []Match
	for _, frame := range frames {
		adjusted := frame.Timestamp.Add(opts.ClockOffset)

		idx := sort.Search(len(sorted), func(i int) bool {
			return !sorted[i].Timestamp.Before(adjusted)
		})

		best := -1
		var bestDelta time.Duration
		for _, cand := range []int{idx - 1, idx} {
			if cand < 0 || cand >= len(sorted) {
				continue
			}
			delta := sorted[cand].Timestamp.Sub(adjusted)
			if best == -1 || absDuration(delta) < absDuration(bestDelta) {
				best = cand
				bestDelta = delta
			}
		}
		if best == -1 {
			continue
		}

		// Sub-second remainders are ignored, so an 8.9s gap still passes
		// an 8s threshold.
		if absDuration(bestDelta).Truncate(time.Second) > opts.Threshold {
			continue
		}
		matches = append(matches, Match{Frame: frame, Record: sorted[best], Delta: bestDelta})
	}
	return matches
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
