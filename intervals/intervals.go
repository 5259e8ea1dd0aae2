// elReaper: a high-performance tool for QTL mapping.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elreaper/blob/master/LICENSE.txt>.

package intervals

import (
	"sort"
)

// Interval is a half-open range [Start, End) of locus indices.
type Interval struct {
	Start, End int32
}

// Len returns the number of indices covered by the interval.
func (interval Interval) Len() int32 {
	return interval.End - interval.Start
}

// SortByStart sorts a slice of Interval by Start position.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}

// Extend makes interval1 larger if it overlaps with or touches
// interval2, by storing max(interval1.End, interval2.End) in
// interval1.End; otherwise, interval1 remains unchanged.
// Returns true if the two intervals overlap, false otherwise.
// interval2.Start >= interval1.Start must be true before
// calling Extend.
func (interval1 *Interval) Extend(interval2 Interval) bool {
	if interval2.Start > interval1.End {
		return false
	}
	if interval2.End > interval1.End {
		interval1.End = interval2.End
	}
	return true
}

// Flatten merges overlapping intervals into larger intervals.
// intervals must be sorted by Start before calling Flatten.
// The resulting slice is sorted by Start, and no two
// intervals in the result overlap with each other.
// The result shares memory with the intervals argument.
func Flatten(intervals []Interval) []Interval {
	for i, n := 0, len(intervals)-1; i < n; i++ {
		if intervals[i].Extend(intervals[i+1]) {
			n++
			for j := i + 1; j < n; j++ {
				if !intervals[i].Extend(intervals[j]) {
					i++
					intervals[i] = intervals[j]
				}
			}
			return intervals[:i+1]
		}
	}
	return intervals
}

// Runs accumulates, per strain, the maximal runs of consecutive
// missing entries seen while stepping through the loci of a
// chromosome in order.
type Runs struct {
	// open[strain] is the start of the currently open run, or -1.
	open   []int32
	closed [][]Interval
}

// NewRuns returns an empty Runs state for the given number of
// strains.
func NewRuns(nStrains int) *Runs {
	open := make([]int32, nStrains)
	for i := range open {
		open[i] = -1
	}
	return &Runs{
		open:   open,
		closed: make([][]Interval, nStrains),
	}
}

// Step advances the state by one locus. The missing predicate
// reports whether the given strain has no known value at this
// locus. A run that was open and is not missing anymore is closed
// with End = index.
func (runs *Runs) Step(index int32, missing func(strain int) bool) {
	for strain, start := range runs.open {
		if missing(strain) {
			if start < 0 {
				runs.open[strain] = index
			}
		} else if start >= 0 {
			runs.closed[strain] = append(runs.closed[strain], Interval{Start: start, End: index})
			runs.open[strain] = -1
		}
	}
}

// Intervals returns the closed runs per strain. Runs that are still
// open are not included.
func (runs *Runs) Intervals() [][]Interval {
	return runs.closed
}

// Scan folds Step over the indices [0, n) and returns the closed runs
// per strain. Runs still open at index n-1 are dropped; callers that
// need them closed pass a trailing index that is never missing.
func Scan(n int, nStrains int, missing func(index, strain int) bool) [][]Interval {
	runs := NewRuns(nStrains)
	for i := 0; i < n; i++ {
		index := i
		runs.Step(int32(index), func(strain int) bool {
			return missing(index, strain)
		})
	}
	return runs.Intervals()
}
