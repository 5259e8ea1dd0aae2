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

package qtl

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PValue returns the fraction of the permutation maxima that exceed
// lrs. sorted must be in ascending order, as returned by Permutation.
// An empty distribution yields 1.
func PValue(lrs float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 1
	}
	i := sort.Search(n, func(i int) bool { return sorted[i] > lrs })
	return math.Max(0, math.Min(1, 1-float64(i)/float64(n)))
}

// Suggestive and significant levels of the permutation maxima.
const (
	SuggestiveLevel  = 0.63
	SignificantLevel = 0.95
)

// Thresholds returns the suggestive and significant LRS thresholds,
// the 0.63 and 0.95 empirical quantiles of the permutation maxima.
// sorted must be in ascending order. An empty distribution yields
// NaN thresholds.
func Thresholds(sorted []float64) (suggestive, significant float64) {
	if len(sorted) == 0 {
		return math.NaN(), math.NaN()
	}
	suggestive = stat.Quantile(SuggestiveLevel, stat.Empirical, sorted, nil)
	significant = stat.Quantile(SignificantLevel, stat.Empirical, sorted, nil)
	return suggestive, significant
}
