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
	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elreaper/geno"
	"github.com/exascience/elreaper/internal"
)

// Bootstrap estimates the support of each locus for the trait of the
// request. Every replicate draws the observations with replacement,
// rescans all loci with the kernel of the request, and counts the
// first locus that attains the maximum LRS. The counts are returned
// in genome order and sum to the number of replicates.
//
// At least DefaultBootstraps replicates are run.
func Bootstrap(dataset *geno.Dataset, req Request, opts Options) ([]int, error) {
	m, err := newModel(dataset, req)
	if err != nil {
		return nil, err
	}
	n := opts.bootstraps()
	workers := opts.workers(n)
	nobs := len(m.traits)

	result := parallel.RangeReduce(0, workers, workers, func(low, high int) interface{} {
		counts := make([]int, len(m.loci))
		positions := make([]int, nobs)
		var replicate model
		s := newScratch(nobs)
		defer s.release()
		for w := low; w < high; w++ {
			r := internal.NewRand(internal.WorkerSeed(opts.Seed, w))
			for t := trials(n, workers, w); t > 0; t-- {
				for i := range positions {
					positions[i] = r.Intn(nobs)
				}
				b := m.resample(positions, &replicate)
				max, maxPos := 0.0, 0
				for l, locus := range b.loci {
					if lrs := b.regress(locus, s).LRS; max < lrs {
						max, maxPos = lrs, l
					}
				}
				if len(counts) > 0 {
					counts[maxPos]++
				}
			}
		}
		return counts
	}, func(x, y interface{}) interface{} {
		cx, cy := x.([]int), y.([]int)
		for i, c := range cy {
			cx[i] += c
		}
		return cx
	}).([]int)

	return result, nil
}
