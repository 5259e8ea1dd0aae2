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
	"runtime"
	"sort"

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"

	"github.com/exascience/elreaper/geno"
	"github.com/exascience/elreaper/internal"
)

// Trial counts.
const (
	DefaultPermutations = 1000
	DefaultBootstraps   = 1000
	MaxTrials           = 1000000
)

// Options control the resampling performed by Permutation and
// Bootstrap.
type Options struct {
	// Permutations is the number of permutation trials. Values <= 0
	// select DefaultPermutations.
	Permutations int

	// Bootstraps is the requested number of bootstrap replicates. At
	// least DefaultBootstraps replicates are always run.
	Bootstraps int

	// Workers is the number of independent random streams. Values <= 0
	// select runtime.GOMAXPROCS(0).
	Workers int

	// Seed determines the random streams of all workers. Results are
	// reproducible for a fixed Seed and Workers.
	Seed int64
}

func (opts Options) permutations() int {
	n := opts.Permutations
	if n <= 0 {
		n = DefaultPermutations
	}
	if n > MaxTrials {
		n = MaxTrials
	}
	return n
}

func (opts Options) bootstraps() int {
	n := opts.Bootstraps
	if n < DefaultBootstraps {
		n = DefaultBootstraps
	}
	if n > MaxTrials {
		n = MaxTrials
	}
	return n
}

// workers returns the number of workers for the given number of
// trials, which is never more than the number of trials.
func (opts Options) workers(trials int) int {
	w := opts.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > trials {
		w = trials
	}
	if w < 1 {
		w = 1
	}
	return w
}

// trials returns the share of the given worker; the first n%workers
// workers run one extra trial.
func trials(n, workers, worker int) int {
	t := n / workers
	if worker < n%workers {
		t++
	}
	return t
}

// shuffle permutes values uniformly.
func shuffle(r *internal.Rand, values []float64) {
	for i := len(values) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}

type stableFloat64Sorter []float64

func (s stableFloat64Sorter) SequentialSort(i, j int) {
	sort.Float64s(s[i:j])
}

func (s stableFloat64Sorter) NewTemp() psort.StableSorter {
	return stableFloat64Sorter(make([]float64, len(s)))
}

func (s stableFloat64Sorter) Len() int {
	return len(s)
}

func (s stableFloat64Sorter) Less(i, j int) bool {
	return s[i] < s[j]
}

func (s stableFloat64Sorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableFloat64Sorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Permutation computes the null distribution of the genome-wide
// maximum LRS of a trait by repeatedly shuffling the trait values over
// the strains and rescanning all loci with Regress. It returns the
// maxima of all trials in ascending order.
//
// The trials are divided over opts.Workers workers, each with its own
// random stream, so the result has exactly the requested number of
// entries for every number of workers.
func Permutation(dataset *geno.Dataset, traits []float64, strains []int, opts Options) ([]float64, error) {
	m, err := newModel(dataset, Request{Traits: traits, Strains: strains})
	if err != nil {
		return nil, err
	}
	n := opts.permutations()
	workers := opts.workers(n)

	// the dosages of the selected strains, shared by all workers
	dosages := make([][]float64, len(m.loci))
	parallel.Range(0, len(m.loci), 0, func(low, high int) {
		for i := low; i < high; i++ {
			dosages[i] = m.loci[i].DosageSubset(m.strains, nil)
		}
	})

	result := parallel.RangeReduce(0, workers, workers, func(low, high int) interface{} {
		var maxima []float64
		ptraits := internal.ReserveFloat64Buffer(len(traits))
		defer internal.ReleaseFloat64Buffer(ptraits)
		for w := low; w < high; w++ {
			r := internal.NewRand(internal.WorkerSeed(opts.Seed, w))
			copy(ptraits, traits)
			for t := trials(n, workers, w); t > 0; t-- {
				shuffle(r, ptraits)
				max := 0.0
				for _, x := range dosages {
					if lrs := Regress(ptraits, x).LRS; lrs > max {
						max = lrs
					}
				}
				maxima = append(maxima, max)
			}
		}
		return maxima
	}, func(x, y interface{}) interface{} {
		return append(x.([]float64), y.([]float64)...)
	}).([]float64)

	psort.StableSort(stableFloat64Sorter(result))
	return result, nil
}
