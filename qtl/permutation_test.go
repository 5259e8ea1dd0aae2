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
	"testing"

	"github.com/exascience/elreaper/geno"
	"github.com/exascience/elreaper/internal"
)

func TestTrials(t *testing.T) {
	for _, n := range []int{1000, 1001, 999, 7, 1} {
		for workers := 1; workers <= 8 && workers <= n; workers++ {
			total := 0
			for w := 0; w < workers; w++ {
				share := trials(n, workers, w)
				if share < n/workers || share > n/workers+1 {
					t.Errorf("trials(%v, %v, %v) = %v", n, workers, w, share)
				}
				total += share
			}
			if total != n {
				t.Errorf("trials for n = %v, workers = %v sum to %v", n, workers, total)
			}
		}
	}
}

func TestOptions(t *testing.T) {
	if n := (Options{}).permutations(); n != DefaultPermutations {
		t.Error("default permutations failed", n)
	}
	if n := (Options{Permutations: 2 * MaxTrials}).permutations(); n != MaxTrials {
		t.Error("maximum permutations failed", n)
	}
	if n := (Options{Bootstraps: 10}).bootstraps(); n != DefaultBootstraps {
		t.Error("minimum bootstraps failed", n)
	}
	if n := (Options{Bootstraps: 5000}).bootstraps(); n != 5000 {
		t.Error("bootstraps failed", n)
	}
	if w := (Options{Workers: 8}).workers(3); w != 3 {
		t.Error("workers cap failed", w)
	}
	if w := (Options{}).workers(1000); w < 1 {
		t.Error("default workers failed", w)
	}
}

func TestShuffle(t *testing.T) {
	r := internal.NewRand(7)
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	shuffle(r, values)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	for i, v := range sorted {
		if v != float64(i) {
			t.Fatal("shuffle lost values", values)
		}
	}
}

func TestPermutation(t *testing.T) {
	dataset := newTestDataset(geno.Riset)
	traits := newTestTraits(dataset)
	original := append([]float64(nil), traits...)
	for _, n := range []int{1000, 1001} {
		for workers := 1; workers <= 8; workers++ {
			perms, err := Permutation(dataset, traits, nil, Options{Permutations: n, Workers: workers, Seed: 1})
			if err != nil {
				t.Fatal(err)
			}
			if len(perms) != n {
				t.Errorf("Permutation with %v workers returned %v maxima, expected %v", workers, len(perms), n)
			}
			if !sort.Float64sAreSorted(perms) {
				t.Errorf("Permutation with %v workers is not sorted", workers)
			}
			for _, lrs := range perms {
				if lrs < 0 || math.IsNaN(lrs) {
					t.Fatal("Permutation maximum failed", lrs)
				}
			}
		}
	}
	for i := range traits {
		if traits[i] != original[i] {
			t.Fatal("Permutation modified its input")
		}
	}
}

func TestPermutationDefaults(t *testing.T) {
	dataset := newTestDataset(geno.Riset)
	traits := newTestTraits(dataset)
	perms, err := Permutation(dataset, traits, nil, Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != DefaultPermutations {
		t.Error("default number of permutations failed", len(perms))
	}
	perms, err = Permutation(dataset, traits, nil, Options{Permutations: 3, Workers: 8})
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 3 {
		t.Error("more workers than permutations failed", len(perms))
	}
}

func TestPermutationDeterminism(t *testing.T) {
	dataset := newTestDataset(geno.Riset)
	traits := newTestTraits(dataset)
	opts := Options{Permutations: 200, Workers: 3, Seed: 12345}
	perms1, err := Permutation(dataset, traits, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	perms2, err := Permutation(dataset, traits, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range perms1 {
		if perms1[i] != perms2[i] {
			t.Fatal("Permutation is not deterministic for a fixed seed")
		}
	}
}

func TestPermutationSignificance(t *testing.T) {
	dataset := newTestDataset(geno.Riset)
	traits := newTestTraits(dataset)
	qtls, err := Scan(dataset, Request{Traits: traits})
	if err != nil {
		t.Fatal(err)
	}
	perms, err := Permutation(dataset, traits, nil, Options{Permutations: 500, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	if p := PValue(qtls[causalLocus].LRS, perms); p > 0.01 {
		t.Error("causal locus is not significant", p)
	}
	suggestive, significant := Thresholds(perms)
	if qtls[causalLocus].LRS < significant {
		t.Error("causal locus below significant threshold", qtls[causalLocus].LRS, significant)
	}
	if suggestive > significant {
		t.Error("Thresholds ordering failed", suggestive, significant)
	}
}

func TestPValue(t *testing.T) {
	if PValue(3, nil) != 1 {
		t.Error("PValue on an empty distribution failed")
	}
	sorted := []float64{1, 2, 3, 4}
	for _, c := range []struct{ lrs, p float64 }{
		{0, 1}, {1, 0.75}, {2.5, 0.5}, {4, 0}, {10, 0},
	} {
		if p := PValue(c.lrs, sorted); p != c.p {
			t.Errorf("PValue(%v) = %v, expected %v", c.lrs, p, c.p)
		}
	}
	last := 1.0
	for lrs := -1.0; lrs < 6; lrs += 0.25 {
		p := PValue(lrs, sorted)
		if p < 0 || p > 1 || p > last {
			t.Error("PValue is not monotone", lrs, p)
		}
		last = p
	}
}

func TestThresholds(t *testing.T) {
	if s, g := Thresholds(nil); !math.IsNaN(s) || !math.IsNaN(g) {
		t.Error("Thresholds on an empty distribution failed")
	}
	sorted := make([]float64, 100)
	for i := range sorted {
		sorted[i] = float64(i + 1)
	}
	suggestive, significant := Thresholds(sorted)
	if suggestive > significant {
		t.Error("Thresholds ordering failed", suggestive, significant)
	}
	if suggestive < 60 || suggestive > 66 || significant < 93 || significant > 97 {
		t.Error("Thresholds failed", suggestive, significant)
	}
}

func TestBootstrap(t *testing.T) {
	dataset := newTestDataset(geno.Riset)
	traits := newTestTraits(dataset)
	for _, req := range []Request{
		{Traits: traits},
		{Traits: traits, Control: "M3"},
	} {
		counts, err := Bootstrap(dataset, req, Options{Bootstraps: 10, Workers: 3, Seed: 9})
		if err != nil {
			t.Fatal(err)
		}
		if len(counts) != testLoci {
			t.Fatal("Bootstrap length failed", len(counts))
		}
		total := 0
		for _, c := range counts {
			total += c
		}
		if total != DefaultBootstraps {
			t.Error("Bootstrap counts sum failed", total)
		}
		if counts[causalLocus] < DefaultBootstraps/2 {
			t.Error("Bootstrap support of the causal locus failed", counts[causalLocus])
		}
	}
}

func TestBootstrapIntercross(t *testing.T) {
	dataset := newTestDataset(geno.Intercross)
	traits := newTestTraits(dataset)
	counts, err := Bootstrap(dataset, Request{Traits: traits}, Options{Bootstraps: 1200, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != 1200 {
		t.Error("Bootstrap counts sum failed", total)
	}
}

func BenchmarkPermutation(b *testing.B) {
	dataset := newTestDataset(geno.Riset)
	traits := newTestTraits(dataset)
	for i := 0; i < b.N; i++ {
		if _, err := Permutation(dataset, traits, nil, Options{Permutations: 100}); err != nil {
			b.Fatal(err)
		}
	}
}
