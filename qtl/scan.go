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

// Package qtl implements the statistical engine of elReaper: the
// regression kernels, the genome-wide scan of a trait, the permutation
// test that yields its empirical significance, and the bootstrap that
// estimates the support of each locus.
package qtl

import (
	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elreaper/geno"
	"github.com/exascience/elreaper/internal"
)

// A QTL is the result of the regression of a trait at a single locus.
type QTL struct {
	Marker   geno.Marker
	LRS      float64
	Additive float64

	// Dominance is only meaningful if HasDominance is true, which is the
	// case for intercross datasets without a control marker.
	Dominance    float64
	HasDominance bool
}

// A Request describes the regression of one trait against all loci of
// a dataset.
type Request struct {
	// Traits holds one measurement per strain, with missing
	// measurements already removed.
	Traits []float64

	// Variances optionally weights each measurement; nil if absent.
	Variances []float64

	// Strains holds the dataset strain index of each measurement. A nil
	// slice selects all strains of the dataset, in dataset order.
	Strains []int

	// Control optionally names a marker whose dosage is used as a
	// covariate in a composite regression.
	Control string
}

// A model is a validated Request, bound to a dataset. It selects the
// regression kernel that is applied at every locus.
type model struct {
	loci      []*geno.Locus
	strains   []int
	traits    []float64
	variances []float64
	control   []float64
	dominance bool
}

func newModel(dataset *geno.Dataset, req Request) (*model, error) {
	if err := dataset.Validate(); err != nil {
		return nil, err
	}
	n := len(req.Traits)
	if req.Strains == nil {
		if n != len(dataset.Strains) {
			return nil, ErrLengthMismatch
		}
	} else {
		if n != len(req.Strains) {
			return nil, ErrLengthMismatch
		}
		for _, ix := range req.Strains {
			if ix < 0 || ix >= len(dataset.Strains) {
				return nil, &StrainIndexError{Index: ix}
			}
		}
	}
	if req.Variances != nil && len(req.Variances) != n {
		return nil, ErrLengthMismatch
	}
	m := &model{
		loci:      dataset.Genome.Loci(),
		strains:   req.Strains,
		traits:    req.Traits,
		variances: req.Variances,
		dominance: dataset.Dominance(),
	}
	if req.Control != "" {
		if m.dominance {
			return nil, ErrCompositeIntercross
		}
		if m.variances != nil {
			return nil, ErrUnsupportedVariance
		}
		locus := dataset.Genome.FindLocus(req.Control)
		if locus == nil {
			return nil, &MarkerNotFoundError{Name: req.Control}
		}
		m.control = locus.DosageSubset(m.strains, make([]float64, 0, n))
	} else if m.dominance && m.variances != nil {
		return nil, ErrUnsupportedVariance
	}
	return m, nil
}

// resample returns a model on the observations at the given positions,
// which may repeat.
func (m *model) resample(positions []int, buf *model) *model {
	n := len(positions)
	buf.loci, buf.dominance = m.loci, m.dominance
	buf.strains = resize(buf.strains, n)
	buf.traits = resizeFloat64(buf.traits, n)
	for i, p := range positions {
		if m.strains == nil {
			buf.strains[i] = p
		} else {
			buf.strains[i] = m.strains[p]
		}
		buf.traits[i] = m.traits[p]
	}
	if m.variances != nil {
		buf.variances = resizeFloat64(buf.variances, n)
		for i, p := range positions {
			buf.variances[i] = m.variances[p]
		}
	}
	if m.control != nil {
		buf.control = resizeFloat64(buf.control, n)
		for i, p := range positions {
			buf.control[i] = m.control[p]
		}
	}
	return buf
}

func resize(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

func resizeFloat64(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

// scratch holds the per-goroutine genotype buffers of a scan.
type scratch struct {
	dosages, dominance []float64
}

func newScratch(n int) *scratch {
	return &scratch{
		dosages:   internal.ReserveFloat64Buffer(n)[:0],
		dominance: internal.ReserveFloat64Buffer(n)[:0],
	}
}

func (s *scratch) release() {
	internal.ReleaseFloat64Buffer(s.dosages)
	internal.ReleaseFloat64Buffer(s.dominance)
}

// regress applies the kernel of the model at a single locus.
func (m *model) regress(locus *geno.Locus, s *scratch) Result {
	s.dosages = locus.DosageSubset(m.strains, s.dosages)
	switch {
	case m.control != nil:
		return RegressCovariate(m.traits, s.dosages, m.control, true)
	case m.dominance:
		s.dominance = locus.DominanceSubset(m.strains, s.dominance)
		return RegressCovariate(m.traits, s.dosages, s.dominance, false)
	case m.variances != nil:
		return RegressWeighted(m.traits, s.dosages, m.variances)
	default:
		return Regress(m.traits, s.dosages)
	}
}

// Scan regresses the trait of the request against every locus of the
// dataset, and returns the results in genome order.
func Scan(dataset *geno.Dataset, req Request) ([]QTL, error) {
	m, err := newModel(dataset, req)
	if err != nil {
		return nil, err
	}
	hasDominance := m.dominance && m.control == nil
	qtls := make([]QTL, len(m.loci))
	parallel.Range(0, len(m.loci), 0, func(low, high int) {
		s := newScratch(len(m.traits))
		defer s.release()
		for i := low; i < high; i++ {
			locus := m.loci[i]
			result := m.regress(locus, s)
			qtl := QTL{
				Marker:   locus.Marker,
				LRS:      result.LRS,
				Additive: result.Additive,
			}
			if hasDominance {
				qtl.Dominance, qtl.HasDominance = result.Covariate, true
			}
			qtls[i] = qtl
		}
	})
	return qtls, nil
}
