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

package geno

import (
	"math"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elreaper/intervals"
	"github.com/exascience/elreaper/utils"
)

// FixBoundaries replaces Unknown genotypes in the first and last locus
// of a chromosome by Heterozygous. There is no flanking marker on one
// side of these loci, so their value is fixed rather than estimated.
func FixBoundaries(loci []*Locus) {
	if len(loci) == 0 {
		return
	}
	fix := func(locus *Locus) {
		for strain, g := range locus.Genotypes {
			if g == Unknown {
				locus.Genotypes[strain] = Heterozygous
				locus.Dosages[strain] = Heterozygous.Dosage()
				if locus.Dominance != nil {
					locus.Dominance[strain] = Heterozygous.Dominance()
				}
				locus.Imputed.Set(uint(strain))
			}
		}
	}
	fix(loci[0])
	fix(loci[len(loci)-1])
}

// FindUnknownIntervals returns, per strain, the runs of Unknown
// genotypes of a chromosome. Each run [Start, End) ends at the first
// known locus after it.
func FindUnknownIntervals(loci []*Locus) [][]intervals.Interval {
	if len(loci) == 0 {
		return nil
	}
	return intervals.Scan(len(loci), len(loci[0].Genotypes), func(index, strain int) bool {
		return loci[index].Genotypes[strain] == Unknown
	})
}

// haldane converts a map distance in Morgans to a recombination
// fraction.
func haldane(d float64) float64 {
	return (1.0 - math.Exp(-2.0*d)) / 2.0
}

func flankingKnown(g Genotype) bool {
	return g == Maternal || g == Heterozygous || g == Paternal
}

// EstimateUnknownGenotypes replaces the dosages (and dominance
// coefficients if dominance is true) of all strains within the given
// runs by their expectation conditional on the flanking loci. The
// genotype tags stay Unknown.
func EstimateUnknownGenotypes(dominance bool, loci []*Locus, runs [][]intervals.Interval) error {
	for strain, strainRuns := range runs {
		for _, run := range strainRuns {
			if run.Start == 0 {
				return &FlankingUnknownError{Marker: loci[0].Marker.Name, Strain: strain}
			}
			prev := loci[run.Start-1]
			next := loci[run.End]
			prevGeno := prev.Genotypes[strain]
			nextGeno := next.Genotypes[strain]
			if !flankingKnown(prevGeno) {
				return &FlankingUnknownError{Marker: prev.Marker.Name, Strain: strain}
			}
			if !flankingKnown(nextGeno) {
				return &FlankingUnknownError{Marker: next.Marker.Name, Strain: strain}
			}
			for index := run.Start; index < run.End; index++ {
				locus := loci[index]
				rec1 := (locus.CentiMorgan() - prev.CentiMorgan()) / 100.0
				rec2 := (next.CentiMorgan() - locus.CentiMorgan()) / 100.0
				rec0 := (next.CentiMorgan() - prev.CentiMorgan()) / 100.0

				f1 := haldane(rec1)
				f2 := haldane(rec2)
				f0 := haldane(rec0)

				// flanking loci at the same position: no recombination
				// between them, and both parental origins equally likely
				r0, r1, r2, r3 := 1.0, 0.5, 0.5, 0.0
				if f0 != 0 {
					r0 = (1.0 - f1) * (1.0 - f2) / (1.0 - f0)
					r1 = f1 * (1.0 - f2) / f0
					r2 = f2 * (1.0 - f1) / f0
					r3 = f1 * f2 / (1.0 - f0)
				}

				locus.Dosages[strain] = expectedDosage(prevGeno, nextGeno, r0, r1)
				if dominance && locus.Dominance != nil {
					locus.Dominance[strain] = expectedDominance(prevGeno, nextGeno, f0, r0, r1, r2, r3)
				}
				locus.Imputed.Set(uint(strain))
			}
		}
	}
	return nil
}

func expectedDosage(prev, next Genotype, r0, r1 float64) float64 {
	switch prev {
	case Maternal:
		switch next {
		case Maternal:
			return 1.0 - 2.0*r0
		case Heterozygous:
			return r1 - r0
		default:
			return 2.0*r1 - 1.0
		}
	case Heterozygous:
		switch next {
		case Maternal:
			return 1.0 - r0 - r1
		case Heterozygous:
			return 0.0
		default:
			return r0 + r1 - 1.0
		}
	default:
		switch next {
		case Maternal:
			return 1.0 - 2.0*r1
		case Heterozygous:
			return r0 - r1
		default:
			return 2.0*r0 - 1.0
		}
	}
}

func expectedDominance(prev, next Genotype, f0, r0, r1, r2, r3 float64) float64 {
	switch prev {
	case Maternal:
		switch next {
		case Maternal:
			return 2.0 * r0 * r3
		case Heterozygous:
			return r1*r0 + r2*r3
		default:
			return 2.0 * r1 * r2
		}
	case Heterozygous:
		switch next {
		case Maternal:
			return r1 * (r2 + r3)
		case Heterozygous:
			w := ((1.0 - f0) * (1.0 - f0)) / (1.0 - 2.0*f0*(1.0-f0))
			return 1.0 - 2.0*w*r0*r3 - 2.0*(1.0-w)*r1*r2
		default:
			return r1 * (r2 + r3)
		}
	default:
		switch next {
		case Maternal:
			return 2.0 * r1 * r2
		case Heterozygous:
			return r0*r1 + r2*r3
		default:
			return 2.0 * r1 * r3
		}
	}
}

// EstimateChromosome fixes the boundary loci of a chromosome and
// estimates all of its remaining unknown genotypes.
func EstimateChromosome(dominance bool, loci []*Locus) error {
	FixBoundaries(loci)
	return EstimateUnknownGenotypes(dominance, loci, FindUnknownIntervals(loci))
}

// EstimateUnknown estimates all missing genotypes of the dataset.
// Chromosomes are independent of each other and are processed in
// parallel. After a successful call, the dataset passes Validate.
func (dataset *Dataset) EstimateUnknown() error {
	chromosomes := dataset.Genome.Chromosomes
	if len(chromosomes) == 0 {
		return nil
	}
	dominance := dataset.Dominance()
	errs := make([]error, len(chromosomes))
	parallel.Range(0, len(chromosomes), 0, func(low, high int) {
		for i := low; i < high; i++ {
			errs[i] = EstimateChromosome(dominance, chromosomes[i].Loci)
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ImputedRegions summarizes, for one chromosome, which loci carry at
// least one estimated genotype.
type ImputedRegions struct {
	Chromosome utils.Symbol
	// Regions are the merged runs of estimated genotypes over all
	// strains, as half-open locus index ranges.
	Regions []intervals.Interval
	// Entries is the number of estimated (strain, locus) values.
	Entries int
}

// ImputedRegions returns a summary of the estimated genotypes per
// chromosome, in genome order.
func (dataset *Dataset) ImputedRegions() []ImputedRegions {
	result := make([]ImputedRegions, 0, len(dataset.Genome.Chromosomes))
	nStrains := len(dataset.Strains)
	for _, chrom := range dataset.Genome.Chromosomes {
		loci := chrom.Loci
		// the extra index closes runs that reach the last locus
		runs := intervals.Scan(len(loci)+1, nStrains, func(index, strain int) bool {
			return index < len(loci) && loci[index].Imputed.Test(uint(strain))
		})
		summary := ImputedRegions{Chromosome: chrom.Name}
		for _, strainRuns := range runs {
			for _, run := range strainRuns {
				summary.Entries += int(run.Len())
				summary.Regions = append(summary.Regions, run)
			}
		}
		intervals.SortByStart(summary.Regions)
		summary.Regions = intervals.Flatten(summary.Regions)
		result = append(result, summary)
	}
	return result
}
