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

// Package geno holds the genotype model of a mapping panel: markers,
// loci, chromosomes, and the datasets they form, together with a
// parser for .geno files and the estimation of missing genotypes.
package geno

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/exascience/elreaper/utils"
)

// A Genotype is the parental origin of a locus in one strain.
type Genotype uint8

// The four genotype symbols.
const (
	Maternal Genotype = iota
	Paternal
	Heterozygous
	Unknown
)

// UnknownDosage is the placeholder dosage of an Unknown genotype. It
// never occurs in a dataset after EstimateUnknown has run.
const UnknownDosage = 99.0

// Dosage returns the numeric value used for a genotype in regression.
func (g Genotype) Dosage() float64 {
	switch g {
	case Maternal:
		return -1.0
	case Paternal:
		return 1.0
	case Heterozygous:
		return 0.0
	default:
		return UnknownDosage
	}
}

// Dominance returns the dominance coding of a genotype.
func (g Genotype) Dominance() float64 {
	switch g {
	case Maternal, Paternal:
		return 0.0
	default:
		return 1.0
	}
}

func (g Genotype) String() string {
	switch g {
	case Maternal:
		return "Mat"
	case Paternal:
		return "Pat"
	case Heterozygous:
		return "Het"
	case Unknown:
		return "Unk"
	default:
		return fmt.Sprintf("Genotype(%d)", uint8(g))
	}
}

// A Marker identifies a locus on the genetic map.
type Marker struct {
	Name            string
	CentiMorgan     float64
	MegaBasepair    float64
	HasMegaBasepair bool
	Chromosome      utils.Symbol
}

// A Locus is a marker together with the genotypes of all strains at
// that marker, in the strain order of the owning dataset.
type Locus struct {
	Marker    Marker
	Genotypes []Genotype
	Dosages   []float64

	// Dominance coefficients; nil unless the dataset is an intercross.
	Dominance []float64

	// Imputed marks the strains whose dosage was estimated rather than
	// observed.
	Imputed *bitset.BitSet
}

// NewLocus allocates a Locus and derives dosages (and dominance
// coefficients if requested) from the given genotypes.
func NewLocus(marker Marker, genotypes []Genotype, dominance bool) *Locus {
	locus := &Locus{
		Marker:    marker,
		Genotypes: genotypes,
		Dosages:   make([]float64, len(genotypes)),
		Imputed:   bitset.New(uint(len(genotypes))),
	}
	for i, g := range genotypes {
		locus.Dosages[i] = g.Dosage()
	}
	if dominance {
		locus.Dominance = make([]float64, len(genotypes))
		for i, g := range genotypes {
			locus.Dominance[i] = g.Dominance()
		}
	}
	return locus
}

// CentiMorgan returns the map position of the locus.
func (locus *Locus) CentiMorgan() float64 {
	return locus.Marker.CentiMorgan
}

func subset(values []float64, strains []int, buf []float64) []float64 {
	if strains == nil {
		return append(buf[:0], values...)
	}
	buf = buf[:0]
	for _, ix := range strains {
		buf = append(buf, values[ix])
	}
	return buf
}

// DosageSubset stores the dosages of the given strains in buf, in the
// order of strains, and returns the result. A nil strains slice
// selects all strains.
func (locus *Locus) DosageSubset(strains []int, buf []float64) []float64 {
	return subset(locus.Dosages, strains, buf)
}

// DominanceSubset is DosageSubset for the dominance coefficients.
func (locus *Locus) DominanceSubset(strains []int, buf []float64) []float64 {
	return subset(locus.Dominance, strains, buf)
}

// A Chromosome is an ordered sequence of loci.
type Chromosome struct {
	Name utils.Symbol
	Loci []*Locus
}

// A Genome is the sequence of chromosomes of a dataset, in the order in
// which they were first seen in the input.
type Genome struct {
	Chromosomes []Chromosome
}

// AddLocus appends a locus to its chromosome, adding the chromosome at
// the end of the genome if it was not seen before.
func (genome *Genome) AddLocus(locus *Locus) {
	chrom := locus.Marker.Chromosome
	for i := len(genome.Chromosomes) - 1; i >= 0; i-- {
		if genome.Chromosomes[i].Name == chrom {
			genome.Chromosomes[i].Loci = append(genome.Chromosomes[i].Loci, locus)
			return
		}
	}
	genome.Chromosomes = append(genome.Chromosomes, Chromosome{Name: chrom, Loci: []*Locus{locus}})
}

// NLoci returns the total number of loci in the genome.
func (genome *Genome) NLoci() (n int) {
	for _, chrom := range genome.Chromosomes {
		n += len(chrom.Loci)
	}
	return n
}

// Loci returns all loci in genome order.
func (genome *Genome) Loci() []*Locus {
	loci := make([]*Locus, 0, genome.NLoci())
	for _, chrom := range genome.Chromosomes {
		loci = append(loci, chrom.Loci...)
	}
	return loci
}

// FindLocus returns the locus with the given marker name, or nil.
func (genome *Genome) FindLocus(name string) *Locus {
	for _, chrom := range genome.Chromosomes {
		for _, locus := range chrom.Loci {
			if locus.Marker.Name == name {
				return locus
			}
		}
	}
	return nil
}

// A CrossType is the design of the cross a dataset was derived from.
type CrossType int

// The supported cross designs.
const (
	// Riset covers backcrosses and recombinant inbred strains.
	Riset CrossType = iota
	// Intercross is an F2 design, with a dominance effect per locus.
	Intercross
)

func (t CrossType) String() string {
	if t == Intercross {
		return "intercross"
	}
	return "riset"
}

// ParseCrossType maps a @type metadata value to a CrossType.
func ParseCrossType(s string) (CrossType, error) {
	switch s {
	case "riset":
		return Riset, nil
	case "intercross":
		return Intercross, nil
	default:
		return Riset, &MetadataError{Field: "type", Value: s}
	}
}

// Metadata describes a dataset and the symbols used in its genotype
// columns.
type Metadata struct {
	Name         string
	Type         CrossType
	Maternal     string
	Paternal     string
	Heterozygous string
	Unknown      string
}

// ParseGenotype maps a genotype symbol to a Genotype.
func (metadata *Metadata) ParseGenotype(symbol string) (Genotype, error) {
	switch symbol {
	case metadata.Maternal:
		return Maternal, nil
	case metadata.Paternal:
		return Paternal, nil
	case metadata.Heterozygous:
		return Heterozygous, nil
	case metadata.Unknown:
		return Unknown, nil
	default:
		return Unknown, &SymbolError{Symbol: symbol}
	}
}

// A Dataset is a genotyped mapping panel.
type Dataset struct {
	Metadata
	HasMegaBasepair bool

	// Strains defines the index space of all per-strain vectors.
	Strains []string
	Genome  Genome
}

// Dominance reports whether dominance effects are modeled.
func (dataset *Dataset) Dominance() bool {
	return dataset.Type == Intercross
}

// NLoci returns the number of loci of the dataset.
func (dataset *Dataset) NLoci() int {
	return dataset.Genome.NLoci()
}

// StrainIndices maps strain names to their indices in the dataset.
func (dataset *Dataset) StrainIndices(strains []string) ([]int, error) {
	index := make(map[string]int, len(dataset.Strains))
	for i, s := range dataset.Strains {
		if _, found := index[s]; !found {
			index[s] = i
		}
	}
	result := make([]int, len(strains))
	for i, s := range strains {
		ix, found := index[s]
		if !found {
			return nil, &StrainError{Name: s}
		}
		result[i] = ix
	}
	return result, nil
}

// Validate checks that every locus carries a dosage for every strain
// and that no placeholder or non-finite dosage is left.
func (dataset *Dataset) Validate() error {
	n := len(dataset.Strains)
	for _, chrom := range dataset.Genome.Chromosomes {
		for _, locus := range chrom.Loci {
			if len(locus.Dosages) != n || len(locus.Genotypes) != n ||
				(dataset.Dominance() && len(locus.Dominance) != n) {
				return &UnassignedDosageError{Marker: locus.Marker.Name, Strain: -1}
			}
			for strain, dosage := range locus.Dosages {
				if dosage == UnknownDosage || math.IsNaN(dosage) || math.IsInf(dosage, 0) {
					return &UnassignedDosageError{Marker: locus.Marker.Name, Strain: strain}
				}
			}
			if dataset.Dominance() {
				for strain, d := range locus.Dominance {
					if math.IsNaN(d) || math.IsInf(d, 0) {
						return &UnassignedDosageError{Marker: locus.Marker.Name, Strain: strain}
					}
				}
			}
		}
	}
	return nil
}
