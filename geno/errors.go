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
	"errors"
	"fmt"
)

// ErrMissingHeader is returned when a genotype file ends before its
// "Chr\tLocus\tcM" header line.
var ErrMissingHeader = errors.New("reached end of file before parsing dataset header")

// A MetadataError reports a missing or invalid @field in the metadata
// section of a genotype file.
type MetadataError struct {
	Field string
	Value string
}

func (err *MetadataError) Error() string {
	if err.Value == "" {
		return fmt.Sprintf("required metadata @%v was not provided", err.Field)
	}
	return fmt.Sprintf("invalid value %q for metadata @%v", err.Value, err.Field)
}

// A SymbolError reports a genotype symbol that matches none of the
// symbols declared in the metadata.
type SymbolError struct {
	Symbol string
}

func (err *SymbolError) Error() string {
	return fmt.Sprintf("failed to parse genotype %q", err.Symbol)
}

// A LineError reports a malformed locus line.
type LineError struct {
	Line string
	Err  error
}

func (err *LineError) Error() string {
	return fmt.Sprintf("%v, while parsing locus line %q", err.Err, err.Line)
}

func (err *LineError) Unwrap() error {
	return err.Err
}

// A StrainError reports a strain name that is not part of a dataset.
type StrainError struct {
	Name string
}

func (err *StrainError) Error() string {
	return fmt.Sprintf("strain %v not found in dataset", err.Name)
}

// An UnassignedDosageError reports a locus whose dosage vector was
// never fully assigned. Strain is -1 if the vector has the wrong length.
type UnassignedDosageError struct {
	Marker string
	Strain int
}

func (err *UnassignedDosageError) Error() string {
	if err.Strain < 0 {
		return fmt.Sprintf("locus %v does not have a genotype for every strain", err.Marker)
	}
	return fmt.Sprintf("locus %v has no dosage for strain %v", err.Marker, err.Strain)
}

// A FlankingUnknownError reports a run of missing genotypes whose
// flanking locus is itself unknown. This cannot happen once boundary
// loci have been fixed, so it indicates malformed input.
type FlankingUnknownError struct {
	Marker string
	Strain int
}

func (err *FlankingUnknownError) Error() string {
	return fmt.Sprintf("genotype of strain %v at flanking locus %v is unknown", err.Strain, err.Marker)
}
