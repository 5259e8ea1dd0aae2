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

// Package traits reads trait files: a header line naming the strains,
// followed by one line of measurements per trait.
package traits

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/exascience/elreaper/internal"
)

// HeaderPrefix starts the header line of a trait file.
const HeaderPrefix = "Trait"

// ErrMissingHeader is returned when a trait file does not start with a
// "Trait" header line.
var ErrMissingHeader = errors.New("trait file does not start with a Trait header line")

// ErrEmptyStrain is returned for a header line with an empty strain
// column.
var ErrEmptyStrain = errors.New("empty strain name in trait header")

// ErrNonFinite is returned for an infinite trait measurement.
var ErrNonFinite = errors.New("trait value is not finite")

// A LineError reports a malformed trait line.
type LineError struct {
	Line string
	Err  error
}

func (err *LineError) Error() string {
	return fmt.Sprintf("%v, while parsing trait line %q", err.Err, err.Line)
}

func (err *LineError) Unwrap() error {
	return err.Err
}

// A Trait is a named vector of measurements, in the strain order of
// its file. Missing measurements are NaN.
type Trait struct {
	Name   string
	Values []float64
}

// Traits is the content of a trait file.
type Traits struct {
	Strains []string
	Traits  []Trait
}

// Missing reports whether a trait column holds no measurement.
func Missing(s string) bool {
	switch s {
	case "", "x", "X", "NA", "NaN", "nan", "-":
		return true
	default:
		return false
	}
}

// ParseValue parses a single trait column. Infinite values are
// rejected with ErrNonFinite.
func ParseValue(s string) (float64, error) {
	if Missing(s) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNonFinite, s)
	}
	return v, nil
}

// Observed returns the entries of strainIndices and the trait values
// for which a measurement is present. strainIndices maps the strains of
// the trait file to the strains of a dataset.
func (trait *Trait) Observed(strainIndices []int) (strains []int, values []float64) {
	for i, v := range trait.Values {
		if math.IsNaN(v) {
			continue
		}
		strains = append(strains, strainIndices[i])
		values = append(values, v)
	}
	return strains, values
}

// ObservedWeighted is Observed for a trait with per-strain variances.
// A strain is dropped if either its measurement or its variance is
// missing. variances must have the strain order of the trait.
func (trait *Trait) ObservedWeighted(strainIndices []int, variances *Trait) (strains []int, values, weights []float64) {
	for i, v := range trait.Values {
		w := variances.Values[i]
		if math.IsNaN(v) || math.IsNaN(w) {
			continue
		}
		strains = append(strains, strainIndices[i])
		values = append(values, v)
		weights = append(weights, w)
	}
	return strains, values, weights
}

// Find returns the trait with the given name, or nil.
func (traits *Traits) Find(name string) *Trait {
	for i := range traits.Traits {
		if traits.Traits[i].Name == name {
			return &traits.Traits[i]
		}
	}
	return nil
}

// Parse parses a trait file.
func Parse(r io.Reader) (*Traits, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt32)
	result := &Traits{}
	haveHeader := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !haveHeader {
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !strings.HasPrefix(line, HeaderPrefix) {
				return nil, ErrMissingHeader
			}
			words := strings.Split(line, "\t")[1:]
			// A trailing tab leaves one empty column.
			if n := len(words); n > 0 && words[n-1] == "" {
				words = words[:n-1]
			}
			for _, s := range words {
				if s == "" {
					return nil, &LineError{Line: line, Err: ErrEmptyStrain}
				}
				result.Strains = append(result.Strains, s)
			}
			haveHeader = true
			continue
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		trait, err := result.parseTrait(line)
		if err != nil {
			return nil, err
		}
		result.Traits = append(result.Traits, trait)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !haveHeader {
		return nil, ErrMissingHeader
	}
	return result, nil
}

func (traits *Traits) parseTrait(line string) (Trait, error) {
	words := strings.Split(line, "\t")
	n := len(traits.Strains)
	// A trailing tab leaves one empty column.
	if len(words) == n+2 && words[n+1] == "" {
		words = words[:n+1]
	}
	// Trailing missing measurements may be left out.
	if len(words) < 2 || len(words) > n+1 {
		return Trait{}, &LineError{Line: line, Err: fmt.Errorf("expected %v columns, got %v", n+1, len(words))}
	}
	trait := Trait{Name: words[0], Values: make([]float64, n)}
	for i := range trait.Values {
		if i+1 >= len(words) {
			trait.Values[i] = math.NaN()
			continue
		}
		v, err := ParseValue(words[i+1])
		if err != nil {
			return Trait{}, &LineError{Line: line, Err: err}
		}
		trait.Values[i] = v
	}
	return trait, nil
}

// ReadFile parses a trait file, which may be gzip compressed.
func ReadFile(filename string) (traits *Traits, err error) {
	in, err := internal.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := in.Close(); nerr != nil {
			if err == nil {
				traits = nil
				err = nerr
			}
		}
	}()
	if traits, err = Parse(in); err != nil {
		return nil, fmt.Errorf("%w, while reading trait file %v", err, filename)
	}
	return traits, nil
}
