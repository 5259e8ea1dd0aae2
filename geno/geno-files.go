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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/elreaper/internal"
	"github.com/exascience/elreaper/utils"
)

// HeaderPrefix starts the header line of a genotype file, which
// separates the metadata section from the locus lines.
const HeaderPrefix = "Chr\tLocus\tcM"

// Default symbols for heterozygous and unknown genotypes.
const (
	DefaultHeterozygous = "H"
	DefaultUnknown      = "U"
)

// ParseMetadataLine splits a "@key:value" line. Comment lines and
// lines without a leading '@' are not metadata.
func ParseMetadataLine(line string) (key, value string, ok bool) {
	if !strings.HasPrefix(line, "@") {
		return "", "", false
	}
	sep := strings.IndexByte(line, ':')
	if sep < 0 {
		return "", "", false
	}
	return line[1:sep], line[sep+1:], true
}

// ParseMetadata interprets the metadata lines of a genotype file. The
// @name, @type, @mat, and @pat fields are required; @het and @unk
// default to "H" and "U".
func ParseMetadata(lines []string) (Metadata, error) {
	metadata := Metadata{
		Heterozygous: DefaultHeterozygous,
		Unknown:      DefaultUnknown,
	}
	var typ string
	var haveName, haveType, haveMat, havePat bool
	for _, line := range lines {
		key, value, ok := ParseMetadataLine(line)
		if !ok {
			continue
		}
		switch key {
		case "name":
			metadata.Name, haveName = value, true
		case "type":
			typ, haveType = value, true
		case "mat":
			metadata.Maternal, haveMat = value, true
		case "pat":
			metadata.Paternal, havePat = value, true
		case "het":
			metadata.Heterozygous = value
		case "unk":
			metadata.Unknown = value
		}
	}
	switch {
	case !haveName:
		return metadata, &MetadataError{Field: "name"}
	case !haveType:
		return metadata, &MetadataError{Field: "type"}
	case !haveMat:
		return metadata, &MetadataError{Field: "mat"}
	case !havePat:
		return metadata, &MetadataError{Field: "pat"}
	}
	crossType, err := ParseCrossType(typ)
	if err != nil {
		return metadata, err
	}
	metadata.Type = crossType
	return metadata, nil
}

// ParseHeader splits the header line of a genotype file into the
// presence of a Mb column and the strain names.
func ParseHeader(line string) (hasMb bool, strains []string, err error) {
	words := strings.Split(line, "\t")
	if len(words) < 4 {
		return false, nil, fmt.Errorf("dataset header %q has less than four columns; no strains", line)
	}
	hasMb = words[3] == "Mb"
	skip := 3
	if hasMb {
		skip = 4
	}
	for _, s := range words[skip:] {
		if s != "" {
			strains = append(strains, s)
		}
	}
	if len(strains) == 0 {
		return false, nil, fmt.Errorf("dataset header %q lists no strains", line)
	}
	return hasMb, strains, nil
}

// ParseLocus parses a single locus line, for example
//
//	1	D1Mit1	8.3	B6	B6	D	D
//
// where the first three columns are chromosome, marker, and cM,
// optionally followed by Mb, and the remaining columns are genotypes.
func (dataset *Dataset) ParseLocus(line string) (*Locus, error) {
	words := strings.Split(line, "\t")
	skip := 3
	if dataset.HasMegaBasepair {
		skip = 4
	}
	expected := skip + len(dataset.Strains)
	if n := len(words); n == expected+1 && words[n-1] == "" {
		words = words[:n-1]
	}
	if len(words) != expected {
		return nil, &LineError{Line: line, Err: fmt.Errorf("expected %v columns, got %v", expected, len(words))}
	}
	cM, err := strconv.ParseFloat(words[2], 64)
	if err != nil {
		return nil, &LineError{Line: line, Err: err}
	}
	marker := Marker{
		Name:        words[1],
		CentiMorgan: cM,
		Chromosome:  utils.Intern(words[0]),
	}
	if dataset.HasMegaBasepair {
		if mb, err := strconv.ParseFloat(words[3], 64); err == nil {
			marker.MegaBasepair, marker.HasMegaBasepair = mb, true
		}
	}
	genotypes := make([]Genotype, len(dataset.Strains))
	for i, symbol := range words[skip:] {
		g, err := dataset.ParseGenotype(symbol)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		genotypes[i] = g
	}
	return NewLocus(marker, genotypes, dataset.Dominance()), nil
}

func skipLine(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

// ParseGeno parses a genotype file. Missing genotypes are left
// Unknown; see EstimateUnknown.
//
// Locus lines are parsed in parallel batches, but loci are added to
// the genome in file order.
func ParseGeno(r io.Reader) (dataset *Dataset, err error) {
	input := bufio.NewReader(r)
	var metadataLines []string
	var header string
	for {
		line, err := input.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, HeaderPrefix) {
			header = line
			break
		}
		if err == io.EOF {
			return nil, ErrMissingHeader
		} else if err != nil {
			return nil, err
		}
		metadataLines = append(metadataLines, line)
	}
	metadata, err := ParseMetadata(metadataLines)
	if err != nil {
		return nil, err
	}
	hasMb, strains, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}
	dataset = &Dataset{
		Metadata:        metadata,
		HasMegaBasepair: hasMb,
		Strains:         strains,
	}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		loci := make([]*Locus, 0, len(strs))
		for _, str := range strs {
			if skipLine(str) {
				continue
			}
			locus, err := dataset.ParseLocus(str)
			if err != nil {
				p.SetErr(err)
				return loci
			}
			loci = append(loci, locus)
		}
		return loci
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for _, locus := range data.([]*Locus) {
			dataset.Genome.AddLocus(locus)
		}
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return dataset, nil
}

// ReadGenoFile parses a genotype file, which may be gzip compressed,
// and estimates all of its missing genotypes.
func ReadGenoFile(filename string) (dataset *Dataset, err error) {
	in, err := internal.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := in.Close(); nerr != nil {
			if err == nil {
				dataset = nil
				err = nerr
			}
		}
	}()
	if dataset, err = ParseGeno(in); err != nil {
		return nil, fmt.Errorf("%w, while reading genotype file %v", err, filename)
	}
	if err = dataset.EstimateUnknown(); err != nil {
		return nil, fmt.Errorf("%w, while estimating missing genotypes in %v", err, filename)
	}
	return dataset, nil
}
