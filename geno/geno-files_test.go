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
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testGeno = `#comment line always start with a '#'
#@type:intercross
@type:riset
@name:BXD
#abbreviation of maternal or paternal parents
@mat:B
@pat:D
@het:H
@unk:U
Chr	Locus	cM	Mb	BXD1	BXD2	BXD5
2	D2Mit1	5.0	3.1	B	D	B
1	D1Mit1	8.3	4.0	B	B	D
2	D2Mit2	25.0	x	U	D	B

1	D1Mit2	20.0	12.5	D	B	D
`

func TestParseMetadataLine(t *testing.T) {
	if _, _, ok := ParseMetadataLine("#@type:intercross"); ok {
		t.Error("comment parsed as metadata")
	}
	if key, value, ok := ParseMetadataLine("@name:BXD"); !ok || key != "name" || value != "BXD" {
		t.Error("ParseMetadataLine failed")
	}
	if _, _, ok := ParseMetadataLine("#abbreviation of maternal or paternal parents"); ok {
		t.Error("comment parsed as metadata")
	}
}

func TestParseMetadata(t *testing.T) {
	metadata, err := ParseMetadata([]string{"@type:intercross", "@name:F2", "@mat:B6", "@pat:D", "@unk:-"})
	if err != nil {
		t.Fatal(err)
	}
	expected := Metadata{Name: "F2", Type: Intercross, Maternal: "B6", Paternal: "D", Heterozygous: "H", Unknown: "-"}
	if metadata != expected {
		t.Error("ParseMetadata failed", metadata)
	}
	var merr *MetadataError
	if _, err := ParseMetadata([]string{"@type:riset", "@name:BXD", "@mat:B6"}); !errors.As(err, &merr) || merr.Field != "pat" {
		t.Error("missing @pat not detected", err)
	}
	if _, err := ParseMetadata([]string{"@type:f3", "@name:BXD", "@mat:B6", "@pat:D"}); !errors.As(err, &merr) || merr.Value != "f3" {
		t.Error("invalid @type not detected", err)
	}
}

func TestParseHeader(t *testing.T) {
	hasMb, strains, err := ParseHeader("Chr\tLocus\tcM\tBXD1\tBXD2\tBXD5\tBXD6")
	if err != nil || hasMb || strings.Join(strains, ",") != "BXD1,BXD2,BXD5,BXD6" {
		t.Error("ParseHeader 1 failed", hasMb, strains, err)
	}
	hasMb, strains, err = ParseHeader("Chr\tLocus\tcM\tMb\tBXD1\tBXD2\tBXD5\tBXD6")
	if err != nil || !hasMb || strings.Join(strains, ",") != "BXD1,BXD2,BXD5,BXD6" {
		t.Error("ParseHeader 2 failed", hasMb, strains, err)
	}
	if _, _, err = ParseHeader("Chr\tLocus\tcM"); err == nil {
		t.Error("ParseHeader 3 failed")
	}
}

func TestParseGeno(t *testing.T) {
	dataset, err := ParseGeno(strings.NewReader(testGeno))
	if err != nil {
		t.Fatal(err)
	}
	if dataset.Name != "BXD" || dataset.Type != Riset || !dataset.HasMegaBasepair || len(dataset.Strains) != 3 {
		t.Error("ParseGeno dataset fields failed", dataset.Metadata)
	}
	chroms := dataset.Genome.Chromosomes
	if len(chroms) != 2 || *chroms[0].Name != "2" || *chroms[1].Name != "1" {
		t.Fatal("chromosomes not in first-seen order")
	}
	if len(chroms[0].Loci) != 2 || chroms[0].Loci[1].Marker.Name != "D2Mit2" {
		t.Error("loci of chromosome 2 failed")
	}
	if dataset.NLoci() != 4 {
		t.Error("NLoci failed", dataset.NLoci())
	}
	locus := dataset.Genome.FindLocus("D2Mit2")
	if locus == nil {
		t.Fatal("FindLocus failed")
	}
	if locus.Marker.HasMegaBasepair || locus.Marker.CentiMorgan != 25 {
		t.Error("marker positions failed", locus.Marker)
	}
	if locus.Genotypes[0] != Unknown || locus.Dosages[0] != UnknownDosage || locus.Dosages[1] != 1 {
		t.Error("genotypes failed", locus.Genotypes, locus.Dosages)
	}
	if dataset.Genome.FindLocus("nope") != nil {
		t.Error("FindLocus found a missing marker")
	}
	if err := dataset.EstimateUnknown(); err != nil {
		t.Fatal(err)
	}
	// D2Mit2 is the last locus of chromosome 2
	if locus.Genotypes[0] != Heterozygous || locus.Dosages[0] != 0 {
		t.Error("boundary fix failed", locus.Genotypes, locus.Dosages)
	}
}

func TestParseGenoErrors(t *testing.T) {
	if _, err := ParseGeno(strings.NewReader("@name:BXD\n")); err != ErrMissingHeader {
		t.Error("missing header not detected", err)
	}
	bad := strings.Replace(testGeno, "D1Mit2\t20.0\t12.5\tD", "D1Mit2\t20.0\t12.5\tQ", 1)
	var serr *SymbolError
	if _, err := ParseGeno(strings.NewReader(bad)); !errors.As(err, &serr) || serr.Symbol != "Q" {
		t.Error("unknown genotype symbol not detected", err)
	}
	short := strings.Replace(testGeno, "D1Mit2\t20.0\t12.5\tD\t", "D1Mit2\t20.0\t12.5\t", 1)
	var lerr *LineError
	if _, err := ParseGeno(strings.NewReader(short)); !errors.As(err, &lerr) {
		t.Error("short locus line not detected", err)
	}
}

func TestParseGenoIntercross(t *testing.T) {
	text := "@type:intercross\n@name:F2\n@mat:B\n@pat:D\nChr\tLocus\tcM\tF1\tF2\n1\tA\t0\tB\tH\n1\tB\t10\tU\tU\n1\tC\t20\tB\tH\t\n"
	dataset, err := ParseGeno(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if !dataset.Dominance() {
		t.Error("intercross dataset must model dominance")
	}
	locus := dataset.Genome.FindLocus("A")
	if locus.Dominance[0] != 0 || locus.Dominance[1] != 1 {
		t.Error("dominance coding failed", locus.Dominance)
	}
}

func TestReadGenoFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.geno.gz")
	file, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	w := gzip.NewWriter(file)
	if _, err := w.Write([]byte(testGeno)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}
	dataset, err := ReadGenoFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if err := dataset.Validate(); err != nil {
		t.Error("ReadGenoFile must estimate missing genotypes", err)
	}
	if _, err := ReadGenoFile(filepath.Join(t.TempDir(), "missing.geno")); err == nil {
		t.Error("ReadGenoFile on a missing file failed")
	}
}

func TestStrainIndices(t *testing.T) {
	dataset, err := ParseGeno(strings.NewReader(testGeno))
	if err != nil {
		t.Fatal(err)
	}
	indices, err := dataset.StrainIndices([]string{"BXD5", "BXD1"})
	if err != nil || len(indices) != 2 || indices[0] != 2 || indices[1] != 0 {
		t.Error("StrainIndices failed", indices, err)
	}
	var serr *StrainError
	if _, err := dataset.StrainIndices([]string{"BXD99"}); !errors.As(err, &serr) {
		t.Error("unknown strain not detected", err)
	}
}
