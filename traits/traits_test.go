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

package traits

import (
	"compress/gzip"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testTraits = "Trait\tBXD1\tBXD2\tBXD5\tBXD6\n" +
	"# expression of a transcript\n" +
	"T1\t5.742\t5.006\tx\t6.079\n" +
	"T2\tNA\t7.5\t8.25\t\n" +
	"\n" +
	"T3\t1\t2\n"

func TestParse(t *testing.T) {
	traits, err := Parse(strings.NewReader(testTraits))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(traits.Strains, ",") != "BXD1,BXD2,BXD5,BXD6" {
		t.Error("strains failed", traits.Strains)
	}
	if len(traits.Traits) != 3 {
		t.Fatal("number of traits failed", len(traits.Traits))
	}
	t1 := traits.Traits[0]
	if t1.Name != "T1" || t1.Values[0] != 5.742 || !math.IsNaN(t1.Values[2]) || t1.Values[3] != 6.079 {
		t.Error("T1 failed", t1)
	}
	t2 := traits.Find("T2")
	if t2 == nil || !math.IsNaN(t2.Values[0]) || t2.Values[2] != 8.25 || !math.IsNaN(t2.Values[3]) {
		t.Error("T2 failed", t2)
	}
	t3 := traits.Find("T3")
	if t3 == nil || t3.Values[1] != 2 || !math.IsNaN(t3.Values[2]) || !math.IsNaN(t3.Values[3]) {
		t.Error("T3 failed", t3)
	}
	if traits.Find("T4") != nil {
		t.Error("Find failed")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("Locus\tBXD1\n")); err != ErrMissingHeader {
		t.Error("missing header not detected", err)
	}
	if _, err := Parse(strings.NewReader("")); err != ErrMissingHeader {
		t.Error("empty file not detected", err)
	}
	var lerr *LineError
	if _, err := Parse(strings.NewReader("Trait\tA\tB\nT1\t1\tfoo\n")); !errors.As(err, &lerr) {
		t.Error("bad value not detected", err)
	}
	if _, err := Parse(strings.NewReader("Trait\tA\tB\nT1\t1\t2\t3\n")); !errors.As(err, &lerr) {
		t.Error("extra column not detected", err)
	}
	for _, header := range []string{"Trait\tA\t\tB\n", "Trait\t\tA\tB\n", "Trait\tA\tB\t\t\n"} {
		if _, err := Parse(strings.NewReader(header + "T1\t1\t2\n")); !errors.As(err, &lerr) || !errors.Is(err, ErrEmptyStrain) {
			t.Errorf("empty strain in header %q not detected: %v", header, err)
		}
	}
	for _, value := range []string{"Inf", "-inf", "+Infinity", "1e400"} {
		if _, err := Parse(strings.NewReader("Trait\tA\tB\nT1\t1\t" + value + "\n")); !errors.As(err, &lerr) {
			t.Errorf("non-finite value %q not detected: %v", value, err)
		}
	}
}

func TestParseHeaderTrailingTab(t *testing.T) {
	traits, err := Parse(strings.NewReader("Trait\tA\tB\t\nT1\t1\t2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(traits.Strains, ",") != "A,B" {
		t.Error("header with trailing tab failed", traits.Strains)
	}
}

func TestParseValue(t *testing.T) {
	if v, err := ParseValue("-1.5"); err != nil || v != -1.5 {
		t.Error("ParseValue failed", v, err)
	}
	if v, err := ParseValue("NA"); err != nil || !math.IsNaN(v) {
		t.Error("ParseValue of missing value failed", v, err)
	}
	if _, err := ParseValue("Inf"); !errors.Is(err, ErrNonFinite) {
		t.Error("ParseValue of infinite value failed", err)
	}
}

func TestObserved(t *testing.T) {
	trait := Trait{Name: "T", Values: []float64{1, math.NaN(), 3, math.NaN()}}
	strains, values := trait.Observed([]int{7, 5, 3, 1})
	if len(strains) != 2 || strains[0] != 7 || strains[1] != 3 {
		t.Error("Observed strains failed", strains)
	}
	if len(values) != 2 || values[0] != 1 || values[1] != 3 {
		t.Error("Observed values failed", values)
	}
}

func TestObservedWeighted(t *testing.T) {
	trait := Trait{Name: "T", Values: []float64{1, math.NaN(), 3, 4}}
	variances := Trait{Name: "T", Values: []float64{0.5, 0.5, math.NaN(), 2}}
	strains, values, weights := trait.ObservedWeighted([]int{7, 5, 3, 1}, &variances)
	if len(strains) != 2 || strains[0] != 7 || strains[1] != 1 {
		t.Error("ObservedWeighted strains failed", strains)
	}
	if len(values) != 2 || values[0] != 1 || values[1] != 4 {
		t.Error("ObservedWeighted values failed", values)
	}
	if len(weights) != 2 || weights[0] != 0.5 || weights[1] != 2 {
		t.Error("ObservedWeighted variances failed", weights)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "traits.txt")
	if err := os.WriteFile(plain, []byte(testTraits), 0666); err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "traits.txt.gz")
	file, err := os.Create(compressed)
	if err != nil {
		t.Fatal(err)
	}
	w := gzip.NewWriter(file)
	if _, err := w.Write([]byte(testTraits)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}
	for _, filename := range []string{plain, compressed} {
		traits, err := ReadFile(filename)
		if err != nil {
			t.Fatal(err)
		}
		if len(traits.Traits) != 3 {
			t.Error("ReadFile failed", filename)
		}
	}
}
