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

package cmd

import (
	"bufio"
	"io"
	"strconv"

	"github.com/exascience/elreaper/geno"
	"github.com/exascience/elreaper/qtl"
	"github.com/exascience/elreaper/utils"
)

// reportWriter writes mapping results as tab-separated lines, one per
// trait and locus.
type reportWriter struct {
	w         *bufio.Writer
	hasMb     bool
	dominance bool
	bootstrap bool
	buf       []byte
}

func newReportWriter(w io.Writer, dataset *geno.Dataset, bootstrap bool) *reportWriter {
	return &reportWriter{
		w:         bufio.NewWriter(w),
		hasMb:     dataset.HasMegaBasepair,
		dominance: dataset.Dominance(),
		bootstrap: bootstrap,
	}
}

func (r *reportWriter) writeHeader() error {
	buf := append(r.buf[:0], "ID\tLocus\tChr\tcM"...)
	if r.hasMb {
		buf = append(buf, "\tMb"...)
	}
	buf = append(buf, "\tLRS\tAdditive"...)
	if r.dominance {
		buf = append(buf, "\tDominance"...)
	}
	if r.bootstrap {
		buf = append(buf, "\tBootstrap"...)
	}
	buf = append(buf, "\tpValue\n"...)
	r.buf = buf
	_, err := r.w.Write(buf)
	return err
}

func appendFloat(buf []byte, f float64) []byte {
	return strconv.AppendFloat(buf, f, 'f', 3, 64)
}

// writeTrait writes the results of one trait. bootstrap holds the
// bootstrap counts per locus, and is ignored unless the writer reports
// them.
func (r *reportWriter) writeTrait(name string, qtls []qtl.QTL, bootstrap []int, permutations []float64) error {
	for i, q := range qtls {
		buf := append(r.buf[:0], name...)
		buf = append(buf, '\t')
		buf = append(buf, q.Marker.Name...)
		buf = append(buf, '\t')
		buf = append(buf, utils.SymbolString(q.Marker.Chromosome)...)
		buf = append(buf, '\t')
		buf = appendFloat(buf, q.Marker.CentiMorgan)
		if r.hasMb {
			buf = append(buf, '\t')
			if q.Marker.HasMegaBasepair {
				buf = appendFloat(buf, q.Marker.MegaBasepair)
			}
		}
		buf = append(buf, '\t')
		buf = appendFloat(buf, q.LRS)
		buf = append(buf, '\t')
		buf = appendFloat(buf, q.Additive)
		if r.dominance {
			buf = append(buf, '\t')
			if q.HasDominance {
				buf = appendFloat(buf, q.Dominance)
			}
		}
		if r.bootstrap {
			buf = append(buf, '\t')
			if i < len(bootstrap) {
				buf = strconv.AppendInt(buf, int64(bootstrap[i]), 10)
			}
		}
		buf = append(buf, '\t')
		buf = appendFloat(buf, qtl.PValue(q.LRS, permutations))
		buf = append(buf, '\n')
		r.buf = buf
		if _, err := r.w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (r *reportWriter) flush() error {
	return r.w.Flush()
}
