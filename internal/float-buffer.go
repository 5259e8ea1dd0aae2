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

package internal

import "sync"

var floatPool = sync.Pool{New: func() interface{} {
	return []float64(nil)
}}

/*
ReserveFloat64Buffer uses a sync.Pool to either reuse or make a slice
of float64 values of length n.

The contents of the returned slice are unspecified. Use
ReleaseFloat64Buffer to return slices to the internal pool.
*/
func ReserveFloat64Buffer(n int) []float64 {
	buf := floatPool.Get().([]float64)
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

/*
ReleaseFloat64Buffer returns the given slice of float64 values to the
internal sync.Pool from which ReserveFloat64Buffer can fetch it again.
*/
func ReleaseFloat64Buffer(buf []float64) {
	floatPool.Put(buf[:0])
}
