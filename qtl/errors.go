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

package qtl

import (
	"errors"
	"fmt"
)

var (
	// ErrCompositeIntercross is returned for a control marker on an
	// intercross dataset, which has no composite regression.
	ErrCompositeIntercross = errors.New("no composite regression for intercross datasets")

	// ErrUnsupportedVariance is returned when trait variances are
	// combined with a control marker or an intercross dataset.
	ErrUnsupportedVariance = errors.New("trait variances are only supported for riset datasets without a control marker")

	// ErrLengthMismatch is returned when the traits, variances, and
	// strains of a request differ in length.
	ErrLengthMismatch = errors.New("traits, variances, and strains differ in length")
)

// A MarkerNotFoundError reports a control marker that is not part of
// the dataset.
type MarkerNotFoundError struct {
	Name string
}

func (err *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("control marker %v not found in dataset", err.Name)
}

// A StrainIndexError reports a strain index outside of the dataset.
type StrainIndexError struct {
	Index int
}

func (err *StrainIndexError) Error() string {
	return fmt.Sprintf("strain index %v out of range", err.Index)
}
