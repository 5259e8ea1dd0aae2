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

import "math"

// A Result is the outcome of a regression at a single locus.
//
// LRS is the likelihood ratio statistic, and is never negative.
// Additive is the fitted slope of the trait against the genotype
// dosage. Covariate is the slope of the covariate in the three
// parameter fits; for an intercross it is the dominance effect.
type Result struct {
	LRS       float64
	Additive  float64
	Covariate float64
}

// clamp resets a fit whose likelihood ratio is undefined or negative.
func clamp(lrs float64) bool {
	return math.IsNaN(lrs) || lrs < 0
}

// Regress fits traits = a + b*genotypes by least squares and compares
// the residual sum of squares against the total sum of squares.
func Regress(traits, genotypes []float64) Result {
	var sy, syy, sx, sxx, sxy float64
	for i, y := range traits {
		x := genotypes[i]
		sy += y
		syy += y * y
		sxy += y * x
		sx += x
		sxx += x * x
	}
	n := float64(len(traits))

	d := sxx - sx*sx/n
	tss := syy - sy*sy/n
	a := (sxx*sy - sx*sxy) / (n * d)
	b := (sxy - sx*sy/n) / d
	rss := syy + a*(n*a-2*sy) + b*(2*a*sx+b*sxx-2*sxy)

	lrs := n * math.Log(tss/rss)
	if clamp(lrs) {
		return Result{}
	}
	return Result{LRS: lrs, Additive: b}
}

// RegressWeighted is Regress with each observation weighted by the
// inverse of its variance. The LRS is still scaled by the number of
// observations.
func RegressWeighted(traits, genotypes, variances []float64) Result {
	var s1v, syv, syyv, sxv, sxxv, sxyv float64
	for i, y := range traits {
		v := 1 / variances[i]
		x := genotypes[i]
		s1v += v
		yv := y * v
		syv += yv
		syyv += y * yv
		sxyv += yv * x
		xv := x * v
		sxv += xv
		sxxv += xv * x
	}
	n := float64(len(traits))

	d := sxxv - sxv*sxv/s1v
	tss := syyv - syv*syv/s1v
	a := (sxxv*syv - sxv*sxyv) / (s1v * d)
	b := (sxyv - sxv*syv/s1v) / d
	rss := syyv + a*(s1v*a-2*syv) + b*(2*a*sxv+b*sxxv-2*sxyv)

	lrs := n * math.Log(tss/rss)
	if clamp(lrs) {
		return Result{}
	}
	return Result{LRS: lrs, Additive: b}
}

// RegressCovariate fits traits = k + x*genotypes + c*covariates.
//
// With diff set, the full fit is compared against the fit on the
// covariate alone, which tests the locus given a control marker.
// Otherwise it is compared against the total sum of squares, which
// tests additive and dominance effects jointly.
//
// A clamped fit resets both Additive and Covariate.
func RegressCovariate(traits, genotypes, covariates []float64, diff bool) Result {
	var sc, sx, sy, scc, sxx, syy, sxc, scy, sxy float64
	for i, y := range traits {
		c := covariates[i]
		x := genotypes[i]
		sc += c
		sx += x
		sy += y
		scc += c * c
		sxx += x * x
		syy += y * y
		sxc += c * x
		scy += y * c
		sxy += y * x
	}
	n := float64(len(traits))

	temp0 := sxc*sxc - scc*sxx
	temp1 := sc*sxx - sx*sxc
	temp2 := sx*scc - sc*sxc
	temp3 := sx*sx - n*sxx
	temp4 := n*sxc - sc*sx
	temp5 := sc*sc - n*scc
	temp6 := temp4*sxc + temp2*sx + temp5*sxx

	betak := (temp0*sy + temp1*scy + temp2*sxy) / temp6
	betac := (temp1*sy + temp3*scy + temp4*sxy) / temp6
	betax := (temp2*sy + temp4*scy + temp5*sxy) / temp6

	ssf := syy +
		betac*(betac*scc-2*scy) +
		betax*(betax*sxx-2*sxy) +
		2*betac*betax*sxc +
		betak*(n*betak+2*betac*sc+2*betax*sx-2*sy)

	var ssr float64
	if diff {
		d := scc - sc*sc/n
		a := (scc*sy - sc*scy) / (n * d)
		b := (scy - sc*sy/n) / d
		ssr = syy + a*(n*a-2*sy) + b*(2*a*sc+b*scc-2*scy)
	} else {
		ssr = syy - sy*sy/n
	}

	lrs := n * math.Log(ssr/ssf)
	if clamp(lrs) {
		return Result{}
	}
	return Result{LRS: lrs, Additive: betax, Covariate: betac}
}
