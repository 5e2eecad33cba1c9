// MedSurvive: Patient Survival & Risk Analysis Library
// Copyright (c) 2022 imec vzw.

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
// <https://github.com/ExaScience/medsurvive/blob/master/LICENSE.txt>.

package survival

import (
	"gonum.org/v1/gonum/stat"
)

// AttributionScores computes per-record, per-covariate contribution
// scores from a fitted risk model. For the linear log-hazard predictor of
// a proportional hazards model the exact attribution of covariate j to
// record i is coeff_j * (x_ij - mean_j): the shift of the record's linear
// predictor away from the subset average caused by that covariate. A
// record sitting at the covariate mean scores zero everywhere.
//
// It returns an AttributionError when the result lacks fitted
// coefficients or does not retain its design matrix. Callers report that
// error and skip the attribution view; it never aborts the pipeline.
func AttributionScores(r *RiskModelResult) ([][]float64, error) {
	if r == nil || len(r.Coefficients) == 0 {
		return nil, &AttributionError{Reason: "no fitted coefficients to explain"}
	}
	if len(r.Design) != len(r.Coefficients) {
		return nil, &AttributionError{Reason: "fitted model does not retain its design matrix"}
	}
	n := len(r.Design[0])
	means := make([]float64, len(r.Design))
	for j, col := range r.Design {
		if len(col) != n {
			return nil, &AttributionError{Reason: "design matrix columns have uneven lengths"}
		}
		means[j] = stat.Mean(col, nil)
	}
	scores := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(r.Design))
		for j, col := range r.Design {
			row[j] = r.Coefficients[j] * (col[i] - means[j])
		}
		scores[i] = row
	}
	return scores, nil
}
