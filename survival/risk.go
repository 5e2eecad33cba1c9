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
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kshedden/statmodel/duration"
	"github.com/kshedden/statmodel/statmodel"
	"github.com/rs/zerolog"
)

// RiskModelResult holds the fitted Cox proportional hazards coefficient
// table, one entry per encoded covariate, plus the encoded covariate
// matrix the model was fit on. The matrix is retained because the
// attribution stage needs it.
type RiskModelResult struct {
	Names        []string  `json:"names"`
	Coefficients []float64 `json:"coefficients"`
	StdErrs      []float64 `json:"std_errs"`
	HazardRatios []float64 `json:"hazard_ratios"`
	LCB          []float64 `json:"lcb"`
	UCB          []float64 `json:"ucb"`
	ZScores      []float64 `json:"z_scores"`
	PValues      []float64 `json:"p_values"`

	// Encoded design, one column per name, in the same order as Names.
	Design [][]float64 `json:"-"`
}

// sortedLevels returns the distinct values of a categorical field over
// the subset, in sorted order. Sorting fixes the encoding layout so that
// repeated runs on identical input produce identical columns.
func sortedLevels(subset []*Patient, field string) []string {
	seen := map[string]bool{}
	var levels []string
	for _, p := range subset {
		v, _ := p.GroupValue(field)
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)
	return levels
}

// encodeCovariates one-hot encodes the categorical covariates of the
// subset and returns the covariate names with their columns. Identifier
// fields are excluded. For each categorical field the first sorted level
// is dropped as the reference level to avoid collinearity; the remaining
// indicator columns are named field_level, e.g. sex_M.
func encodeCovariates(subset []*Patient) ([]string, [][]float64) {
	n := len(subset)
	names := []string{AgeCol}
	age := make([]float64, n)
	for i, p := range subset {
		age[i] = float64(p.Age)
	}
	cols := [][]float64{age}
	for _, field := range GroupFields() {
		levels := sortedLevels(subset, field)
		for _, level := range levels[1:] {
			col := make([]float64, n)
			for i, p := range subset {
				if v, _ := p.GroupValue(field); v == level {
					col[i] = 1
				}
			}
			names = append(names, field+"_"+level)
			cols = append(cols, col)
		}
	}
	return names, cols
}

// countDistinctRows counts the distinct rows of the encoded design.
func countDistinctRows(cols [][]float64, n int) int {
	seen := map[string]bool{}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.Reset()
		for _, col := range cols {
			fmt.Fprintf(&sb, "%g|", col[i])
		}
		seen[sb.String()] = true
	}
	return len(seen)
}

// FitRiskModel one-hot encodes the covariates of the filtered subset and
// fits a Cox proportional hazards regression of duration on them, with
// event as the status indicator. It returns a FitError when the subset is
// empty, when the encoded design is rank deficient (fewer distinct rows
// than covariates), when no events were observed, or when the delegated
// solver fails to converge.
func FitRiskModel(subset []*Patient, log zerolog.Logger) (*RiskModelResult, error) {
	if len(subset) == 0 {
		return nil, &FitError{Reason: "empty subset"}
	}
	names, cols := encodeCovariates(subset)
	if distinct := countDistinctRows(cols, len(subset)); distinct < len(names) {
		return nil, &FitError{Reason: fmt.Sprintf(
			"rank-deficient design: %d distinct rows for %d encoded covariates", distinct, len(names))}
	}
	events := 0
	timeCol := make([]float64, len(subset))
	statusCol := make([]float64, len(subset))
	for i, p := range subset {
		timeCol[i] = p.Duration
		if p.Event {
			statusCol[i] = 1
			events++
		}
	}
	if events == 0 {
		return nil, &FitError{Reason: "no observed events in subset"}
	}

	da := append([][]float64{timeCol, statusCol}, cols...)
	varnames := append([]string{DurationCol, EventCol}, names...)
	ds := statmodel.NewDataset(da, varnames)

	model, err := duration.NewPHReg(ds, DurationCol, EventCol, names, nil)
	if err != nil {
		return nil, &FitError{Reason: "cannot construct model", Err: err}
	}
	rslt, err := model.Fit()
	if err != nil {
		return nil, &FitError{Reason: "solver did not converge", Err: err}
	}
	se := rslt.StdErr()
	if se == nil {
		return nil, &FitError{Reason: "covariance estimation failed"}
	}
	// a near-singular design can pass the distinct-rows check and still
	// produce non-finite standard errors
	for _, s := range se {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, &FitError{Reason: "covariance estimation failed"}
		}
	}

	params := rslt.Params()
	result := &RiskModelResult{
		Names:        names,
		Coefficients: params,
		StdErrs:      se,
		ZScores:      rslt.ZScores(),
		PValues:      rslt.PValues(),
		Design:       cols,
	}
	for j, b := range params {
		result.HazardRatios = append(result.HazardRatios, math.Exp(b))
		result.LCB = append(result.LCB, math.Exp(b-2*se[j]))
		result.UCB = append(result.UCB, math.Exp(b+2*se[j]))
	}
	log.Info().Int("patients", len(subset)).Int("events", events).
		Int("covariates", len(names)).Msg("fitted proportional hazards model")
	return result, nil
}
