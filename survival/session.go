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

import "github.com/rs/zerolog"

// Session holds the loaded patient table and the logger for one dashboard
// session. The table is read-only after load; every recompute derives
// fresh views from it. There is no module-level state, so sessions are
// independently testable.
type Session struct {
	Table *PatientTable
	Log   zerolog.Logger
}

// Result collects the outputs of one pipeline run. Stage-local failures
// are captured here instead of propagating: a failed curve estimation or
// model fit leaves its error in CurveErr or RiskErr while the other views
// remain populated.
type Result struct {
	Criteria FilterCriteria
	GroupBy  string
	Subset   []*Patient
	Curves   []SurvivalCurve
	CurveErr error
	Risk     *RiskModelResult
	RiskErr  error
}

// NewSession creates a session over a loaded patient table.
func NewSession(table *PatientTable, log zerolog.Logger) *Session {
	return &Session{Table: table, Log: log}
}

// Run executes the filter, survival, and risk stages synchronously, in
// order, against the session table. Each stage consumes the filtered
// subset produced by the filter stage; no stage mutates it. Errors from
// the survival and risk stages are captured in the Result.
func (s *Session) Run(criteria FilterCriteria, groupBy string) *Result {
	res := &Result{Criteria: criteria, GroupBy: groupBy}
	res.Subset = Apply(s.Table, criteria)
	if len(res.Subset) == 0 {
		s.Log.Warn().Msg(EmptyResultWarning{Stage: "filter"}.String())
	}
	res.Curves, res.CurveErr = EstimateCurves(res.Subset, groupBy, s.Log)
	if res.CurveErr != nil {
		s.Log.Warn().Err(res.CurveErr).Msg("survival curves unavailable")
	}
	res.Risk, res.RiskErr = FitRiskModel(res.Subset, s.Log)
	if res.RiskErr != nil {
		s.Log.Warn().Err(res.RiskErr).Msg("risk model unavailable")
	}
	return res
}

// Attribution derives attribution scores for the risk model of a previous
// run. It is invoked on demand only; a run never computes it implicitly.
func (s *Session) Attribution(res *Result) ([][]float64, error) {
	if res.Risk == nil {
		return nil, &AttributionError{Reason: "no fitted risk model"}
	}
	scores, err := AttributionScores(res.Risk)
	if err != nil {
		s.Log.Warn().Err(err).Msg("skipping attribution")
		return nil, err
	}
	return scores, nil
}
