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

// Package survival implements the filter-and-derive pipeline of the
// MedSurvive dashboard: filtering the loaded patient table, estimating
// Kaplan-Meier survival curves over the filtered subset, fitting a Cox
// proportional hazards risk model on one-hot encoded covariates, and
// deriving per-record attribution scores from the fitted model. The
// statistical estimation itself is delegated to the kshedden/statmodel
// duration package.
package survival

import (
	"fmt"
	"math"

	"github.com/kshedden/statmodel/duration"
	"github.com/kshedden/statmodel/statmodel"
	"github.com/rs/zerolog"
)

// AllPatientsLabel is the label of the single curve produced when no
// grouping field is requested.
const AllPatientsLabel = "All Patients"

// SurvivalCurve is a Kaplan-Meier survival step function for one patient
// group. The curve is anchored at (0, 1.0); Probs is non-increasing and
// stays within [0,1].
type SurvivalCurve struct {
	Label   string    `json:"label"`
	Times   []float64 `json:"times"`
	Probs   []float64 `json:"probs"`
	SE      []float64 `json:"se"`
	NumRisk []float64 `json:"num_risk"`
}

// GroupFields lists the categorical fields survival curves can be grouped
// by.
func GroupFields() []string {
	return []string{SexCol, DiagnosisCol, TreatmentCol}
}

// EstimateCurves computes Kaplan-Meier survival curves over the filtered
// subset. With an empty groupBy it produces exactly one curve labeled
// "All Patients". Otherwise it partitions the subset by the distinct
// values of the named categorical field, in first-seen order, and fits
// one curve per non-empty partition. An empty subset yields zero curves
// with a logged warning, not an error; only an unknown grouping field is
// an error.
func EstimateCurves(subset []*Patient, groupBy string, log zerolog.Logger) ([]SurvivalCurve, error) {
	if groupBy == "" {
		if len(subset) == 0 {
			log.Warn().Msg(EmptyResultWarning{Stage: "survival"}.String())
			return nil, nil
		}
		return []SurvivalCurve{estimateCurve(AllPatientsLabel, subset)}, nil
	}
	if _, ok := (&Patient{}).GroupValue(groupBy); !ok {
		return nil, fmt.Errorf("cannot group survival curves by field %q", groupBy)
	}
	if len(subset) == 0 {
		log.Warn().Msg(EmptyResultWarning{Stage: "survival"}.String())
		return nil, nil
	}
	// partition in first-seen order over the (order-preserving) subset
	var order []string
	groups := map[string][]*Patient{}
	for _, p := range subset {
		v, _ := p.GroupValue(groupBy)
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], p)
	}
	var curves []SurvivalCurve
	for _, label := range order {
		group := groups[label]
		if len(group) == 0 {
			log.Warn().Msg(EmptyResultWarning{Stage: "survival", Group: label}.String())
			continue
		}
		curves = append(curves, estimateCurve(label, group))
	}
	return curves, nil
}

// estimateCurve fits one Kaplan-Meier curve over a non-empty group of
// patients and anchors it at survival probability 1.0 at time 0.
func estimateCurve(label string, patients []*Patient) SurvivalCurve {
	times := make([]float64, len(patients))
	status := make([]float64, len(patients))
	for i, p := range patients {
		times[i] = p.Duration
		if p.Event {
			status[i] = 1
		}
	}
	data := statmodel.NewDataset([][]float64{times, status}, []string{DurationCol, EventCol})
	sf, err := duration.NewSurvfuncRight(data, DurationCol, EventCol, nil)
	if err != nil {
		// unreachable: both variables are present in the dataset built above
		panic(err)
	}
	sf.Fit()

	curve := SurvivalCurve{
		Label:   label,
		Times:   []float64{0},
		Probs:   []float64{1},
		SE:      []float64{0},
		NumRisk: []float64{float64(len(patients))},
	}
	curve.Times = append(curve.Times, sf.Time()...)
	curve.Probs = append(curve.Probs, sf.SurvProb()...)
	curve.SE = append(curve.SE, sf.SurvProbSE()...)
	curve.NumRisk = append(curve.NumRisk, sf.NumRisk()...)
	// the Greenwood SE degenerates to NaN at the last event time when
	// every patient still at risk has the event there; report 0 so the
	// curve stays encodable
	for i, se := range curve.SE {
		if math.IsNaN(se) || math.IsInf(se, 0) {
			curve.SE[i] = 0
		}
	}
	return curve
}
