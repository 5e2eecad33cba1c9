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
	"testing"

	"github.com/rs/zerolog"
)

// fourPatientTable builds the small cohort used across the filter tests:
// ages 20/40/60/80, alternating sexes, one event per sex.
func fourPatientTable() *PatientTable {
	table := NewPatientTable()
	records := []*Patient{
		{PIDString: "p1", Age: 20, Sex: "M", DiagnosisCode: "I10", TreatmentType: "medical", Duration: 100, Event: true},
		{PIDString: "p2", Age: 40, Sex: "F", DiagnosisCode: "E11", TreatmentType: "surgical", Duration: 200, Event: false},
		{PIDString: "p3", Age: 60, Sex: "M", DiagnosisCode: "I10", TreatmentType: "medical", Duration: 150, Event: true},
		{PIDString: "p4", Age: 80, Sex: "F", DiagnosisCode: "J44", TreatmentType: "combined", Duration: 300, Event: false},
	}
	for _, p := range records {
		table.Add(p)
	}
	return table
}

func subsetIDs(subset []*Patient) []string {
	ids := []string{}
	for _, p := range subset {
		ids = append(ids, p.PIDString)
	}
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyAgeRange(t *testing.T) {
	table := fourPatientTable()
	criteria := DefaultCriteria(table)
	criteria.AgeMin = 30
	criteria.AgeMax = 70

	subset := Apply(table, criteria)
	if !sameIDs(subsetIDs(subset), []string{"p2", "p3"}) {
		t.Errorf("unexpected subset %v", subsetIDs(subset))
	}
	if subset[0].Age != 40 || subset[1].Age != 60 {
		t.Errorf("unexpected ages %d, %d", subset[0].Age, subset[1].Age)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	table := fourPatientTable()
	criteria := DefaultCriteria(table)
	criteria.AgeMin = 30
	criteria.AgeMax = 70
	criteria.Sexes = NewSet("M", "F")

	first := Apply(table, criteria)
	second := Apply(table, criteria)
	if !sameIDs(subsetIDs(first), subsetIDs(second)) {
		t.Errorf("filtering is not idempotent: %v vs %v", subsetIDs(first), subsetIDs(second))
	}
	// filtering an already filtered subset with the same criteria changes nothing
	third := ApplyFilters(first, criteria.Filters())
	if !sameIDs(subsetIDs(first), subsetIDs(third)) {
		t.Errorf("refiltering changed the subset: %v vs %v", subsetIDs(first), subsetIDs(third))
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	table := fourPatientTable()
	subset := Apply(table, DefaultCriteria(table))
	if !sameIDs(subsetIDs(subset), []string{"p1", "p2", "p3", "p4"}) {
		t.Errorf("source order not preserved: %v", subsetIDs(subset))
	}
}

func TestApplyDoesNotMutateTable(t *testing.T) {
	table := fourPatientTable()
	criteria := DefaultCriteria(table)
	criteria.Sexes = NewSet("M")
	Apply(table, criteria)
	if len(table.Patients) != 4 {
		t.Errorf("table mutated, %d patients left", len(table.Patients))
	}
}

func TestApplyEmptyCategoricalSelection(t *testing.T) {
	table := fourPatientTable()
	criteria := DefaultCriteria(table)
	criteria.Sexes = NewSet()

	subset := Apply(table, criteria)
	if len(subset) != 0 {
		t.Errorf("empty selection should yield an empty subset, got %d rows", len(subset))
	}
	// an empty subset yields zero curves and no error
	curves, err := EstimateCurves(subset, "", zerolog.Nop())
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(curves) != 0 {
		t.Errorf("expected zero curves, got %d", len(curves))
	}
}

func TestEndToEndFourRowScenario(t *testing.T) {
	table := fourPatientTable()
	criteria := DefaultCriteria(table)
	criteria.AgeMin = 30
	criteria.AgeMax = 70

	subset := Apply(table, criteria)
	if len(subset) != 2 {
		t.Fatalf("expected a 2-row subset, got %d rows", len(subset))
	}
	curves, err := EstimateCurves(subset, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(curves) != 1 {
		t.Fatalf("expected one curve, got %d", len(curves))
	}
	curve := curves[0]
	if curve.Label != AllPatientsLabel {
		t.Errorf("unexpected label %q", curve.Label)
	}
	if curve.Probs[0] != 1 {
		t.Errorf("curve does not start at 1.0: %f", curve.Probs[0])
	}
	for i := 1; i < len(curve.Probs); i++ {
		if curve.Probs[i] > curve.Probs[i-1] {
			t.Errorf("curve increases at index %d: %v", i, curve.Probs)
		}
	}
}
