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
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
)

// fitCohort builds a cohort where the only varying categorical is sex and
// males have systematically shorter durations, so the fit has a clear,
// well-conditioned signal.
func fitCohort(n int) []*Patient {
	rng := rand.New(rand.NewSource(4523))
	patients := []*Patient{}
	for i := 0; i < n; i++ {
		sex := "F"
		scale := 300.0
		if i%2 == 0 {
			sex = "M"
			scale = 100.0
		}
		duration := rng.ExpFloat64() * scale
		patients = append(patients, &Patient{
			PIDString:     "p",
			Age:           40 + i%30,
			Sex:           sex,
			DiagnosisCode: "I10",
			TreatmentType: "medical",
			Duration:      duration,
			Event:         i%5 != 0,
		})
	}
	return patients
}

func TestEncodingIsDeterministic(t *testing.T) {
	patients := []*Patient{
		{Age: 30, Sex: "M", DiagnosisCode: "I10", TreatmentType: "surgical", Duration: 1, Event: true},
		{Age: 40, Sex: "F", DiagnosisCode: "E11", TreatmentType: "medical", Duration: 2, Event: false},
	}
	names, cols := encodeCovariates(patients)
	// sorted level order, first level dropped as reference
	want := []string{"age", "sex_M", "diagnosis_code_I10", "treatment_type_surgical"}
	if len(names) != len(want) {
		t.Fatalf("unexpected covariates %v", names)
	}
	for j := range want {
		if names[j] != want[j] {
			t.Errorf("covariate %d: got %q, want %q", j, names[j], want[j])
		}
	}
	if cols[0][0] != 30 || cols[0][1] != 40 {
		t.Errorf("unexpected age column %v", cols[0])
	}
	if cols[1][0] != 1 || cols[1][1] != 0 {
		t.Errorf("unexpected sex_M column %v", cols[1])
	}

	names2, _ := encodeCovariates(patients)
	for j := range names {
		if names[j] != names2[j] {
			t.Error("repeated encoding produced a different column layout")
		}
	}
}

func TestSingleLevelCategoricalEncodesToNothing(t *testing.T) {
	patients := []*Patient{
		{Age: 30, Sex: "M", DiagnosisCode: "I10", TreatmentType: "medical", Duration: 1, Event: true},
		{Age: 40, Sex: "M", DiagnosisCode: "I10", TreatmentType: "medical", Duration: 2, Event: true},
	}
	names, _ := encodeCovariates(patients)
	if len(names) != 1 || names[0] != "age" {
		t.Errorf("expected only the age covariate, got %v", names)
	}
}

func TestFitEmptySubset(t *testing.T) {
	_, err := FitRiskModel(nil, zerolog.Nop())
	var fitErr *FitError
	if !errors.As(err, &fitErr) {
		t.Fatalf("expected a FitError, got %v", err)
	}
}

func TestFitRankDeficientSubset(t *testing.T) {
	// 3 rows but 1 + 1 + 2 + 2 = 6 encoded covariates
	patients := []*Patient{
		{Age: 30, Sex: "M", DiagnosisCode: "I10", TreatmentType: "medical", Duration: 1, Event: true},
		{Age: 40, Sex: "F", DiagnosisCode: "E11", TreatmentType: "surgical", Duration: 2, Event: true},
		{Age: 50, Sex: "M", DiagnosisCode: "J44", TreatmentType: "combined", Duration: 3, Event: true},
	}
	_, err := FitRiskModel(patients, zerolog.Nop())
	var fitErr *FitError
	if !errors.As(err, &fitErr) {
		t.Fatalf("expected a FitError, got %v", err)
	}
}

func TestFitAllCensored(t *testing.T) {
	patients := []*Patient{}
	for i := 0; i < 10; i++ {
		patients = append(patients, &Patient{
			Age: 40 + i, Sex: "M", DiagnosisCode: "I10", TreatmentType: "medical",
			Duration: float64(10 + i), Event: false,
		})
	}
	_, err := FitRiskModel(patients, zerolog.Nop())
	var fitErr *FitError
	if !errors.As(err, &fitErr) {
		t.Fatalf("expected a FitError, got %v", err)
	}
}

func TestFitConverges(t *testing.T) {
	patients := fitCohort(60)
	result, err := FitRiskModel(patients, zerolog.Nop())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if len(result.Names) != 2 || result.Names[0] != "age" || result.Names[1] != "sex_M" {
		t.Fatalf("unexpected covariates %v", result.Names)
	}
	for j := range result.Names {
		if math.IsNaN(result.Coefficients[j]) || math.IsInf(result.Coefficients[j], 0) {
			t.Errorf("coefficient %d is not finite", j)
		}
		if math.IsNaN(result.StdErrs[j]) || math.IsInf(result.StdErrs[j], 0) {
			t.Errorf("standard error %d is not finite", j)
		}
		if result.HazardRatios[j] <= 0 {
			t.Errorf("hazard ratio %d is not positive: %f", j, result.HazardRatios[j])
		}
		if result.PValues[j] < 0 || result.PValues[j] > 1 {
			t.Errorf("p-value %d outside [0,1]: %f", j, result.PValues[j])
		}
		if result.LCB[j] > result.HazardRatios[j] || result.UCB[j] < result.HazardRatios[j] {
			t.Errorf("confidence bounds %d do not bracket the hazard ratio", j)
		}
		if math.Abs(result.HazardRatios[j]-math.Exp(result.Coefficients[j])) > 1e-10 {
			t.Errorf("hazard ratio %d is not the exponentiated coefficient", j)
		}
	}
	// males have shorter durations, so sex_M should carry an elevated hazard
	if result.HazardRatios[1] <= 1 {
		t.Errorf("expected an elevated hazard ratio for sex_M, got %f", result.HazardRatios[1])
	}
	// the encoded design is retained for the attribution stage
	if len(result.Design) != 2 || len(result.Design[0]) != len(patients) {
		t.Error("fitted result does not retain its design matrix")
	}
}
