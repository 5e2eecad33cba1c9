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

package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"medsurvive/survival"

	"github.com/rs/zerolog"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "patients.csv")
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestParsePatientData(t *testing.T) {
	file := writeTestCSV(t, `patient_id,age,sex,diagnosis_code,treatment_type,duration,event
p1,64,M,I10,medical,120.5,1
p2,51,F,E11,surgical,300,0
p3,,F,J44,medical,100,1
p4,47,M,K21,combined,not-a-number,0
p5,39,F,I10,non-invasive,80,true
p6,70,M
`)
	table, err := ParsePatientData(file, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Patients) != 3 {
		t.Fatalf("expected 3 complete patients, got %d", len(table.Patients))
	}
	if table.Dropped != 3 {
		t.Errorf("expected 3 dropped rows, got %d", table.Dropped)
	}
	// source order is preserved and PIDs are sequential from 1
	for i, want := range []string{"p1", "p2", "p5"} {
		if table.Patients[i].PIDString != want {
			t.Errorf("patient %d: got %q, want %q", i, table.Patients[i].PIDString, want)
		}
		if table.Patients[i].PID != i+1 {
			t.Errorf("patient %d: unexpected PID %d", i, table.Patients[i].PID)
		}
	}
	p := table.Patients[0]
	if p.Age != 64 || p.Sex != "M" || p.DiagnosisCode != "I10" || p.Duration != 120.5 || !p.Event {
		t.Errorf("unexpected first patient %+v", p)
	}
	if !table.Patients[2].Event {
		t.Error("event spelled 'true' not recognized")
	}
	if table.MinAge != 39 || table.MaxAge != 64 {
		t.Errorf("unexpected age bounds [%d,%d]", table.MinAge, table.MaxAge)
	}
}

func TestParsePatientDataMissingColumn(t *testing.T) {
	file := writeTestCSV(t, `patient_id,age,sex,diagnosis_code,duration,event
p1,64,M,I10,120.5,1
`)
	_, err := ParsePatientData(file, zerolog.Nop())
	var loadErr *survival.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected a LoadError, got %v", err)
	}
}

func TestParsePatientDataUnreadableSource(t *testing.T) {
	_, err := ParsePatientData(filepath.Join(t.TempDir(), "missing.csv"), zerolog.Nop())
	var loadErr *survival.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected a LoadError, got %v", err)
	}
}

func TestParsePatientDataNegativeDurationDropped(t *testing.T) {
	file := writeTestCSV(t, `patient_id,age,sex,diagnosis_code,treatment_type,duration,event
p1,64,M,I10,medical,-5,1
p2,51,F,E11,surgical,300,0
`)
	table, err := ParsePatientData(file, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Patients) != 1 || table.Dropped != 1 {
		t.Errorf("expected the negative duration row to be dropped, got %d patients", len(table.Patients))
	}
}
