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

// Names of the required columns in the patient input table. The same names
// identify categorical fields when grouping survival curves.
const (
	PatientIDCol = "patient_id"
	AgeCol       = "age"
	SexCol       = "sex"
	DiagnosisCol = "diagnosis_code"
	TreatmentCol = "treatment_type"
	DurationCol  = "duration"
	EventCol     = "event"
)

// Patient represents one complete patient record. Records with missing
// fields are dropped during load, so every field is populated.
type Patient struct {
	PID           int     `json:"-"`              // analysis ID
	PIDString     string  `json:"patient_id"`     // ID from the source table
	Age           int     `json:"age"`            // age in years
	Sex           string  `json:"sex"`            // M or F
	DiagnosisCode string  `json:"diagnosis_code"` // ICD10 chapter code, e.g. I10
	TreatmentType string  `json:"treatment_type"` // surgical, medical, combined, non-invasive
	Duration      float64 `json:"duration"`       // time to event or censoring, >= 0
	Event         bool    `json:"event"`          // true if the event was observed, false if censored
}

// GroupValue returns the value of a categorical field of a patient. The
// second return value is false for fields that curves cannot be grouped by.
func (p *Patient) GroupValue(field string) (string, bool) {
	switch field {
	case SexCol:
		return p.Sex, true
	case DiagnosisCol:
		return p.DiagnosisCode, true
	case TreatmentCol:
		return p.TreatmentType, true
	}
	return "", false
}

// PatientTable holds the loaded patient records in source order, together
// with summary information gathered during load. The table is read-only
// after load; analysis subsets are fresh slices derived from Patients.
type PatientTable struct {
	Patients []*Patient
	Dropped  int // incomplete source rows discarded during load
	MinAge   int
	MaxAge   int
	Ctr      int // last assigned analysis ID, avoids using 0 as PID
	// Distinct levels of the categorical fields, in first-seen order.
	Sexes          []string
	DiagnosisCodes []string
	TreatmentTypes []string
}

// NewPatientTable returns an empty patient table.
func NewPatientTable() *PatientTable {
	return &PatientTable{
		Patients: []*Patient{},
		MinAge:   int(^uint(0) >> 1),
		MaxAge:   -1,
	}
}

// Add appends a patient to the table, assigns its analysis ID, and updates
// the age bounds and categorical level lists.
func (t *PatientTable) Add(p *Patient) {
	t.Ctr++
	p.PID = t.Ctr
	t.Patients = append(t.Patients, p)
	if p.Age < t.MinAge {
		t.MinAge = p.Age
	}
	if p.Age > t.MaxAge {
		t.MaxAge = p.Age
	}
	t.Sexes = appendLevel(t.Sexes, p.Sex)
	t.DiagnosisCodes = appendLevel(t.DiagnosisCodes, p.DiagnosisCode)
	t.TreatmentTypes = appendLevel(t.TreatmentTypes, p.TreatmentType)
}

// appendLevel appends a level to a list of levels, unless that level is
// already a member of that list.
func appendLevel(levels []string, level string) []string {
	for _, l := range levels {
		if l == level {
			return levels
		}
	}
	return append(levels, level)
}
