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

import "sort"

// The glossaries and the treatment map are static reference tables. They
// are configuration data supplied at startup, never computed or mutated.

// TreatmentEntry maps a diagnosis code to a human-readable condition name
// with its recommended treatments and suggested procedures, in order of
// preference.
type TreatmentEntry struct {
	Condition  string   `json:"condition"`
	Treatments []string `json:"treatments"`
	Procedures []string `json:"procedures"`
}

// DiagnosisGlossary explains the known diagnosis codes in layman's terms.
var DiagnosisGlossary = map[string]string{
	"I10": "Essential (primary) hypertension: high blood pressure with no identifiable cause.",
	"E11": "Type 2 diabetes mellitus: chronic condition affecting the way the body processes blood sugar.",
	"J44": "Chronic obstructive pulmonary disease (COPD): a group of lung conditions that cause breathing difficulties.",
	"K21": "Gastroesophageal reflux disease (GERD): acid reflux that irritates the esophagus.",
	"N18": "Chronic kidney disease: gradual loss of kidney function over time.",
	"F41": "Anxiety disorders: a group of mental health disorders characterized by excessive fear or anxiety.",
	"M54": "Back pain: pain in the back often due to musculoskeletal issues.",
	"R51": "Headache: pain in any region of the head.",
}

// TreatmentGlossary explains the treatment types in layman's terms.
var TreatmentGlossary = map[string]string{
	"surgical":     "Involves physical interventions such as operations or procedures.",
	"medical":      "Uses drugs or medications to treat conditions.",
	"combined":     "Uses both surgical and medical treatments for comprehensive care.",
	"non-invasive": "Treatments that do not require entering the body or breaking the skin (e.g., therapy, lifestyle changes).",
}

// treatmentMap maps diagnosis codes to suggested treatments and
// procedures.
var treatmentMap = map[string]TreatmentEntry{
	"I10": {"Hypertension", []string{"ACE Inhibitors", "Beta Blockers"}, []string{"Blood Pressure Monitoring"}},
	"E11": {"Type 2 Diabetes", []string{"Insulin", "Metformin"}, []string{"HbA1c Test", "Retinal Screening"}},
	"J44": {"COPD", []string{"Bronchodilators", "Steroids"}, []string{"Pulmonary Function Test"}},
	"K21": {"GERD", []string{"Antacids", "PPIs"}, []string{"Endoscopy"}},
	"N18": {"Chronic Kidney Disease", []string{"Dialysis", "ACE Inhibitors"}, []string{"Creatinine Test", "GFR Measurement"}},
	"F41": {"Anxiety Disorders", []string{"SSRIs", "CBT"}, []string{"Psychiatric Evaluation"}},
	"M54": {"Back Pain", []string{"NSAIDs", "Physical Therapy"}, []string{"X-ray", "MRI"}},
	"R51": {"Headache", []string{"Analgesics", "Triptans"}, []string{"Neurological Exam"}},
}

// LookupTreatment returns the treatment entry for a diagnosis code. The
// boolean is false for codes outside the static vocabulary; that is a
// normal empty state, not an error.
func LookupTreatment(code string) (TreatmentEntry, bool) {
	entry, ok := treatmentMap[code]
	return entry, ok
}

// DiagnosisCodes returns the known diagnosis codes in sorted order.
func DiagnosisCodes() []string {
	codes := make([]string, 0, len(treatmentMap))
	for code := range treatmentMap {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// TreatmentTypes returns the known treatment types in sorted order.
func TreatmentTypes() []string {
	types := make([]string, 0, len(TreatmentGlossary))
	for t := range TreatmentGlossary {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
