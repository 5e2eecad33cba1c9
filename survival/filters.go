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

// PatientFilter decides whether a patient record is included in an
// analysis subset.
type PatientFilter func(p *Patient) bool

// FilterCriteria describes the patient selection of one pipeline run: an
// inclusive age range and accepted value sets for the three categorical
// fields. The four predicates are combined with logical AND. An empty
// value set selects no patients for that field, which yields an empty
// subset rather than an error.
type FilterCriteria struct {
	AgeMin, AgeMax int
	Sexes          map[string]bool
	DiagnosisCodes map[string]bool
	TreatmentTypes map[string]bool
}

// NewSet builds an accepted-value set for a categorical criterion.
func NewSet(values ...string) map[string]bool {
	set := map[string]bool{}
	for _, v := range values {
		set[v] = true
	}
	return set
}

// DefaultCriteria returns criteria that select the whole table: the full
// age range and every categorical level the table contains.
func DefaultCriteria(table *PatientTable) FilterCriteria {
	return FilterCriteria{
		AgeMin:         table.MinAge,
		AgeMax:         table.MaxAge,
		Sexes:          NewSet(table.Sexes...),
		DiagnosisCodes: NewSet(table.DiagnosisCodes...),
		TreatmentTypes: NewSet(table.TreatmentTypes...),
	}
}

// AgeRangeFilter selects patients whose age falls in [min,max], inclusive
// on both ends.
func AgeRangeFilter(min, max int) PatientFilter {
	return func(p *Patient) bool {
		return p.Age >= min && p.Age <= max
	}
}

// SexFilter selects patients whose sex is a member of the accepted set.
func SexFilter(accepted map[string]bool) PatientFilter {
	return func(p *Patient) bool {
		return accepted[p.Sex]
	}
}

// DiagnosisFilter selects patients whose diagnosis code is a member of the
// accepted set.
func DiagnosisFilter(accepted map[string]bool) PatientFilter {
	return func(p *Patient) bool {
		return accepted[p.DiagnosisCode]
	}
}

// TreatmentFilter selects patients whose treatment type is a member of the
// accepted set.
func TreatmentFilter(accepted map[string]bool) PatientFilter {
	return func(p *Patient) bool {
		return accepted[p.TreatmentType]
	}
}

// Filters returns the predicate closures for the criteria, one per field.
func (c FilterCriteria) Filters() []PatientFilter {
	return []PatientFilter{
		AgeRangeFilter(c.AgeMin, c.AgeMax),
		SexFilter(c.Sexes),
		DiagnosisFilter(c.DiagnosisCodes),
		TreatmentFilter(c.TreatmentTypes),
	}
}

// ApplyFilters returns the records that satisfy all given filters. The
// result is a fresh slice that preserves the source row order; the input
// is never mutated.
func ApplyFilters(patients []*Patient, filters []PatientFilter) []*Patient {
	subset := []*Patient{}
	for _, p := range patients {
		keep := true
		for _, filter := range filters {
			if !filter(p) {
				keep = false
				break
			}
		}
		if keep {
			subset = append(subset, p)
		}
	}
	return subset
}

// Apply filters a table with the given criteria. It is a pure function:
// applying the same criteria twice yields the same subset.
func Apply(table *PatientTable, criteria FilterCriteria) []*Patient {
	return ApplyFilters(table.Patients, criteria.Filters())
}
