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

import "fmt"

// LoadError reports a patient table source that could not be read or that
// is missing required columns. A LoadError is fatal to the session; there
// is no table to analyze without a loadable source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load patient data from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FitError reports a risk model that could not be fit: an empty subset, a
// rank-deficient design, or a solver that failed to converge. A FitError
// only disables the risk model view; the other views stay usable.
type FitError struct {
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("risk model fit failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("risk model fit failed: %s", e.Reason)
}

func (e *FitError) Unwrap() error { return e.Err }

// AttributionError reports that attribution scores could not be derived
// from a fitted risk model. It skips only the attribution sub-view.
type AttributionError struct {
	Reason string
}

func (e *AttributionError) Error() string {
	return fmt.Sprintf("attribution unavailable: %s", e.Reason)
}

// EmptyResultWarning marks a filter or partition that produced no rows.
// It is logged and surfaced as an empty result, never raised as an error.
type EmptyResultWarning struct {
	Stage string
	Group string
}

func (w EmptyResultWarning) String() string {
	if w.Group != "" {
		return fmt.Sprintf("%s: group %q has no rows, skipping", w.Stage, w.Group)
	}
	return fmt.Sprintf("%s: no rows after filtering", w.Stage)
}
