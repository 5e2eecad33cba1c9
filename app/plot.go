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
	"medsurvive/survival"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// RenderSurvivalPlot draws the survival curves as step lines, one series
// per curve, and saves the plot to a file. The image format follows the
// file extension (.png, .svg, .pdf).
func RenderSurvivalPlot(curves []survival.SurvivalCurve, title, file string) error {
	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = "Days"
	plt.Y.Label.Text = "Survival Probability"
	plt.Y.Min = 0
	plt.Y.Max = 1.05

	for i, curve := range curves {
		line, err := plotter.NewLine(stepPoints(curve))
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		plt.Add(line)
		plt.Legend.Add(curve.Label, line)
	}
	return plt.Save(6*vg.Inch, 4*vg.Inch, file)
}

// stepPoints expands a survival step function into plot points: a
// horizontal segment at each probability level followed by a vertical
// drop at the next event time.
func stepPoints(curve survival.SurvivalCurve) plotter.XYs {
	m := len(curve.Times)
	if m == 0 {
		return nil
	}
	pts := make(plotter.XYs, 0, 2*m-1)
	pts = append(pts, plotter.XY{X: curve.Times[0], Y: curve.Probs[0]})
	for i := 1; i < m; i++ {
		pts = append(pts, plotter.XY{X: curve.Times[i], Y: curve.Probs[i-1]})
		pts = append(pts, plotter.XY{X: curve.Times[i], Y: curve.Probs[i]})
	}
	return pts
}
