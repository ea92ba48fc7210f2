// Package viz renders training diagnostics. Its only product today is the
// validation-metric learning curve emitted after a boosting run.
package viz

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/glassboost/pkg/errors"
)

// SaveLearningCurve writes a line chart of the per-round validation metric
// to a PNG file.
func SaveLearningCurve(path, title, metricName string, values []float64) error {
	if len(values) == 0 {
		return errors.NewValueError("viz.SaveLearningCurve", "no metric values")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "round"
	p.Y.Label.Text = metricName

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "viz.SaveLearningCurve")
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "viz.SaveLearningCurve")
	}
	return nil
}
