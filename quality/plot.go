package quality

import (
	"io"

	"github.com/soypat/grainmesh"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotSize is the side length of plots written by this package.
const PlotSize = 12 * vg.Centimeter

// Histogram writes a PNG histogram of values with the given number of bins.
func Histogram(w io.Writer, title, xlabel string, values []float64, bins int) error {
	if len(values) == 0 {
		return grainmesh.Errorf(grainmesh.MissingInput, "no values to plot for %q", title)
	}
	if bins < 1 {
		return grainmesh.Errorf(grainmesh.InvalidParameter, "histogram needs at least one bin, got %d", bins)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "count"
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return err
	}
	p.Add(h)
	wt, err := p.WriterTo(PlotSize, PlotSize, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// DistanceHistogram plots the distance field of a volume decimation.
// Nodes without distance are left out.
func DistanceHistogram(w io.Writer, dist []int32) error {
	var vals []float64
	var maxd int32
	for _, d := range dist {
		if d < 0 {
			continue
		}
		vals = append(vals, float64(d))
		if d > maxd {
			maxd = d
		}
	}
	return Histogram(w, "node distance to interfaces", "distance", vals, int(maxd)+1)
}

// DeviationHistogram plots the vertex deviation of a surface decimation.
func DeviationHistogram(w io.Writer, d Deviation, bins int) error {
	return Histogram(w, "vertex deviation", "distance", d.Distances, bins)
}
