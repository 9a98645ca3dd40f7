// Package chart renders compressor characteristic maps as standalone HTML
// pages: head isolines across the speed range clipped to the envelope,
// the surge and choke lines and the measured samples behind them.
package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/compstation/core/model"
)

// Options controls the sampling of the map.
type Options struct {
	// Isolines is the number of constant speed curves drawn across
	// [SpeedMin, SpeedMax].
	Isolines int
	// FlowPoints is the number of flow samples per curve.
	FlowPoints int
}

func (o *Options) setDefaults() {
	if o.Isolines <= 1 {
		o.Isolines = 5
	}
	if o.FlowPoints <= 1 {
		o.FlowPoints = 40
	}
}

// CharacteristicMap builds the flow/head map of c.
func CharacteristicMap(c *model.TurboCompressor, o Options) *charts.Line {
	o.setDefaults()
	lo, hi := flowDomain(c)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.ID, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: c.ID, Subtitle: fmt.Sprintf("drive %s, speed %g to %g per min", c.Drive, c.SpeedMin, c.SpeedMax)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "flow (m³/s)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "head (kJ/kg)", Type: "value"}),
	)

	top := 0.0
	for i := 0; i < o.Isolines; i++ {
		n := c.SpeedMin + (c.SpeedMax-c.SpeedMin)*float64(i)/float64(o.Isolines-1)
		pts := isoline(c, n, lo, hi, o.FlowPoints)
		top = math.Max(top, maxHead(pts))
		line.AddSeries(fmt.Sprintf("N=%.0f", n), pts)
	}
	if top == 0 {
		top = math.Inf(1)
	}
	line.AddSeries("surge", boundary(c.SurgeLine.Evaluate, lo, hi, top, o.FlowPoints))
	line.AddSeries("choke", boundary(c.ChokeLine.Evaluate, lo, hi, top, o.FlowPoints))

	scatter := charts.NewScatter()
	var surge []opts.ScatterData
	for _, s := range c.SurgeMeasurements {
		surge = append(surge, opts.ScatterData{Value: []float64{s.Flow, s.Head}})
	}
	scatter.AddSeries("surge samples", surge)
	var diagram []opts.ScatterData
	for _, curve := range c.Diagram.Curves() {
		for _, s := range curve.Samples {
			diagram = append(diagram, opts.ScatterData{Value: []float64{s.Flow, s.Head}})
		}
	}
	scatter.AddSeries("diagram samples", diagram)
	line.Overlap(scatter)
	return line
}

// RenderStation writes one map per turbo compressor of st. Piston units
// have no map and are skipped. It returns the number of maps written.
func RenderStation(w io.Writer, st *model.Station, o Options) (int, error) {
	page := components.NewPage()
	page.PageTitle = st.ID()
	var n int
	for _, c := range st.Compressors() {
		turbo, ok := c.(*model.TurboCompressor)
		if !ok {
			continue
		}
		page.AddCharts(CharacteristicMap(turbo, o))
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("station %s has no turbo compressor", st.ID())
	}
	if err := page.Render(w); err != nil {
		return 0, fmt.Errorf("render %s: %w", st.ID(), err)
	}
	return n, nil
}

// isoline samples the head at speed n, keeping only points inside the
// envelope.
func isoline(c *model.TurboCompressor, n, lo, hi float64, points int) []opts.LineData {
	var out []opts.LineData
	for i := 0; i < points; i++ {
		q := lo + (hi-lo)*float64(i)/float64(points-1)
		h := c.Head(n, q)
		if h <= 0 || h > c.SurgeLine.Evaluate(q) || h < c.ChokeLine.Evaluate(q) {
			continue
		}
		out = append(out, opts.LineData{Value: []float64{round(q), round(h)}})
	}
	return out
}

// boundary samples a limit line, dropping points above top so the line
// does not stretch the head axis past the isolines.
func boundary(f func(float64) float64, lo, hi, top float64, points int) []opts.LineData {
	out := make([]opts.LineData, 0, points)
	for i := 0; i < points; i++ {
		q := lo + (hi-lo)*float64(i)/float64(points-1)
		if h := f(q); h > 0 && h <= top {
			out = append(out, opts.LineData{Value: []float64{round(q), round(h)}})
		}
	}
	return out
}

func maxHead(pts []opts.LineData) float64 {
	var top float64
	for _, p := range pts {
		top = math.Max(top, p.Value.([]float64)[1])
	}
	return top
}

// flowDomain spans the measured flows with a margin on each side.
func flowDomain(c *model.TurboCompressor) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	see := func(q float64) {
		lo = math.Min(lo, q)
		hi = math.Max(hi, q)
	}
	for _, s := range c.SurgeMeasurements {
		see(s.Flow)
	}
	for _, curve := range c.Diagram.Curves() {
		for _, s := range curve.Samples {
			see(s.Flow)
		}
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	margin := 0.1 * (hi - lo)
	return math.Max(0, lo-margin), hi + margin
}

func round(v float64) float64 { return math.Round(v*1e4) / 1e4 }
