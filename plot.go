package forecaster

import (
	"errors"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/profithive/go-forecaster/timedataset"
)

var ErrNothingToPlot = errors.New("no history or predictions to plot")

// LineForecast generates an echart line chart of the history followed by the forecast and
// its uncertainty interval. Points without a value in a series are left empty.
func LineForecast(title string, history *timedataset.TimeDataset, res *ForecastResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	freq := FrequencyDaily
	if res != nil {
		freq = ParseFrequency(res.ModelMeta.Frequency)
	}

	var numHist, numPred int
	if history != nil {
		numHist = history.Len()
	}
	if res != nil {
		numPred = len(res.Predictions)
	}
	n := numHist + numPred

	xAxis := make([]string, 0, n)
	lineDataActual := make([]opts.LineData, 0, n)
	lineDataForecast := make([]opts.LineData, 0, n)
	lineDataUpper := make([]opts.LineData, 0, n)
	lineDataLower := make([]opts.LineData, 0, n)

	for i := 0; i < numHist; i++ {
		xAxis = append(xAxis, freq.Format(history.T[i]))
		lineDataActual = append(lineDataActual, opts.LineData{Value: history.Y[i]})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: "-"})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: "-"})
		lineDataLower = append(lineDataLower, opts.LineData{Value: "-"})
	}
	for i := 0; i < numPred; i++ {
		p := res.Predictions[i]
		xAxis = append(xAxis, p.DS)
		lineDataActual = append(lineDataActual, opts.LineData{Value: "-"})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: p.Yhat})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: p.YhatUpper})
		lineDataLower = append(lineDataLower, opts.LineData{Value: p.YhatLower})
	}

	line.SetXAxis(xAxis).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

// PlotForecast uses the Apache Echarts library to render an html page showing the history
// and the forecast with its uncertainty interval
func PlotForecast(w io.Writer, history *timedataset.TimeDataset, res *ForecastResult) error {
	if (history == nil || history.Len() == 0) && (res == nil || len(res.Predictions) == 0) {
		return ErrNothingToPlot
	}

	title := "Forecast"
	if res != nil && res.ModelMeta.RetailerID != nil {
		title = "Forecast " + *res.ModelMeta.RetailerID
	}

	page := components.NewPage()
	page.AddCharts(
		LineForecast(title, history, res),
	)
	return page.Render(w)
}
