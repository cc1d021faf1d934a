package export

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/stintplan/core/model"
)

// WriteHTML renders a bar chart of stints per participant and role.
func WriteHTML(w io.Writer, r *Report) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Stints per participant", Subtitle: r.Race.Start.UTC().Format(TimeLayout) + " UTC"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Participant"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Stints"}),
	)

	names := make([]string, 0, len(r.Race.Participants))
	var driving, spotting []opts.BarData
	for _, p := range r.Race.Participants {
		names = append(names, p.Name)
		driving = append(driving, opts.BarData{Value: r.Schedule.Count(p.Name, model.RoleDriving)})
		spotting = append(spotting, opts.BarData{Value: r.Schedule.Count(p.Name, model.RoleSpotting)})
	}
	bar.SetXAxis(names).AddSeries("Driving", driving)
	if r.HasSpotters() {
		bar.AddSeries("Spotting", spotting)
	}
	return bar.Render(w)
}
