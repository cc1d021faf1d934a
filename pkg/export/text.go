package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kilianp07/stintplan/core/itinerary"
)

// LocalLayout formats itinerary start times.
const LocalLayout = "2006-01-02 15:04"

// WriteTXT writes the plain text report: summaries, the master schedule,
// the hourly grid and every member's local itinerary.
func WriteTXT(w io.Writer, r *Report) error {
	var b strings.Builder

	section(&b, "DRIVER SUMMARY")
	drivers := newTable()
	drivers.AppendHeader(table.Row{"Driver", "Total Stints", "Total Laps"})
	for _, s := range r.Drivers {
		drivers.AppendRow(table.Row{s.Name, s.Stints, s.Laps})
	}
	b.WriteString(drivers.Render() + "\n")

	if len(r.Spotters) > 0 {
		section(&b, "SPOTTER SUMMARY")
		spotters := newTable()
		spotters.AppendHeader(table.Row{"Spotter", "Total Stints"})
		for _, s := range r.Spotters {
			spotters.AppendRow(table.Row{s.Name, s.Stints})
		}
		b.WriteString(spotters.Render() + "\n")
	}

	section(&b, "MASTER SCHEDULE (UTC)")
	master := newTable()
	master.AppendHeader(toRow(masterHeader(r.HasSpotters())))
	for i := range r.Schedule {
		master.AppendRow(toRow(masterRow(r, i)))
	}
	b.WriteString(master.Render() + "\n")

	if len(r.Hourly) > 0 {
		section(&b, "HOURLY SUMMARY (HOURS FROM RACE START)")
		b.WriteString(hourlyTable(r.Hourly) + "\n")
	}

	section(&b, "MEMBER ITINERARIES (LOCAL TIME)")
	writeItineraries(&b, r)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteItineraries writes only the per-member local itineraries.
func WriteItineraries(w io.Writer, r *Report) error {
	var b strings.Builder
	writeItineraries(&b, r)
	_, err := io.WriteString(w, strings.TrimPrefix(b.String(), "\n"))
	return err
}

func writeItineraries(b *strings.Builder, r *Report) {
	for _, p := range r.Race.Participants {
		duties := r.Itinerary[p.Name]
		if len(duties) == 0 {
			continue
		}
		fmt.Fprintf(b, "\n--- Itinerary for %s ---\n", p.Name)
		for _, d := range duties {
			line := fmt.Sprintf("  %s to %s -> %s %s", d.Start.Format(LocalLayout), d.End.Format("15:04"),
				itinerary.Label(d), itinerary.FormatDuration(d.Duration()))
			b.WriteString(strings.TrimRight(line, " ") + "\n")
		}
	}
}

func section(b *strings.Builder, title string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "--- %s ---\n", title)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func hourlyTable(rows []itinerary.HourlyRow) string {
	t := newTable()
	header := table.Row{"Member", "TZ"}
	for h := range rows[0].Hours {
		header = append(header, strconv.Itoa(h+1))
	}
	t.AppendHeader(header)
	for _, r := range rows {
		row := table.Row{r.Name, fmt.Sprintf("%+d", r.Timezone)}
		for _, a := range r.Hours {
			row = append(row, itinerary.Code(a))
		}
		t.AppendRow(row)
	}
	return t.Render()
}
