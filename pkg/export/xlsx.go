package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/stintplan/core/itinerary"
	"github.com/kilianp07/stintplan/core/model"
)

const (
	summarySheet = "Summaries"
	masterSheet  = "Master Schedule (UTC)"
	// slot is the resolution of the member calendar sheets.
	slot = 15 * time.Minute
)

var activityFill = map[model.Activity]string{
	model.ActivityDriving:  "C6EFCE",
	model.ActivitySpotting: "FFEB9C",
	model.ActivityResting:  "F2F2F2",
}

type workbook struct {
	f     *excelize.File
	bold  int
	fills map[model.Activity]int
}

// WriteXLSX writes a workbook with the summaries, the master schedule and
// one 15-minute calendar sheet per member.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	wb := &workbook{f: f, fills: make(map[model.Activity]int)}
	var err error
	if wb.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return err
	}
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	for act, color := range activityFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		})
		if err != nil {
			return err
		}
		wb.fills[act] = id
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := wb.summaries(r); err != nil {
		return fmt.Errorf("summaries: %w", err)
	}
	if err := wb.master(r); err != nil {
		return fmt.Errorf("master schedule: %w", err)
	}
	used := map[string]bool{summarySheet: true, masterSheet: true}
	for _, p := range r.Race.Participants {
		duties := r.Itinerary[p.Name]
		if len(duties) == 0 {
			continue
		}
		name := SheetName(p.Name, used)
		if err := wb.calendar(name, p.Name, duties); err != nil {
			return fmt.Errorf("calendar %s: %w", p.Name, err)
		}
	}
	return f.Write(w)
}

func (wb *workbook) row(sheet string, row int, values []any, bold bool) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := wb.f.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	if !bold || len(values) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return wb.f.SetCellStyle(sheet, cell, last, wb.bold)
}

func (wb *workbook) summaries(r *Report) error {
	sheet := summarySheet
	if err := wb.row(sheet, 1, []any{"Driver Summary"}, true); err != nil {
		return err
	}
	if err := wb.row(sheet, 2, []any{"Driver", "Total Stints", "Total Laps"}, true); err != nil {
		return err
	}
	row := 3
	for _, s := range r.Drivers {
		if err := wb.row(sheet, row, []any{s.Name, s.Stints, s.Laps}, false); err != nil {
			return err
		}
		row++
	}
	if r.HasSpotters() {
		row++
		if err := wb.row(sheet, row, []any{"Spotter Summary"}, true); err != nil {
			return err
		}
		if err := wb.row(sheet, row+1, []any{"Spotter", "Total Stints"}, true); err != nil {
			return err
		}
		row += 2
		for _, s := range r.Spotters {
			if err := wb.row(sheet, row, []any{s.Name, s.Stints}, false); err != nil {
				return err
			}
			row++
		}
	}
	return wb.f.SetColWidth(sheet, "A", "C", 25)
}

func (wb *workbook) master(r *Report) error {
	if _, err := wb.f.NewSheet(masterSheet); err != nil {
		return err
	}
	header := masterHeader(r.HasSpotters())
	if err := wb.row(masterSheet, 1, toAny(header), true); err != nil {
		return err
	}
	for i, a := range r.Schedule {
		values := []any{a.Stint.Number(), a.Stint.Start.UTC().Format(TimeLayout), a.Stint.End.UTC().Format(TimeLayout), a.Driver}
		if r.HasSpotters() {
			values = append(values, a.Spotter)
		}
		values = append(values, a.Stint.Laps)
		if err := wb.row(masterSheet, i+2, values, false); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return wb.f.SetColWidth(masterSheet, "A", lastCol, 25)
}

// calendar lays the itinerary on a grid of 15-minute rows by local date
// columns.
func (wb *workbook) calendar(sheet, member string, duties []model.DutyInterval) error {
	if _, err := wb.f.NewSheet(sheet); err != nil {
		return err
	}
	if err := wb.row(sheet, 1, []any{"Schedule for " + member}, true); err != nil {
		return err
	}
	days := CalendarDays(duties)
	header := []any{"Time (Local)"}
	for _, d := range days {
		header = append(header, d.Format("2006-01-02"))
	}
	if err := wb.row(sheet, 2, header, true); err != nil {
		return err
	}
	slots := int(24 * time.Hour / slot)
	for s := 0; s < slots; s++ {
		row := s + 3
		offset := time.Duration(s) * slot
		label := fmt.Sprintf("%02d:%02d", int(offset.Hours()), int(offset.Minutes())%60)
		if err := wb.row(sheet, row, []any{label}, false); err != nil {
			return err
		}
		for c, day := range days {
			from := day.Add(offset)
			d := SlotDuty(duties, from, from.Add(slot))
			cell, err := excelize.CoordinatesToCellName(c+2, row)
			if err != nil {
				return err
			}
			if err := wb.f.SetCellValue(sheet, cell, itinerary.Label(d)); err != nil {
				return err
			}
			if err := wb.f.SetCellStyle(sheet, cell, cell, wb.fills[d.Activity]); err != nil {
				return err
			}
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(days) + 1)
	if err != nil {
		return err
	}
	return wb.f.SetColWidth(sheet, "A", lastCol, 25)
}

// CalendarDays returns local midnights from the first duty's date to the
// last duty's date. An itinerary ending exactly at midnight does not open a
// new day.
func CalendarDays(duties []model.DutyInterval) []time.Time {
	if len(duties) == 0 {
		return nil
	}
	first, last := duties[0].Start, duties[len(duties)-1].End
	loc := first.Location()
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	end := last.In(loc)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	if end.Equal(endDay) && endDay.After(day) {
		endDay = endDay.AddDate(0, 0, -1)
	}
	var out []time.Time
	for !day.After(endDay) {
		out = append(out, day)
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// SlotDuty returns the first duty overlapping [from, to), or rest.
func SlotDuty(duties []model.DutyInterval, from, to time.Time) model.DutyInterval {
	for _, d := range duties {
		if d.Start.Before(to) && d.End.After(from) {
			return d
		}
	}
	return model.DutyInterval{Activity: model.ActivityResting, Start: from, End: to}
}

// SheetName makes a valid, unique worksheet name of at most 30 characters.
func SheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = "Member"
	}
	if r := []rune(clean); len(r) > 30 {
		clean = string(r[:30])
	}
	out := clean
	for i := 2; used[out]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		r := []rune(clean)
		if len(r)+len(suffix) > 30 {
			r = r[:30-len(suffix)]
		}
		out = string(r) + suffix
	}
	used[out] = true
	return out
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
