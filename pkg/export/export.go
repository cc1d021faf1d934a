package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Format names a report output.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatICS  Format = "ics"
)

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatTXT, FormatXLSX, FormatHTML, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to xlsx.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatXLSX
	}
	return f
}

// Write renders sf in format f.
func Write(w io.Writer, f Format, sf *SolvedFile) error {
	if f == FormatJSON {
		return WriteSolved(w, *sf)
	}
	rep, err := BuildReport(sf)
	if err != nil {
		return err
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, rep)
	case FormatTXT:
		return WriteTXT(w, rep)
	case FormatXLSX:
		return WriteXLSX(w, rep)
	case FormatHTML:
		return WriteHTML(w, rep)
	case FormatICS:
		return WriteICS(w, rep)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// masterHeader returns the master schedule columns.
func masterHeader(spotters bool) []string {
	h := []string{"Stint", "Start Time (UTC)", "End Time (UTC)", "Assigned Driver"}
	if spotters {
		h = append(h, "Assigned Spotter")
	}
	return append(h, "Laps")
}

func masterRow(r *Report, i int) []string {
	a := r.Schedule[i]
	row := []string{
		strconv.Itoa(a.Stint.Number()),
		a.Stint.Start.UTC().Format(TimeLayout),
		a.Stint.End.UTC().Format(TimeLayout),
		a.Driver,
	}
	if r.HasSpotters() {
		row = append(row, a.Spotter)
	}
	return append(row, strconv.Itoa(a.Stint.Laps))
}
