package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the master schedule.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(masterHeader(r.HasSpotters())); err != nil {
		return err
	}
	for i := range r.Schedule {
		if err := cw.Write(masterRow(r, i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
