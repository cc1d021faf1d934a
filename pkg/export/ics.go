package export

import (
	"fmt"
	"io"

	ics "github.com/arran4/golang-ical"

	"github.com/kilianp07/stintplan/core/itinerary"
	"github.com/kilianp07/stintplan/core/model"
)

// WriteICS writes one calendar event per consolidated duty block of every
// member. Rest periods are left out.
func WriteICS(w io.Writer, r *Report) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//stintplan//race roster//EN")
	for _, p := range r.Race.Participants {
		n := 0
		for _, d := range r.Itinerary[p.Name] {
			if d.Activity == model.ActivityResting {
				continue
			}
			n++
			ev := cal.AddEvent(fmt.Sprintf("%s-%d-%d@stintplan", p.Name, r.Race.Start.Unix(), n))
			ev.SetDtStampTime(r.Race.Start)
			ev.SetStartAt(d.Start)
			ev.SetEndAt(d.End)
			ev.SetSummary(fmt.Sprintf("%s: %s", p.Name, itinerary.Label(d)))
			ev.SetDescription(fmt.Sprintf("%s %s, local %s to %s (UTC%+d)", itinerary.Label(d),
				itinerary.FormatDuration(d.Duration()), d.Start.Format(LocalLayout), d.End.Format("15:04"), p.Timezone))
			ev.SetProperty(ics.ComponentPropertyCategories, string(d.Activity))
		}
	}
	_, err := io.WriteString(w, cal.Serialize())
	return err
}
