// Package ical renders time blocks as an iCalendar feed so users can
// subscribe to their plan from an external calendar client.
package ical

import (
	"bytes"
	"fmt"
	"time"

	goical "github.com/emersion/go-ical"

	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

const prodID = "-//lifeplan//lifeplan//EN"

// Export renders the given time blocks as a VCALENDAR document. now
// stamps each event's DTSTAMP.
func Export(blocks []*planner.TimeBlock, now time.Time) ([]byte, error) {
	// The encoder rejects a calendar with no components, but an owner
	// with no time blocks still needs a valid feed.
	if len(blocks) == 0 {
		return []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + prodID + "\r\nEND:VCALENDAR\r\n"), nil
	}

	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, prodID)

	for _, block := range blocks {
		event := goical.NewEvent()
		event.Props.SetText(goical.PropUID, block.ID+"@lifeplan")
		event.Props.SetDateTime(goical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(goical.PropDateTimeStart, block.Start.UTC())
		event.Props.SetDateTime(goical.PropDateTimeEnd, block.End.UTC())
		event.Props.SetText(goical.PropSummary, block.Title)
		if block.Category != nil {
			event.Props.SetText(goical.PropCategories, *block.Category)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := goical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
