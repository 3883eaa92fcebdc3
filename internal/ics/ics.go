// Package ics renders calendar events as iCalendar data for previewing
// what the handler would send, without calling Google.
package ics

import (
	"fmt"
	"io"
	"time"
	_ "time/tzdata" // Lambda images do not ship a zoneinfo database.

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

const (
	productID   = "-//calhook//EN"
	localLayout = "2006-01-02T15:04:05"
)

// Encode writes ev as a single-event VCALENDAR.
func Encode(w io.Writer, ev *calendar.Event) error {
	vevent, err := toICal(ev)
	if err != nil {
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, vevent)

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// toICal converts a Calendar API event to a VEVENT with one VALARM per reminder override.
func toICal(ev *calendar.Event) (*ical.Component, error) {
	start, err := eventTime(ev.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	end, err := eventTime(ev.End)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}

	uid := ev.ICalUID
	if uid == "" {
		uid = GenerateUID()
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, ev.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}

	if ev.Reminders != nil {
		for _, r := range ev.Reminders.Overrides {
			alarm := ical.NewComponent(ical.CompAlarm)
			alarm.Props.SetText(ical.PropAction, "DISPLAY")
			alarm.Props.SetText(ical.PropDescription, ev.Summary)
			trigger := ical.NewProp(ical.PropTrigger)
			trigger.Value = fmt.Sprintf("-PT%dM", r.Minutes)
			alarm.Props.Set(trigger)
			ve.Children = append(ve.Children, alarm)
		}
	}
	return ve, nil
}

// eventTime reads a dateTime written either in RFC 3339 or as a local
// timestamp in the event's time zone.
func eventTime(edt *calendar.EventDateTime) (time.Time, error) {
	if edt == nil || edt.DateTime == "" {
		return time.Time{}, fmt.Errorf("missing dateTime")
	}
	if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
		return t.UTC(), nil
	}

	loc := time.UTC
	if edt.TimeZone != "" {
		l, err := time.LoadLocation(edt.TimeZone)
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown time zone %q: %w", edt.TimeZone, err)
		}
		loc = l
	}
	return time.ParseInLocation(localLayout, edt.DateTime, loc)
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}
