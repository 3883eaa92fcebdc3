// Package nlparse turns short scheduling sentences such as
// "Team sync at 3 PM CST for 2 hours" into Google Calendar events.
//
// Only one phrasing family is understood:
//
//	<summary> (on|tomorrow|at) <hour> <AM|PM> CST for <N> hour[s]
//
// The separator keyword is consumed but never resolved to a calendar date;
// every event lands on the fixed default date (see DefaultDate).
package nlparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
)

const (
	// TimeZone is attached to every extracted event, whatever zone the sentence names.
	TimeZone = "America/Chicago"

	// DateTimeLayout is the local, offset-free timestamp sent as dateTime.
	DateTimeLayout = "2006-01-02T15:04:05"

	ReminderMethod  = "popup"
	ReminderMinutes = 120
)

// DefaultDate is the date every extracted time of day is placed on.
var DefaultDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxDurationHours keeps start+duration inside time.Duration.
const maxDurationHours = int64(1<<63-1) / int64(time.Hour)

var sentencePattern = regexp.MustCompile(`(?P<summary>.+?) (on|tomorrow|at) (?P<datetime>.+?) for (?P<duration>\d+) hour`)

// ParseError reports input that does not fit the supported phrasing.
type ParseError struct {
	Input string
	Msg   string
}

func (e *ParseError) Error() string { return e.Msg }

// Extraction is the typed result of parsing a sentence.
type Extraction struct {
	Summary  string
	DateHint string // the separator keyword: "on", "tomorrow" or "at"
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Parse extracts summary, time of day and duration from input.
func Parse(input string) (*Extraction, error) {
	m := sentencePattern.FindStringSubmatch(input)
	if m == nil {
		return nil, &ParseError{Input: input, Msg: "Failed to parse natural language input"}
	}

	summary := m[sentencePattern.SubexpIndex("summary")]
	clock := m[sentencePattern.SubexpIndex("datetime")]
	rawDuration := m[sentencePattern.SubexpIndex("duration")]

	start, err := parseClock(clock)
	if err != nil {
		return nil, &ParseError{Input: input, Msg: err.Error()}
	}

	hours, err := strconv.ParseInt(rawDuration, 10, 64)
	if err != nil || hours > maxDurationHours {
		return nil, &ParseError{Input: input, Msg: fmt.Sprintf("duration %s hours is out of range", rawDuration)}
	}
	duration := time.Duration(hours) * time.Hour

	return &Extraction{
		Summary:  summary,
		DateHint: m[2],
		Start:    start,
		End:      start.Add(duration),
		Duration: duration,
	}, nil
}

// Event builds the calendar event for x, with a fixed popup reminder.
func (x *Extraction) Event() *calendar.Event {
	return &calendar.Event{
		Summary: x.Summary,
		Start: &calendar.EventDateTime{
			DateTime: x.Start.Format(DateTimeLayout),
			TimeZone: TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: x.End.Format(DateTimeLayout),
			TimeZone: TimeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: ReminderMethod, Minutes: ReminderMinutes},
			},
			// useDefault must be sent even though it is the zero value.
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

// ParseEvent is Parse followed by Event.
func ParseEvent(input string) (*calendar.Event, error) {
	x, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return x.Event(), nil
}

// parseClock accepts exactly "<hour> <AM|PM> CST" where hour is 1-12,
// optionally zero padded, and the letters are case-insensitive.
func parseClock(text string) (time.Time, error) {
	mismatch := fmt.Errorf("time data %q does not match format \"<hour> <AM|PM> CST\"", text)

	fields := strings.Split(text, " ")
	if len(fields) != 3 || !strings.EqualFold(fields[2], "CST") {
		return time.Time{}, mismatch
	}

	rawHour, meridiem := fields[0], strings.ToUpper(fields[1])
	if len(rawHour) == 0 || len(rawHour) > 2 {
		return time.Time{}, mismatch
	}
	hour := 0
	for _, r := range rawHour {
		if r < '0' || r > '9' {
			return time.Time{}, mismatch
		}
		hour = hour*10 + int(r-'0')
	}
	if hour < 1 || hour > 12 {
		return time.Time{}, mismatch
	}

	switch meridiem {
	case "AM":
		hour %= 12
	case "PM":
		hour = hour%12 + 12
	default:
		return time.Time{}, mismatch
	}

	return DefaultDate.Add(time.Duration(hour) * time.Hour), nil
}
