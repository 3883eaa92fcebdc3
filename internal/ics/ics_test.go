package ics

import (
	"bytes"
	"strings"
	"testing"

	"calhook/internal/nlparse"

	"google.golang.org/api/calendar/v3"
)

func TestEncodeExtractedEvent(t *testing.T) {
	ev, err := nlparse.ParseEvent("Team sync at 3 PM CST for 2 hour")
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, ev); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//calhook//EN",
		"BEGIN:VEVENT",
		"SUMMARY:Team sync",
		"TZID=America/Chicago",
		"19000101T150000",
		"19000101T170000",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:-PT120M",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEncodeRFC3339Times(t *testing.T) {
	ev := &calendar.Event{
		Summary:  "Review",
		ICalUID:  "fixed-uid",
		Location: "Room 4",
		Start:    &calendar.EventDateTime{DateTime: "2026-10-20T09:00:00-05:00"},
		End:      &calendar.EventDateTime{DateTime: "2026-10-20T10:00:00-05:00"},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, ev); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"UID:fixed-uid", "LOCATION:Room 4", "20261020T140000Z", "20261020T150000Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "VALARM") {
		t.Errorf("unexpected alarm without reminders:\n%s", out)
	}
}

func TestEncodeRejectsMissingTimes(t *testing.T) {
	tests := []*calendar.Event{
		{Summary: "no start", End: &calendar.EventDateTime{DateTime: "2026-10-20T10:00:00Z"}},
		{Summary: "all day", Start: &calendar.EventDateTime{Date: "2026-10-20"}, End: &calendar.EventDateTime{Date: "2026-10-21"}},
		{Summary: "bad zone", Start: &calendar.EventDateTime{DateTime: "2026-10-20T10:00:00", TimeZone: "Mars/Olympus"},
			End: &calendar.EventDateTime{DateTime: "2026-10-20T11:00:00", TimeZone: "Mars/Olympus"}},
	}
	for _, ev := range tests {
		if err := Encode(&bytes.Buffer{}, ev); err == nil {
			t.Errorf("Encode(%s) expected error", ev.Summary)
		}
	}
}

func TestGenerateUID(t *testing.T) {
	a, b := GenerateUID(), GenerateUID()
	if a == "" || a == b {
		t.Errorf("GenerateUID() = %q, %q", a, b)
	}
}
