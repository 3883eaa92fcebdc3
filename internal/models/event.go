package models

import "time"

// Event is a calendar event as shown by the agenda command,
// independent of the Calendar API resource it was read from.
type Event struct {
	ID              string    // Google event ID
	Title           string    // Summary or title of the event
	StartTime       time.Time // Start time of the event
	EndTime         time.Time // End time of the event
	TimeZone        string    // Time zone the start time was written in, if any
	Location        string    // Location of the event
	Organizer       string    // Organizer's email
	ReminderMinutes []int64   // Reminder overrides, minutes before start
	Link            string    // Link to the event in the Calendar UI
	Source          string    // The source of the event (e.g., "google-primary")
}
