package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Scheduler decides when the daemon triggers a refresh: a fixed wall-clock
// minute, on NYSE trading days only.
type Scheduler struct {
	hour     int
	minute   int
	location *time.Location
	nyse     *calendar.Calendar
}

// NewScheduler parses an "HH:MM" schedule in the given timezone. An unknown
// timezone falls back to UTC rather than failing the daemon.
func NewScheduler(at, timezone string) (*Scheduler, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("schedule must be HH:MM, got %q", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid schedule hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid schedule minute in %q", at)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return &Scheduler{
		hour:     hour,
		minute:   minute,
		location: loc,
		nyse:     calendar.XNYS(),
	}, nil
}

// ShouldRun reports whether now falls in the scheduled minute of a trading
// day. The caller is responsible for not re-triggering within the same day.
func (s *Scheduler) ShouldRun(now time.Time) bool {
	local := now.In(s.location)
	if local.Hour() != s.hour || local.Minute() != s.minute {
		return false
	}
	return s.nyse.IsBusinessDay(local)
}

// Today returns the current date in the schedule's timezone.
func (s *Scheduler) Today(now time.Time) string {
	return now.In(s.location).Format("2006-01-02")
}
