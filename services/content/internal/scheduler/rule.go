package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	// Recurrences name IANA zones; bundle the database for minimal images.
	_ "time/tzdata"

	"content-engine/services/content/internal/entity"
)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"

	defaultTime = "09:00"
)

// Rule yields the next fire time strictly after a given instant.
type Rule interface {
	Next(after time.Time) time.Time
}

type every time.Duration

// Every fires at a fixed interval.
func Every(d time.Duration) Rule {
	return every(d)
}

func (e every) Next(after time.Time) time.Time {
	return after.Add(time.Duration(e))
}

// Recurrence fires daily or weekly at a wall-clock time in a timezone.
type Recurrence struct {
	Frequency string
	Weekday   time.Weekday
	Hour      int
	Minute    int
	Location  *time.Location
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseRecurrence builds a rule from a client's report settings. Frequency
// defaults to weekly, day to Monday, time to 09:00; an unknown day means
// Monday and an unknown timezone means UTC. Unknown frequencies and
// malformed times are errors.
func ParseRecurrence(s entity.ReportSettings) (*Recurrence, error) {
	freq := strings.ToLower(strings.TrimSpace(s.Frequency))
	if freq == "" {
		freq = FrequencyWeekly
	}
	if freq != FrequencyDaily && freq != FrequencyWeekly {
		return nil, entity.Invalid("unknown report frequency %q", s.Frequency)
	}

	clock := strings.TrimSpace(s.Time)
	if clock == "" {
		clock = defaultTime
	}
	hour, minute, err := parseClock(clock)
	if err != nil {
		return nil, err
	}

	weekday, ok := weekdays[strings.ToLower(strings.TrimSpace(s.Day))]
	if !ok {
		weekday = time.Monday
	}

	loc := time.UTC
	if tz := strings.TrimSpace(s.Timezone); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	return &Recurrence{
		Frequency: freq,
		Weekday:   weekday,
		Hour:      hour,
		Minute:    minute,
		Location:  loc,
	}, nil
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, entity.Invalid("time %q must be HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, entity.Invalid("time %q has an invalid hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, entity.Invalid("time %q has an invalid minute", s)
	}
	return hour, minute, nil
}

func (r *Recurrence) Next(after time.Time) time.Time {
	local := after.In(r.Location)
	y, m, d := local.Date()

	at := func(dayOffset int) time.Time {
		return time.Date(y, m, d+dayOffset, r.Hour, r.Minute, 0, 0, r.Location)
	}

	if r.Frequency == FrequencyDaily {
		next := at(0)
		if !next.After(after) {
			next = at(1)
		}
		return next
	}

	offset := (int(r.Weekday) - int(local.Weekday()) + 7) % 7
	next := at(offset)
	if !next.After(after) {
		next = at(offset + 7)
	}
	return next
}

func (r *Recurrence) String() string {
	clock := fmt.Sprintf("%02d:%02d %s", r.Hour, r.Minute, r.Location)
	if r.Frequency == FrequencyDaily {
		return "daily at " + clock
	}
	return fmt.Sprintf("every %s at %s", r.Weekday, clock)
}
