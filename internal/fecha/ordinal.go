package fecha

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

func resolveOrdinal(m []string, today time.Time) (Resolution, error) {
	ord := ordinals[m[1]]
	wd := weekdays[m[2]]
	month := months[m[3]]
	year := parseYear(m[4], today)

	d, err := ordinalWeekday(ord, wd, month, year)
	if err != nil {
		return Resolution{}, err
	}
	return Single(d), nil
}

// ordinalWeekday computes dates like "primer lunes de mayo" or "ultimo
// viernes de abril" (ord -1) for the given month.
func ordinalWeekday(ord int, wd time.Weekday, month time.Month, year int) (time.Time, error) {
	w := rruleWeekdays[wd]
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.MONTHLY,
		Count:     1,
		Byweekday: []rrule.Weekday{w.Nth(ord)},
		Dtstart:   time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("build recurrence: %w", err)
	}

	occurrences := r.All()
	if len(occurrences) == 0 {
		return time.Time{}, fmt.Errorf("no occurrence of weekday %s in %s %d", wd, month, year)
	}
	d := toDay(occurrences[0])
	// Months without e.g. a fifth Monday roll over to the next month.
	if d.Month() != month || d.Year() != year {
		return time.Time{}, fmt.Errorf("no occurrence %d of %s in %s %d", ord, wd, month, year)
	}
	return d, nil
}
