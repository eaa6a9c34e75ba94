package fecha

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoDateExpression is returned when a query contains no recognizable
// date expression.
var ErrNoDateExpression = errors.New("no date expression found in query")

const dayLayout = "2006-01-02"

// Kind distinguishes the two resolution shapes.
type Kind int

const (
	KindSingle Kind = iota
	KindRange
)

func (k Kind) String() string {
	if k == KindRange {
		return "range"
	}
	return "single"
}

// Resolution is the outcome of resolving a date expression: either a single
// calendar day or an inclusive day range. Dates are UTC midnights.
type Resolution struct {
	kind  Kind
	date  time.Time
	start time.Time
	end   time.Time
}

// Single creates a single-day resolution.
func Single(t time.Time) Resolution {
	return Resolution{kind: KindSingle, date: toDay(t)}
}

// Range creates an inclusive day-range resolution. If start is after end the
// bounds are swapped.
func Range(start, end time.Time) Resolution {
	s, e := toDay(start), toDay(end)
	if s.After(e) {
		s, e = e, s
	}
	return Resolution{kind: KindRange, start: s, end: e}
}

func (r Resolution) Kind() Kind { return r.kind }

// Date returns the day of a single resolution.
func (r Resolution) Date() time.Time { return r.date }

// Bounds returns the inclusive bounds. For a single resolution both bounds
// are the same day.
func (r Resolution) Bounds() (start, end time.Time) {
	if r.kind == KindSingle {
		return r.date, r.date
	}
	return r.start, r.end
}

func (r Resolution) String() string {
	if r.kind == KindSingle {
		return r.date.Format(dayLayout)
	}
	return r.start.Format(dayLayout) + ".." + r.end.Format(dayLayout)
}

type singleJSON struct {
	Date string `json:"date"`
}

type rangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarshalJSON emits one of the two wire shapes:
// {"date":"YYYY-MM-DD"} or {"start":"YYYY-MM-DD","end":"YYYY-MM-DD"}.
func (r Resolution) MarshalJSON() ([]byte, error) {
	if r.kind == KindSingle {
		return json.Marshal(singleJSON{Date: r.date.Format(dayLayout)})
	}
	return json.Marshal(rangeJSON{
		Start: r.start.Format(dayLayout),
		End:   r.end.Format(dayLayout),
	})
}

// UnmarshalJSON accepts either wire shape. An object carrying both "date"
// and "start"/"end", or neither, is rejected.
func (r *Resolution) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date  *string `json:"date"`
		Start *string `json:"start"`
		End   *string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Date != nil && raw.Start == nil && raw.End == nil:
		d, err := parseDay(*raw.Date)
		if err != nil {
			return err
		}
		*r = Single(d)
		return nil
	case raw.Date == nil && raw.Start != nil && raw.End != nil:
		s, err := parseDay(*raw.Start)
		if err != nil {
			return err
		}
		e, err := parseDay(*raw.End)
		if err != nil {
			return err
		}
		*r = Range(s, e)
		return nil
	default:
		return fmt.Errorf("object is neither a date nor a start/end range")
	}
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// toDay truncates a time to its UTC calendar day.
func toDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
