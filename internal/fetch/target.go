package fetch

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/wallhub/internal/models"
)

const monthLayout = "2006-01"

// Target is a month (YYYY-MM) or a single day (YYYY-MM-DD).
type Target struct {
	raw   string
	start time.Time
	month bool
}

// ParseTarget validates s as a month or a calendar date.
func ParseTarget(s string) (Target, error) {
	switch len(s) {
	case len(monthLayout):
		t, err := time.Parse(monthLayout, s)
		if err != nil {
			return Target{}, fmt.Errorf("fetch: invalid month %q: want YYYY-MM", s)
		}
		return Target{raw: s, start: t, month: true}, nil
	case len(models.DateLayout):
		t, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return Target{}, fmt.Errorf("fetch: invalid date %q: want YYYY-MM-DD", s)
		}
		return Target{raw: s, start: t}, nil
	default:
		return Target{}, fmt.Errorf("fetch: invalid target %q: want YYYY-MM or YYYY-MM-DD", s)
	}
}

func (t Target) String() string { return t.raw }

// IsMonth reports whether t covers a whole month.
func (t Target) IsMonth() bool { return t.month }

// Dates expands t into calendar dates in ascending order.
func (t Target) Dates() []string {
	if !t.month {
		return []string{t.raw}
	}
	var out []string
	for d := t.start; d.Month() == t.start.Month(); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(models.DateLayout))
	}
	return out
}

// Matches reports whether date (YYYY-MM-DD) falls inside t.
func (t Target) Matches(date string) bool {
	return strings.HasPrefix(date, t.raw)
}
