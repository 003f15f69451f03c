package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Period is a resolved [Start, End) time window plus the human-readable
// description the dashboard shows for it.
type Period struct {
	Start time.Time
	End   time.Time
	Desc  string
}

var (
	dayRangeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}):(\d{4}-\d{2}-\d{2})$`)
	dayRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthRe    = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearRe     = regexp.MustCompile(`^\d{4}$`)
)

// ParsePeriod resolves the period specifier grammar in spec.md §4.6.5.
// now is injected so callers can test deterministically.
func ParsePeriod(raw string, now time.Time) (Period, error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	switch s {
	case "today":
		start := startOfDay(now)
		return Period{Start: start, End: now, Desc: "今天"}, nil
	case "yesterday":
		y := startOfDay(now).AddDate(0, 0, -1)
		return Period{Start: y, End: y.AddDate(0, 0, 1), Desc: "昨天"}, nil
	case "week":
		return Period{Start: now.AddDate(0, 0, -7), End: now, Desc: "最近7天"}, nil
	case "month":
		return Period{Start: now.AddDate(0, 0, -30), End: now, Desc: "最近30天"}, nil
	case "year":
		return Period{Start: now.AddDate(0, 0, -365), End: now, Desc: "最近365天"}, nil
	}

	if m := dayRangeRe.FindStringSubmatch(s); m != nil {
		start, err := dateparse.ParseLocal(m[1])
		if err != nil {
			return Period{}, fmt.Errorf("parse range start: %w", err)
		}

		end, err := dateparse.ParseLocal(m[2])
		if err != nil {
			return Period{}, fmt.Errorf("parse range end: %w", err)
		}

		end = startOfDay(end).AddDate(0, 0, 1)

		return Period{Start: startOfDay(start), End: end, Desc: fmt.Sprintf("%s 至 %s", m[1], m[2])}, nil
	}

	if dayRe.MatchString(s) {
		d, err := dateparse.ParseLocal(s)
		if err != nil {
			return Period{}, fmt.Errorf("parse day: %w", err)
		}

		start := startOfDay(d)

		return Period{Start: start, End: start.AddDate(0, 0, 1), Desc: s}, nil
	}

	if monthRe.MatchString(s) {
		parts := strings.Split(s, "-")

		year, _ := strconv.Atoi(parts[0])
		month, _ := strconv.Atoi(parts[1])

		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())

		var end time.Time
		if month == 12 {
			end = time.Date(year+1, 1, 1, 0, 0, 0, 0, now.Location())
		} else {
			end = time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, now.Location())
		}

		return Period{Start: start, End: end, Desc: s}, nil
	}

	if yearRe.MatchString(s) {
		year, _ := strconv.Atoi(s)
		start := time.Date(year, 1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(year+1, 1, 1, 0, 0, 0, 0, now.Location())

		return Period{Start: start, End: end, Desc: s}, nil
	}

	return Period{}, fmt.Errorf("cannot parse period: %q", raw)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
