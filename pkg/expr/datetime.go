package expr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateTimePrefix = regexp.MustCompile(`^\d{4}-\d\d-\d\d[T ]\d\d:\d\d:\d\d`)

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	"2006",
}

// ParseDateTime parses s as an absolute time in one of the accepted layouts. Times without a zone are placed in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)

	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseRelative parses an ISO 8601 style duration such as "-P1Y2M" or "P1DT12H" and applies it to now. Designators
// are case insensitive and 'M' means months before the 'T' separator and minutes after it.
func parseRelative(s string, now time.Time) (time.Time, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))

	sign := 1
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if !strings.HasPrefix(s, "P") {
		return time.Time{}, false
	}

	var years, months, days int
	var clock time.Duration

	number := ""
	inTime := false
	seen := false

	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			number += string(r)
			continue
		case r == 'T':
			inTime = true
			continue
		case !strings.ContainsRune("YMWDHS", r):
			return time.Time{}, false
		}

		if number == "" {
			return time.Time{}, false
		}

		n, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return time.Time{}, false
		}
		number = ""
		seen = true

		switch r {
		case 'Y':
			years += int(n)
		case 'M':
			if inTime {
				clock += time.Duration(n * float64(time.Minute))
			} else {
				months += int(n)
			}
		case 'W':
			days += 7 * int(n)
		case 'D':
			days += int(n)
		case 'H':
			clock += time.Duration(n * float64(time.Hour))
		case 'S':
			clock += time.Duration(n * float64(time.Second))
		}
	}

	if number != "" || !seen {
		return time.Time{}, false
	}

	return now.AddDate(sign*years, sign*months, sign*days).Add(time.Duration(sign) * clock), true
}

// asDateTime returns value as a time when it is a time or a string starting with a date and time of day.
func asDateTime(value any, loc *time.Location) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		if !dateTimePrefix.MatchString(v) {
			return time.Time{}, false
		}
		return ParseDateTime(v, loc)
	default:
		return time.Time{}, false
	}
}
