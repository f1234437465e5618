package api

import (
	"fmt"
	"time"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// dateLayouts are tried in order when parsing a date string.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// minYear/maxYear bound accepted timestamps; anything outside is almost
// certainly a unit mistake (milliseconds passed as seconds, etc.).
const (
	minYear = 1
	maxYear = 9999
)

// Convert renders the requested instant in every supported format.
func Convert(req domain.ConversionRequest, now time.Time) (*domain.ConversionResult, error) {
	var t time.Time

	switch {
	case req.Timestamp != nil:
		t = time.Unix(*req.Timestamp, 0).UTC()
	case req.Date != "":
		parsed, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		t = parsed
	default:
		return nil, domain.NewError(domain.CategoryValidation,
			"either timestamp or date is required")
	}

	if t.Year() < minYear || t.Year() > maxYear {
		return nil, domain.NewError(domain.CategoryValidation,
			fmt.Sprintf("timestamp out of range: year %d", t.Year()))
	}

	result := &domain.ConversionResult{
		Unix:      t.Unix(),
		UnixMilli: t.UnixMilli(),
		ISO8601:   t.UTC().Format(time.RFC3339),
		UTC:       t.UTC().Format("Mon, 02 Jan 2006 15:04:05 MST"),
		Timezone:  "UTC",
		Relative:  relative(t, now),
	}

	if req.Timezone != "" {
		loc, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, domain.WrapError(domain.CategoryValidation,
				fmt.Sprintf("unknown timezone %q", req.Timezone), err)
		}
		result.Timezone = req.Timezone
		result.Local = t.In(loc).Format("2006-01-02 15:04:05 MST")
	}

	return result, nil
}

// TimezoneLookup resolves IANA timezone metadata at instant `at`.
func TimezoneLookup(name string, at time.Time) (*domain.TimezoneInfo, error) {
	if name == "" {
		return nil, domain.NewError(domain.CategoryValidation, "timezone name is required")
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.WrapError(domain.CategoryValidation,
			fmt.Sprintf("unknown timezone %q", name), err)
	}

	abbr, offset := at.In(loc).Zone()
	return &domain.TimezoneInfo{
		Name:          name,
		Abbreviation:  abbr,
		OffsetSeconds: offset,
		OffsetLabel:   offsetLabel(offset),
		IsDST:         isDST(at, loc),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.NewError(domain.CategoryValidation,
		fmt.Sprintf("unrecognized date format %q", s))
}

func offsetLabel(offset int) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}

// isDST reports whether the location observes a larger UTC offset at
// `at` than its yearly minimum, which is how DST shows up in the tz
// database for both hemispheres.
func isDST(at time.Time, loc *time.Location) bool {
	_, current := at.In(loc).Zone()

	year := at.In(loc).Year()
	_, jan := time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	_, jul := time.Date(year, time.July, 1, 12, 0, 0, 0, loc).Zone()

	min := jan
	if jul < min {
		min = jul
	}
	return current > min
}

// relative renders a human-readable distance between t and now.
func relative(t, now time.Time) string {
	d := now.Sub(t)
	past := d >= 0
	if !past {
		d = -d
	}

	var phrase string
	switch {
	case d < time.Minute:
		phrase = "a few seconds"
	case d < time.Hour:
		phrase = plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		phrase = plural(int(d.Hours()), "hour")
	case d < 30*24*time.Hour:
		phrase = plural(int(d.Hours()/24), "day")
	case d < 365*24*time.Hour:
		phrase = plural(int(d.Hours()/(24*30)), "month")
	default:
		phrase = plural(int(d.Hours()/(24*365)), "year")
	}

	if past {
		return phrase + " ago"
	}
	return "in " + phrase
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
