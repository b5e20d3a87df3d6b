package nlq

import (
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"
)

// DateRange is a half-open [Start, EndExclusive) interval at UTC midnight
// boundaries; the dataset stores all timestamps in UTC.
type DateRange struct {
	Start        time.Time
	EndExclusive time.Time
}

// Russian month stems, matched by prefix against the inflected form found
// in text ("октября", "октябре", ...). Order matters: "март" must be tried
// before the May stem "ма".
var monthStems = []struct {
	stem  string
	month time.Month
}{
	{"январ", time.January},
	{"феврал", time.February},
	{"март", time.March},
	{"апрел", time.April},
	{"ма", time.May},
	{"июн", time.June},
	{"июл", time.July},
	{"август", time.August},
	{"сентябр", time.September},
	{"октябр", time.October},
	{"ноябр", time.November},
	{"декабр", time.December},
}

var (
	fullRangePattern  = regexp.MustCompile(`с\s*(\d{1,2})\s+([а-я]+)\s+(\d{4}).*?по\s*(\d{1,2})\s+([а-я]+)\s+(\d{4})`)
	shortRangePattern = regexp.MustCompile(`с\s*(\d{1,2})\s*по\s*(\d{1,2})\s+([а-я]+)\s+(\d{4})`)
	singleDatePattern = regexp.MustCompile(`(\d{1,2})\s+([а-я]+)\s+(\d{4})`)
	isoDatePattern    = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

	// "за ноябрь 2025", "в ноябре 2025 года". The leading class stands in
	// for a word boundary; \b in regexp is ASCII-only.
	monthRangePattern = regexp.MustCompile(`(?:^|[^а-я])(?:за|в)\s+([а-я]+)\s+(\d{4})(?:\s+года)?`)
)

// parseMonth resolves an inflected or abbreviated month word against the
// stem table. Abbreviations of at least three letters ("янв", "сент") are
// accepted as prefixes of the stem.
func parseMonth(word string) (time.Month, bool) {
	for _, entry := range monthStems {
		if hasPrefixFold(word, entry.stem) {
			return entry.month, true
		}
		if utf8.RuneCountInString(word) >= 3 && hasPrefixFold(entry.stem, word) {
			return entry.month, true
		}
	}
	return 0, false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ExtractDateRange finds the first day-level date expression in text.
// Supported forms, tried in order:
//
//  1. "с 1 ноября 2025 ... по 5 ноября 2025"  -> [Nov 1, Nov 6)
//  2. "с 1 по 5 ноября 2025"                  -> [Nov 1, Nov 6)
//  3. "28 ноября 2025" or "2025-11-28"        -> [Nov 28, Nov 29)
//
// Returns ok=false when nothing date-like matches.
func ExtractDateRange(text string) (DateRange, bool) {
	t := Normalize(text)

	if m := fullRangePattern.FindStringSubmatch(t); m != nil {
		start, okStart := dayDate(m[3], m[2], m[1])
		end, okEnd := dayDate(m[6], m[5], m[4])
		if okStart && okEnd {
			return DateRange{Start: start, EndExclusive: end.AddDate(0, 0, 1)}, true
		}
	}

	if m := shortRangePattern.FindStringSubmatch(t); m != nil {
		start, okStart := dayDate(m[4], m[3], m[1])
		end, okEnd := dayDate(m[4], m[3], m[2])
		if okStart && okEnd {
			return DateRange{Start: start, EndExclusive: end.AddDate(0, 0, 1)}, true
		}
	}

	if m := singleDatePattern.FindStringSubmatch(t); m != nil {
		if day, ok := dayDate(m[3], m[2], m[1]); ok {
			return DateRange{Start: day, EndExclusive: day.AddDate(0, 0, 1)}, true
		}
	}

	if m := isoDatePattern.FindStringSubmatch(t); m != nil {
		year, _ := strconv.Atoi(m[1])
		monthNum, _ := strconv.Atoi(m[2])
		dayNum, _ := strconv.Atoi(m[3])
		if day, ok := utcDate(year, time.Month(monthNum), dayNum); ok {
			return DateRange{Start: day, EndExclusive: day.AddDate(0, 0, 1)}, true
		}
	}

	return DateRange{}, false
}

// ExtractMonthRange recognizes "за <месяц> <год>[ года]" and the "в ..."
// variant, returning the whole calendar month as a half-open range.
// December rolls into January of the next year.
func ExtractMonthRange(text string) (DateRange, bool) {
	t := Normalize(text)

	m := monthRangePattern.FindStringSubmatch(t)
	if m == nil {
		return DateRange{}, false
	}
	month, ok := parseMonth(m[1])
	if !ok {
		return DateRange{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return DateRange{}, false
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, EndExclusive: start.AddDate(0, 1, 0)}, true
}

func dayDate(yearRaw, monthWord, dayRaw string) (time.Time, bool) {
	month, ok := parseMonth(monthWord)
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayRaw)
	if err != nil {
		return time.Time{}, false
	}
	return utcDate(year, month, day)
}

// utcDate builds a midnight UTC date and rejects values time.Date would
// silently normalize, e.g. February 30.
func utcDate(year int, month time.Month, day int) (time.Time, bool) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
