package nlq

import (
	"testing"
	"time"
)

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractDateRangeFullRange(t *testing.T) {
	dr, ok := ExtractDateRange("с 1 ноября 2025 по 5 ноября 2025 включительно")
	if !ok {
		t.Fatal("ExtractDateRange() found nothing")
	}
	if !dr.Start.Equal(utc(2025, time.November, 1)) {
		t.Fatalf("Start = %v", dr.Start)
	}
	if !dr.EndExclusive.Equal(utc(2025, time.November, 6)) {
		t.Fatalf("EndExclusive = %v", dr.EndExclusive)
	}
}

func TestExtractDateRangeCrossMonth(t *testing.T) {
	dr, ok := ExtractDateRange("с 28 декабря 2025 по 2 января 2026")
	if !ok {
		t.Fatal("ExtractDateRange() found nothing")
	}
	if !dr.Start.Equal(utc(2025, time.December, 28)) {
		t.Fatalf("Start = %v", dr.Start)
	}
	if !dr.EndExclusive.Equal(utc(2026, time.January, 3)) {
		t.Fatalf("EndExclusive = %v", dr.EndExclusive)
	}
}

func TestExtractDateRangeShorthand(t *testing.T) {
	dr, ok := ExtractDateRange("вышло с 1 по 5 ноября 2025")
	if !ok {
		t.Fatal("ExtractDateRange() found nothing")
	}
	if !dr.Start.Equal(utc(2025, time.November, 1)) || !dr.EndExclusive.Equal(utc(2025, time.November, 6)) {
		t.Fatalf("range = [%v, %v)", dr.Start, dr.EndExclusive)
	}
}

func TestExtractDateRangeSingleDay(t *testing.T) {
	dr, ok := ExtractDateRange("28 ноября 2025")
	if !ok {
		t.Fatal("ExtractDateRange() found nothing")
	}
	if !dr.Start.Equal(utc(2025, time.November, 28)) || !dr.EndExclusive.Equal(utc(2025, time.November, 29)) {
		t.Fatalf("range = [%v, %v)", dr.Start, dr.EndExclusive)
	}
}

func TestExtractDateRangeISO(t *testing.T) {
	dr, ok := ExtractDateRange("за 2025-11-28 пожалуйста")
	if !ok {
		t.Fatal("ExtractDateRange() found nothing")
	}
	if !dr.Start.Equal(utc(2025, time.November, 28)) || !dr.EndExclusive.Equal(utc(2025, time.November, 29)) {
		t.Fatalf("range = [%v, %v)", dr.Start, dr.EndExclusive)
	}
}

func TestExtractDateRangeAbbreviatedMonth(t *testing.T) {
	dr, ok := ExtractDateRange("3 окт 2025")
	if !ok {
		t.Fatal("ExtractDateRange() found nothing")
	}
	if !dr.Start.Equal(utc(2025, time.October, 3)) {
		t.Fatalf("Start = %v", dr.Start)
	}
}

func TestExtractDateRangeNotFound(t *testing.T) {
	for _, text := range []string{"", "сколько видео всего?", "30 февраля 2025"} {
		if dr, ok := ExtractDateRange(text); ok {
			t.Fatalf("ExtractDateRange(%q) = %+v, want not found", text, dr)
		}
	}
}

func TestExtractMonthRange(t *testing.T) {
	dr, ok := ExtractMonthRange("сколько видео вышло за ноябрь 2025 года")
	if !ok {
		t.Fatal("ExtractMonthRange() found nothing")
	}
	if !dr.Start.Equal(utc(2025, time.November, 1)) || !dr.EndExclusive.Equal(utc(2025, time.December, 1)) {
		t.Fatalf("range = [%v, %v)", dr.Start, dr.EndExclusive)
	}
}

func TestExtractMonthRangeDecemberRollsOver(t *testing.T) {
	dr, ok := ExtractMonthRange("в декабре 2025")
	if !ok {
		t.Fatal("ExtractMonthRange() found nothing")
	}
	if !dr.EndExclusive.Equal(utc(2026, time.January, 1)) {
		t.Fatalf("EndExclusive = %v", dr.EndExclusive)
	}
}

func TestExtractMonthRangeIgnoresEmbeddedPreposition(t *testing.T) {
	// "раза" ends in "за" but is not the preposition.
	if dr, ok := ExtractMonthRange("два раза два 2025"); ok {
		t.Fatalf("ExtractMonthRange() = %+v, want not found", dr)
	}
}

func TestParseMonthStems(t *testing.T) {
	cases := []struct {
		word string
		want time.Month
	}{
		{"января", time.January},
		{"марта", time.March},
		{"мая", time.May},
		{"май", time.May},
		{"августе", time.August},
		{"сент", time.September},
		{"ноя", time.November},
		{"декабря", time.December},
	}
	for _, tc := range cases {
		got, ok := parseMonth(tc.word)
		if !ok || got != tc.want {
			t.Fatalf("parseMonth(%q) = %v, %v, want %v", tc.word, got, ok, tc.want)
		}
	}
	if got, ok := parseMonth("среда"); ok {
		t.Fatalf("parseMonth(%q) = %v, want not found", "среда", got)
	}
}
