package nlq

import "strings"

// Metric is the engagement dimension a question aggregates.
type Metric string

const (
	MetricViews    Metric = "views"
	MetricLikes    Metric = "likes"
	MetricComments Metric = "comments"
	MetricReports  Metric = "reports"
)

// Comparator is a threshold comparison extracted from phrase cues.
type Comparator string

const (
	CmpGT  Comparator = ">"
	CmpGTE Comparator = ">="
	CmpLT  Comparator = "<"
	CmpLTE Comparator = "<="
)

// Keyword stems checked in priority order; a question carries at most one
// metric, the first stem found wins.
var metricCues = []struct {
	stems  []string
	metric Metric
}{
	{[]string{"просмотр"}, MetricViews},
	{[]string{"лайк"}, MetricLikes},
	{[]string{"коммент"}, MetricComments},
	{[]string{"жалоб", "репорт", "report"}, MetricReports},
}

// Comparator cues in priority order. "не меньше" / "не больше" are lexical
// supersets of the bare cues, so the negated forms must be checked first.
var comparatorCues = []struct {
	phrases []string
	cmp     Comparator
}{
	{[]string{"не меньше", "не менее", "как минимум", "минимум"}, CmpGTE},
	{[]string{"не больше", "не более", "как максимум", "максимум"}, CmpLTE},
	{[]string{"больше", "более", "выше", "превыш"}, CmpGT},
	{[]string{"меньше", "ниже"}, CmpLT},
}

// DetectMetric returns the metric named in normalized text, if any.
func DetectMetric(text string) (Metric, bool) {
	for _, cue := range metricCues {
		if containsAny(text, cue.stems) {
			return cue.metric, true
		}
	}
	return "", false
}

// DetectComparator returns the comparator cued in normalized text, if any.
func DetectComparator(text string) (Comparator, bool) {
	for _, cue := range comparatorCues {
		if containsAny(text, cue.phrases) {
			return cue.cmp, true
		}
	}
	return "", false
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}
