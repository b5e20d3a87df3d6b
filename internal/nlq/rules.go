package nlq

import (
	"context"
	"strings"
)

// RuleEngine is the deterministic Compiler: a fixed, ordered list of
// (predicate, builder) pairs evaluated against the normalized question and
// its extracted entities. The first matching rule fully determines the
// query shape; there is no backtracking or merging.
type RuleEngine struct{}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

func (RuleEngine) Compile(_ context.Context, question string) (Query, error) {
	e := extractEntities(question)
	for _, r := range intentRules {
		if r.matches(e) {
			return r.build(e), nil
		}
	}
	return Query{}, ErrUnparseable
}

// entities holds everything the extractors found in one question. Absent
// entities keep their zero value with the corresponding flag unset.
type entities struct {
	text string

	metric    Metric
	hasMetric bool

	cmp          Comparator
	hasCmp       bool
	threshold    int64
	hasThreshold bool

	creatorID string
	videoID   string

	dates    DateRange
	hasDates bool
}

func extractEntities(question string) entities {
	t := Normalize(question)
	e := entities{text: t}

	e.metric, e.hasMetric = DetectMetric(t)
	e.cmp, e.hasCmp = DetectComparator(t)
	if e.hasCmp {
		// A threshold only means anything next to a comparator; years and
		// day numbers would otherwise masquerade as one.
		e.threshold, e.hasThreshold = ExtractInt(t)
	}

	if id, ok := ExtractCreatorID(t); ok {
		e.creatorID = id
	}
	if id, ok := ExtractVideoID(t); ok {
		e.videoID = id
	}
	// A dashed UUID matches both identifier shapes. One token filters one
	// column: a creator cue claims it for creator_id, otherwise it is a
	// video id.
	if e.creatorID != "" && e.creatorID == e.videoID {
		if strings.Contains(t, "креатор") || strings.Contains(t, "автор") {
			e.videoID = ""
		} else {
			e.creatorID = ""
		}
	}

	if dr, ok := ExtractDateRange(t); ok {
		e.dates, e.hasDates = dr, true
	} else if mr, ok := ExtractMonthRange(t); ok {
		e.dates, e.hasDates = mr, true
	}

	return e
}

var growthCues = []string{"вырос", "прирост", "увелич", "прибав"}

type intentRule struct {
	name    string
	matches func(e entities) bool
	build   func(e entities) Query
}

// Ordered intent table: first satisfied predicate wins. The order encodes
// disambiguation (a growth question with a stray comparator is still a
// delta sum, not a filtered count), so entries must not be re-sorted.
var intentRules = []intentRule{
	{
		name: "sum_delta",
		matches: func(e entities) bool {
			return e.hasMetric && containsAny(e.text, growthCues)
		},
		build: buildSumDelta,
	},
	{
		name: "distinct_new",
		matches: func(e entities) bool {
			if !e.hasMetric || !strings.Contains(e.text, "видео") {
				return false
			}
			received := strings.Contains(e.text, "нов") || strings.Contains(e.text, "получ")
			if !received {
				return false
			}
			distinct := strings.Contains(e.text, "разн") || strings.Contains(e.text, "уник")
			return distinct || strings.Contains(e.text, "сколько")
		},
		build: buildDistinctNew,
	},
	{
		name: "count_filtered",
		matches: func(e entities) bool {
			return e.hasMetric && e.hasCmp && e.hasThreshold && strings.Contains(e.text, "видео")
		},
		build: buildCountFiltered,
	},
	{
		name: "count_all",
		matches: func(e entities) bool {
			counting := strings.Contains(e.text, "сколько") || strings.Contains(e.text, "число")
			return strings.Contains(e.text, "видео") && counting && !e.hasMetric
		},
		build: buildCountAll,
	},
	{
		name: "sum_final",
		matches: func(e entities) bool {
			if !e.hasMetric {
				return false
			}
			if containsAny(e.text, []string{"всего", "суммар", "в сумме"}) {
				return true
			}
			return strings.Contains(e.text, "сколько") && !strings.Contains(e.text, "видео")
		},
		build: buildSumFinal,
	},
}

// buildSumDelta aggregates per-snapshot deltas. A creator filter forces a
// join because video_snapshots carries no creator column.
func buildSumDelta(e entities) Query {
	b := &sqlBuilder{}
	deltaCol := metricDeltaColumn[e.metric]

	join := e.creatorID != ""
	prefix := ""
	if join {
		prefix = "s."
	}

	var conds []string
	if join {
		conds = append(conds, "v."+colCreatorID+" = "+b.bind(e.creatorID))
	}
	if e.videoID != "" {
		conds = append(conds, prefix+colSnapshotVideo+" = "+b.bind(e.videoID))
	}
	conds = appendDateFilter(conds, b, e, prefix+colCreatedAt)

	sql := "SELECT COALESCE(SUM(" + prefix + deltaCol + "), 0) FROM " + tableSnapshots
	if join {
		sql += " s JOIN " + tableVideos + " v ON v." + colVideoID + " = s." + colSnapshotVideo
	}
	sql += whereClause(conds)

	return Query{SQL: sql, Args: b.args, Intent: "sum_delta"}
}

// buildDistinctNew counts distinct videos whose metric delta was positive.
func buildDistinctNew(e entities) Query {
	b := &sqlBuilder{}
	deltaCol := metricDeltaColumn[e.metric]

	join := e.creatorID != ""
	prefix := ""
	if join {
		prefix = "s."
	}

	conds := []string{prefix + deltaCol + " > 0"}
	if join {
		conds = append(conds, "v."+colCreatorID+" = "+b.bind(e.creatorID))
	}
	if e.videoID != "" {
		conds = append(conds, prefix+colSnapshotVideo+" = "+b.bind(e.videoID))
	}
	conds = appendDateFilter(conds, b, e, prefix+colCreatedAt)

	sql := "SELECT COUNT(DISTINCT " + prefix + colSnapshotVideo + ") FROM " + tableSnapshots
	if join {
		sql += " s JOIN " + tableVideos + " v ON v." + colVideoID + " = s." + colSnapshotVideo
	}
	sql += whereClause(conds)

	return Query{SQL: sql, Args: b.args, Intent: "distinct_new"}
}

// buildCountFiltered counts videos whose final counter clears a threshold.
func buildCountFiltered(e entities) Query {
	b := &sqlBuilder{}

	conds := []string{metricFinalColumn[e.metric] + " " + string(e.cmp) + " " + b.bind(e.threshold)}
	conds = appendVideoFilters(conds, b, e)

	return Query{
		SQL:    "SELECT COUNT(*) FROM " + tableVideos + whereClause(conds),
		Args:   b.args,
		Intent: "count_filtered",
	}
}

func buildCountAll(e entities) Query {
	b := &sqlBuilder{}
	conds := appendVideoFilters(nil, b, e)

	return Query{
		SQL:    "SELECT COUNT(*) FROM " + tableVideos + whereClause(conds),
		Args:   b.args,
		Intent: "count_all",
	}
}

func buildSumFinal(e entities) Query {
	b := &sqlBuilder{}
	conds := appendVideoFilters(nil, b, e)

	return Query{
		SQL: "SELECT COALESCE(SUM(" + metricFinalColumn[e.metric] + "), 0) FROM " + tableVideos +
			whereClause(conds),
		Args:   b.args,
		Intent: "sum_final",
	}
}

// appendVideoFilters appends the optional filters for videos-rooted rules
// in the fixed order: creator, video id, date range.
func appendVideoFilters(conds []string, b *sqlBuilder, e entities) []string {
	if e.creatorID != "" {
		conds = append(conds, colCreatorID+" = "+b.bind(e.creatorID))
	}
	if e.videoID != "" {
		conds = append(conds, colVideoID+" = "+b.bind(e.videoID))
	}
	return appendDateFilter(conds, b, e, colVideoCreatedAt)
}

func appendDateFilter(conds []string, b *sqlBuilder, e entities, column string) []string {
	if !e.hasDates {
		return conds
	}
	return append(conds,
		column+" >= "+b.bind(e.dates.Start),
		column+" < "+b.bind(e.dates.EndExclusive),
	)
}
