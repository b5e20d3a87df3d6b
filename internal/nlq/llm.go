package nlq

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ChatClient is the remote text-completion dependency of LLMCompiler.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// LLMCompiler is the alternate Compiler strategy: it asks a remote
// completion service for a structured query plan and synthesizes SQL from
// that plan against the same whitelist as the rule engine. A malformed or
// unknown plan degrades to the safe zero query, never to free-text SQL.
type LLMCompiler struct {
	client ChatClient
}

func NewLLMCompiler(client ChatClient) *LLMCompiler {
	return &LLMCompiler{client: client}
}

const planPrompt = `Ты парсер запросов к базе статистики видео.

Верни ТОЛЬКО JSON (никакого текста) строго по схеме:

{
  "op": "count" | "sum",
  "metric": "videos" | "views" | "likes" | "comments" | "reports"
           | "delta_views" | "delta_likes" | "delta_comments" | "delta_reports",
  "filters": {
     "creator_id": "<string>" | null,
     "month": {"year": 2025, "month": 11} | null,
     "day": "YYYY-MM-DD" | null,
     "views_gt": 10000 | null,
     "first_hours": 3 | null
  }
}

Подсказки:
- "сколько видео" -> op=count, metric=videos
- "суммарное количество просмотров/лайков/комментариев/жалоб" -> op=sum, metric=views/likes/comments/reports (итоговая статистика из videos)
- "прирост просмотров/лайков/комментариев/жалоб" -> op=sum, metric=delta_views/delta_likes/delta_comments/delta_reports (из video_snapshots)
- "первые N часов после публикации" -> filters.first_hours = N
- "за <месяц> <год>" / "в <месяце> <год>" -> filters.month`

type plan struct {
	Op      string      `json:"op"`
	Metric  string      `json:"metric"`
	Filters planFilters `json:"filters"`
}

type planFilters struct {
	CreatorID  string     `json:"creator_id"`
	Month      *planMonth `json:"month"`
	Day        string     `json:"day"`
	ViewsGT    *int64     `json:"views_gt"`
	FirstHours *int       `json:"first_hours"`
}

type planMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (c *LLMCompiler) Compile(ctx context.Context, question string) (Query, error) {
	raw, err := c.client.Chat(ctx, planPrompt, question)
	if err != nil {
		return Query{}, fmt.Errorf("request query plan: %w", err)
	}
	p := decodePlan(raw)
	p = refinePlan(p, question)
	return buildPlanQuery(p), nil
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decodePlan pulls the first JSON object out of the completion text.
// Anything undecodable collapses to the zero plan, which synthesizes the
// safe zero query downstream.
func decodePlan(raw string) plan {
	var p plan
	object := jsonObjectPattern.FindString(raw)
	if object == "" {
		return p
	}
	if err := json.Unmarshal([]byte(object), &p); err != nil {
		return plan{}
	}
	return p
}

var (
	growthMetricOverrides = []struct {
		stem   string
		metric string
	}{
		{"просмотр", "delta_views"},
		{"лайк", "delta_likes"},
		{"коммент", "delta_comments"},
		{"жалоб", "delta_reports"},
	}
	firstHoursPattern = regexp.MustCompile(`первые\s+(\d+)\s+час`)
)

// refinePlan overrides the model's answer with deterministic extraction for
// the cues the model is known to miss: growth phrasing, calendar-month
// filters, and the first-N-hours window.
func refinePlan(p plan, question string) plan {
	t := Normalize(question)

	if strings.Contains(t, "прирост") {
		for _, override := range growthMetricOverrides {
			if strings.Contains(t, override.stem) {
				p.Op = "sum"
				p.Metric = override.metric
				break
			}
		}
	}

	if mr, ok := ExtractMonthRange(t); ok {
		p.Filters.Month = &planMonth{Year: mr.Start.Year(), Month: int(mr.Start.Month())}
	}

	if m := firstHoursPattern.FindStringSubmatch(t); m != nil {
		if hours, err := strconv.Atoi(m[1]); err == nil {
			p.Filters.FirstHours = &hours
		}
	}

	return p
}

// Plan metric names to whitelisted columns, per table root.
var (
	planFinalColumns = map[string]string{
		"views":    "views_count",
		"likes":    "likes_count",
		"comments": "comments_count",
		"reports":  "reports_count",
	}
	planDeltaColumns = map[string]string{
		"delta_views":    "delta_views_count",
		"delta_likes":    "delta_likes_count",
		"delta_comments": "delta_comments_count",
		"delta_reports":  "delta_reports_count",
	}
)

var zeroQuery = Query{SQL: "SELECT 0::bigint", Intent: "llm_zero"}

// buildPlanQuery synthesizes whitelist-only SQL from a plan. Every branch
// either maps plan fields onto fixed identifiers with bound arguments or
// bails out to the zero query.
func buildPlanQuery(p plan) Query {
	var (
		table      string
		selectExpr string
		timeColumn string
	)

	switch {
	case p.Op == "count" && p.Metric == "videos":
		table = tableVideos
		selectExpr = "COUNT(*)::bigint"
		timeColumn = colVideoCreatedAt
	case p.Op == "sum" && planFinalColumns[p.Metric] != "":
		table = tableVideos
		selectExpr = "COALESCE(SUM(" + planFinalColumns[p.Metric] + "), 0)::bigint"
		timeColumn = colVideoCreatedAt
	case p.Op == "sum" && planDeltaColumns[p.Metric] != "":
		table = tableSnapshots
		selectExpr = "COALESCE(SUM(" + planDeltaColumns[p.Metric] + "), 0)::bigint"
		timeColumn = colCreatedAt
	default:
		return zeroQuery
	}

	b := &sqlBuilder{}
	joinSQL := ""
	prefix := ""
	var conds []string

	if p.Filters.FirstHours != nil {
		hours := *p.Filters.FirstHours
		// The publication window only exists relative to videos rows.
		if hours <= 0 || table != tableSnapshots {
			return zeroQuery
		}
		joinSQL = " JOIN " + tableVideos + " v ON v." + colVideoID + " = " + tableSnapshots + "." + colSnapshotVideo
		prefix = tableSnapshots + "."
		conds = append(conds,
			prefix+colCreatedAt+" >= v."+colVideoCreatedAt,
			prefix+colCreatedAt+" < v."+colVideoCreatedAt+" + ("+b.bind(hours)+"::int * interval '1 hour')",
		)
	}

	if p.Filters.Month != nil {
		start, ok := utcDate(p.Filters.Month.Year, time.Month(p.Filters.Month.Month), 1)
		if !ok {
			return zeroQuery
		}
		conds = append(conds,
			prefix+timeColumn+" >= "+b.bind(start),
			prefix+timeColumn+" < "+b.bind(start.AddDate(0, 1, 0)),
		)
	}

	if p.Filters.Day != "" {
		day, err := time.ParseInLocation("2006-01-02", p.Filters.Day, time.UTC)
		if err != nil {
			return zeroQuery
		}
		conds = append(conds,
			prefix+colCreatedAt+" >= "+b.bind(day),
			prefix+colCreatedAt+" < "+b.bind(day.AddDate(0, 0, 1)),
		)
	}

	if p.Filters.CreatorID != "" && table == tableVideos {
		conds = append(conds, colCreatorID+" = "+b.bind(p.Filters.CreatorID))
	}

	if p.Filters.ViewsGT != nil && table == tableVideos {
		conds = append(conds, planFinalColumns["views"]+" > "+b.bind(*p.Filters.ViewsGT))
	}

	return Query{
		SQL:    "SELECT " + selectExpr + " FROM " + table + joinSQL + whereClause(conds),
		Args:   b.args,
		Intent: "llm_" + p.Op + "_" + p.Metric,
	}
}
