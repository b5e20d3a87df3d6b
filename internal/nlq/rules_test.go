package nlq

import (
	"context"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// assertPlaceholderDiscipline checks the Query invariant: placeholders are
// $1..$n in first-use order, none skipped or reused, one argument each.
func assertPlaceholderDiscipline(t *testing.T, q Query) {
	t.Helper()
	found := placeholderPattern.FindAllString(q.SQL, -1)
	if len(found) != len(q.Args) {
		t.Fatalf("placeholder count %d != len(args) %d in %q", len(found), len(q.Args), q.SQL)
	}
	for i, ph := range found {
		want := "$" + strconv.Itoa(i+1)
		if ph != want {
			t.Fatalf("placeholder %d is %s, want %s in %q", i, ph, want, q.SQL)
		}
	}
}

func compile(t *testing.T, question string) Query {
	t.Helper()
	q, err := NewRuleEngine().Compile(context.Background(), question)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", question, err)
	}
	assertPlaceholderDiscipline(t, q)
	return q
}

func TestEndToEndCountVideosByCreatorAndRange(t *testing.T) {
	q := compile(t, "Сколько видео у креатора с id "+sampleHexID+" вышло с 1 ноября 2025 по 5 ноября 2025 включительно?")

	if q.Intent != "count_all" {
		t.Fatalf("Intent = %q", q.Intent)
	}
	want := "SELECT COUNT(*) FROM videos WHERE creator_id = $1 AND video_created_at >= $2 AND video_created_at < $3"
	if q.SQL != want {
		t.Fatalf("SQL = %q, want %q", q.SQL, want)
	}
	wantArgs := []any{sampleHexID, utc(2025, time.November, 1), utc(2025, time.November, 6)}
	if !reflect.DeepEqual(q.Args, wantArgs) {
		t.Fatalf("Args = %v, want %v", q.Args, wantArgs)
	}
}

func TestSumDeltaWithCreatorJoins(t *testing.T) {
	q := compile(t, "На сколько выросли просмотры у креатора "+sampleHexID+" с 1 по 5 ноября 2025?")

	if q.Intent != "sum_delta" {
		t.Fatalf("Intent = %q", q.Intent)
	}
	want := "SELECT COALESCE(SUM(s.delta_views_count), 0) FROM video_snapshots s JOIN videos v ON v.id = s.video_id" +
		" WHERE v.creator_id = $1 AND s.created_at >= $2 AND s.created_at < $3"
	if q.SQL != want {
		t.Fatalf("SQL = %q", q.SQL)
	}
	if q.Args[0] != sampleHexID {
		t.Fatalf("Args[0] = %v", q.Args[0])
	}
}

func TestSumDeltaWithoutCreatorSkipsJoin(t *testing.T) {
	q := compile(t, "На сколько вырос прирост лайков 28 ноября 2025?")

	want := "SELECT COALESCE(SUM(delta_likes_count), 0) FROM video_snapshots WHERE created_at >= $1 AND created_at < $2"
	if q.SQL != want {
		t.Fatalf("SQL = %q", q.SQL)
	}
}

func TestDistinctNewVideosWithMonthFilter(t *testing.T) {
	q := compile(t, "Сколько разных видео получили новые лайки за ноябрь 2025?")

	if q.Intent != "distinct_new" {
		t.Fatalf("Intent = %q", q.Intent)
	}
	want := "SELECT COUNT(DISTINCT video_id) FROM video_snapshots WHERE delta_likes_count > 0 AND created_at >= $1 AND created_at < $2"
	if q.SQL != want {
		t.Fatalf("SQL = %q", q.SQL)
	}
	wantArgs := []any{utc(2025, time.November, 1), utc(2025, time.December, 1)}
	if !reflect.DeepEqual(q.Args, wantArgs) {
		t.Fatalf("Args = %v, want %v", q.Args, wantArgs)
	}
}

func TestCountFilteredByThreshold(t *testing.T) {
	q := compile(t, "Сколько видео набрали не меньше 100к просмотров?")

	if q.Intent != "count_filtered" {
		t.Fatalf("Intent = %q", q.Intent)
	}
	want := "SELECT COUNT(*) FROM videos WHERE views_count >= $1"
	if q.SQL != want {
		t.Fatalf("SQL = %q", q.SQL)
	}
	if q.Args[0] != int64(100000) {
		t.Fatalf("Args[0] = %v", q.Args[0])
	}
}

func TestCountFilteredMagnitudeSuffix(t *testing.T) {
	q := compile(t, "Сколько видео с больше 2 млн просмотров?")
	if q.Intent != "count_filtered" {
		t.Fatalf("Intent = %q", q.Intent)
	}
	if q.Args[0] != int64(2000000) {
		t.Fatalf("Args[0] = %v", q.Args[0])
	}
}

func TestSumFinalTotals(t *testing.T) {
	q := compile(t, "Сколько всего просмотров набрали видео за ноябрь 2025?")

	if q.Intent != "sum_final" {
		t.Fatalf("Intent = %q", q.Intent)
	}
	want := "SELECT COALESCE(SUM(views_count), 0) FROM videos WHERE video_created_at >= $1 AND video_created_at < $2"
	if q.SQL != want {
		t.Fatalf("SQL = %q", q.SQL)
	}
}

func TestRulePriorityGrowthBeatsComparator(t *testing.T) {
	// Both the growth cue and a comparator+threshold are present; the
	// ordered table must resolve to sum_delta, never count_filtered.
	q := compile(t, "На сколько выросли просмотры у видео где больше 100 000 просмотров?")
	if q.Intent != "sum_delta" {
		t.Fatalf("Intent = %q, want sum_delta", q.Intent)
	}
}

func TestUUIDWithCreatorCueFiltersCreator(t *testing.T) {
	q := compile(t, "Сколько видео у креатора "+sampleUUID+" вышло 28 ноября 2025?")

	want := "SELECT COUNT(*) FROM videos WHERE creator_id = $1 AND video_created_at >= $2 AND video_created_at < $3"
	if q.SQL != want {
		t.Fatalf("SQL = %q", q.SQL)
	}
	if q.Args[0] != sampleUUID {
		t.Fatalf("Args[0] = %v", q.Args[0])
	}
}

func TestUUIDWithoutCreatorCueFiltersVideo(t *testing.T) {
	q := compile(t, "Сколько всего лайков у видео "+sampleUUID+"?")

	if q.Intent != "sum_final" {
		t.Fatalf("Intent = %q", q.Intent)
	}
	want := "SELECT COALESCE(SUM(likes_count), 0) FROM videos WHERE id = $1"
	if q.SQL != want {
		t.Fatalf("SQL = %q", q.SQL)
	}
}

func TestInjectionSafetyUserTextNeverReachesSQL(t *testing.T) {
	questions := []string{
		"Сколько видео у креатора " + sampleHexID + " вышло 28 ноября 2025?",
		"Сколько видео '; DROP TABLE videos; -- вышло с 1 по 5 ноября 2025?",
		"Сколько разных видео получили новые жалобы за октябрь 2025?",
	}
	for _, question := range questions {
		q, err := NewRuleEngine().Compile(context.Background(), question)
		if err != nil {
			t.Fatalf("Compile(%q) error = %v", question, err)
		}
		assertPlaceholderDiscipline(t, q)
		if strings.Contains(q.SQL, sampleHexID) {
			t.Fatalf("identifier leaked into SQL text: %q", q.SQL)
		}
		if strings.Contains(q.SQL, "DROP") {
			t.Fatalf("user text leaked into SQL text: %q", q.SQL)
		}
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	question := "Сколько видео у креатора с id " + sampleHexID + " вышло с 1 ноября 2025 по 5 ноября 2025?"
	engine := NewRuleEngine()

	first, err := engine.Compile(context.Background(), question)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	second, err := engine.Compile(context.Background(), question)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated compilation differs: %+v vs %+v", first, second)
	}
}

func TestCompileUnparseable(t *testing.T) {
	for _, question := range []string{"", "Привет! Как дела?", "расскажи анекдот"} {
		_, err := NewRuleEngine().Compile(context.Background(), question)
		if err != ErrUnparseable {
			t.Fatalf("Compile(%q) error = %v, want ErrUnparseable", question, err)
		}
	}
}
