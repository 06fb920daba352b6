package postgres

import (
	"context"
	"fmt"
)

// counterSource pairs a denormalized counter with the fact table it mirrors.
type counterSource struct {
	Name   string // e.g. "watches.watch_likes"
	table  string
	column string
	facts  string // SELECT ref, COUNT(*) n ... GROUP BY ref
}

func likesOf(group string) string {
	return `SELECT like_ref_id AS ref, COUNT(*) AS n FROM likes WHERE like_group = '` + group + `' GROUP BY like_ref_id`
}

func viewsOf(group string) string {
	return `SELECT view_ref_id AS ref, COUNT(*) AS n FROM views WHERE view_group = '` + group + `' GROUP BY view_ref_id`
}

func commentsOf(group string) string {
	return `SELECT comment_ref_id AS ref, COUNT(*) AS n FROM comments
		WHERE comment_group = '` + group + `' AND comment_status = 'ACTIVE' GROUP BY comment_ref_id`
}

var counterSources = []counterSource{
	{"watches.watch_likes", "watches", "watch_likes", likesOf("WATCH")},
	{"watches.watch_views", "watches", "watch_views", viewsOf("WATCH")},
	{"watches.watch_comments", "watches", "watch_comments", commentsOf("WATCH")},
	{"board_articles.article_likes", "board_articles", "article_likes", likesOf("ARTICLE")},
	{"board_articles.article_views", "board_articles", "article_views", viewsOf("ARTICLE")},
	{"board_articles.article_comments", "board_articles", "article_comments", commentsOf("ARTICLE")},
	{"members.member_likes", "members", "member_likes", likesOf("MEMBER")},
	{"members.member_views", "members", "member_views", viewsOf("MEMBER")},
	{"members.member_comments", "members", "member_comments", commentsOf("MEMBER")},
}

func (s counterSource) sql() string {
	return fmt.Sprintf(`
		UPDATE %[1]s t SET %[2]s = COALESCE(f.n, 0)
		FROM %[1]s src LEFT JOIN (%[3]s) f ON f.ref = src.id
		WHERE t.id = src.id AND t.%[2]s <> COALESCE(f.n, 0)`,
		s.table, s.column, s.facts)
}

// Reconciler rewrites denormalized counters that drifted from the fact tables.
type Reconciler struct {
	q Querier
}

// NewReconciler creates a reconciler over q.
func NewReconciler(q Querier) *Reconciler {
	return &Reconciler{q: q}
}

// Reconcile runs one correcting UPDATE per counter and returns the number
// of rows fixed per counter name. It stops at the first failing statement.
func (r *Reconciler) Reconcile(ctx context.Context) (map[string]int64, error) {
	fixed := make(map[string]int64, len(counterSources))
	for _, src := range counterSources {
		tag, err := r.q.Exec(ctx, src.sql())
		if err != nil {
			return fixed, fmt.Errorf("reconcile %s: %w", src.Name, err)
		}
		fixed[src.Name] = tag.RowsAffected()
	}
	return fixed, nil
}
