package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FILTER BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// filter accumulates WHERE conditions and their positional arguments.
// Empty inputs add nothing.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) arg(v any) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

func (f *filter) raw(cond string) {
	f.conds = append(f.conds, cond)
}

func (f *filter) eq(col string, v string) {
	if v == "" {
		return
	}
	f.conds = append(f.conds, col+" = "+f.arg(v))
}

func (f *filter) in(col string, vals []string) {
	if len(vals) == 0 {
		return
	}
	f.conds = append(f.conds, col+" = ANY("+f.arg(vals)+")")
}

// has matches rows whose array column contains v.
func (f *filter) has(arrayCol, v string) {
	if v == "" {
		return
	}
	f.conds = append(f.conds, f.arg(v)+" = ANY("+arrayCol+")")
}

func (f *filter) between(col string, lo, hi any) {
	f.conds = append(f.conds, col+" BETWEEN "+f.arg(lo)+" AND "+f.arg(hi))
}

// contains is a case-insensitive substring match with LIKE metacharacters escaped.
func (f *filter) contains(col, text string) {
	if text == "" {
		return
	}
	f.conds = append(f.conds, col+` ILIKE `+f.arg("%"+escapeLike(text)+"%")+` ESCAPE '\'`)
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func strs[T ~string](vals []T) []string {
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST QUERY
// ══════════════════════════════════════════════════════════════════════════════

// profileColumns are appended when a list joins the owning member as m.
const profileColumns = "m.id, m.member_type, m.member_nick, m.member_full_name, m.member_image, m.member_rank"

// listQuery describes one paged listing. The selected row is columns, then
// profileColumns when ownerCol is set, then a me_liked boolean.
type listQuery struct {
	from     string            // "watches w"
	columns  string            // entity columns
	ownerCol string            // joins members m ON m.id = ownerCol
	likeRef  string            // expression compared with likes.like_ref_id
	sorts    map[string]string // sort key -> column
	tiebreak string            // unique column for stable pages
	order    string            // fixed ORDER BY, overrides sorts
	where    filter
}

func (l *listQuery) countSQL() string {
	return "SELECT COUNT(*) FROM " + l.from + l.where.where()
}

func (l *listQuery) pageSQL(p shared.Paging, viewerID string) (string, []any, error) {
	f := l.where
	f.args = append([]any(nil), l.where.args...)

	liked := "FALSE"
	if viewerID != "" && l.likeRef != "" {
		liked = "EXISTS (SELECT 1 FROM likes lk WHERE lk.member_id = " + f.arg(viewerID) +
			" AND lk.like_ref_id = " + l.likeRef + ")"
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(l.columns)
	if l.ownerCol != "" {
		b.WriteString(", ")
		b.WriteString(profileColumns)
	}
	b.WriteString(", ")
	b.WriteString(liked)
	b.WriteString(" AS me_liked FROM ")
	b.WriteString(l.from)
	if l.ownerCol != "" {
		b.WriteString(" JOIN members m ON m.id = ")
		b.WriteString(l.ownerCol)
	}
	b.WriteString(f.where())

	b.WriteString(" ORDER BY ")
	if l.order != "" {
		b.WriteString(l.order)
	} else {
		col, ok := l.sorts[p.Sort]
		if !ok {
			return "", nil, fmt.Errorf("postgres: unsupported sort %q", p.Sort)
		}
		b.WriteString(col + " " + p.Direction.SQL())
		b.WriteString(", " + l.tiebreak + " " + p.Direction.SQL())
	}

	b.WriteString(" LIMIT " + f.arg(p.Limit) + " OFFSET " + f.arg(p.Offset()))
	return b.String(), f.args, nil
}

// fetchPage counts matches first and reads the window only when there are any.
func fetchPage[T any](
	ctx context.Context, q Querier, domain string,
	l *listQuery, p shared.Paging, viewerID string,
	scan func(rows pgx.Rows) (T, error),
) (shared.Page[T], error) {
	var total int
	if err := q.QueryRow(ctx, l.countSQL(), l.where.args...).Scan(&total); err != nil {
		return shared.Page[T]{}, shared.Storage(domain, "List", err)
	}
	if total == 0 {
		return shared.EmptyPage[T](), nil
	}

	sql, args, err := l.pageSQL(p, viewerID)
	if err != nil {
		return shared.Page[T]{}, shared.Validation(domain, "List", err.Error())
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return shared.Page[T]{}, shared.Storage(domain, "List", err)
	}
	defer rows.Close()

	list := make([]T, 0, p.Limit)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return shared.Page[T]{}, shared.Storage(domain, "List", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return shared.Page[T]{}, shared.Storage(domain, "List", err)
	}

	return shared.Page[T]{List: list, Total: total}, nil
}

// profileDest returns scan targets for profileColumns.
func profileDest(p *member.Profile) []any {
	return []any{&p.ID, &p.Type, &p.Nick, &p.FullName, &p.Image, &p.Rank}
}

// meLiked converts the me_liked column into the API shape:
// nil for anonymous viewers, an empty slice when not liked.
func meLiked(viewerID, refID string, liked bool) []shared.MeLiked {
	if viewerID == "" {
		return nil
	}
	if !liked {
		return []shared.MeLiked{}
	}
	return []shared.MeLiked{{MemberID: viewerID, LikeRefID: refID, MyFavorite: true}}
}
