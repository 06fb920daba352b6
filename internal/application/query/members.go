package query

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// MemberQueries serves member lists.
type MemberQueries struct {
	deps Deps
}

// NewMemberQueries creates member queries.
func NewMemberQueries(deps Deps) *MemberQueries {
	return &MemberQueries{deps: deps}
}

// Dealers lists ACTIVE dealers, optionally filtered by nick.
func (q *MemberQueries) Dealers(ctx context.Context, viewerID, text string, p shared.Paging) (shared.Page[*member.Member], error) {
	return q.list(ctx, member.Filter{Types: []member.Type{member.TypeDealer}, Statuses: []member.Status{member.StatusActive}, Text: text}, p, viewerID)
}

// Brands lists ACTIVE brands, optionally filtered by nick.
func (q *MemberQueries) Brands(ctx context.Context, viewerID, text string, p shared.Paging) (shared.Page[*member.Member], error) {
	return q.list(ctx, member.Filter{Types: []member.Type{member.TypeBrand}, Statuses: []member.Status{member.StatusActive}, Text: text}, p, viewerID)
}

// ByAdmin lists members in any status.
func (q *MemberQueries) ByAdmin(ctx context.Context, f member.Filter, p shared.Paging) (shared.Page[*member.Member], error) {
	return q.list(ctx, f, p, "")
}

// TopDealers returns up to n ACTIVE dealers by memberRank. The cached board
// is preferred; the database answers when it is missing.
func (q *MemberQueries) TopDealers(ctx context.Context, n int) ([]*member.Member, error) {
	n = topSize(n, q.deps.MaxLimit)
	if ids, ok := q.deps.cachedTop(ctx, member.RankBoard, n); ok {
		items, err := q.deps.Members.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make([]*member.Member, 0, len(items))
		for _, m := range items {
			if m.IsRankable() {
				out = append(out, m)
			}
		}
		return out, nil
	}

	page, err := q.deps.Members.List(ctx,
		member.Filter{Types: []member.Type{member.TypeDealer}, Statuses: []member.Status{member.StatusActive}},
		shared.Paging{Page: 1, Limit: n, Sort: "memberRank", Direction: shared.Desc}, "")
	if err != nil {
		return nil, err
	}
	return page.List, nil
}

func (q *MemberQueries) list(ctx context.Context, f member.Filter, p shared.Paging, viewerID string) (shared.Page[*member.Member], error) {
	p, err := q.deps.paging("member", p, member.AllowedSorts)
	if err != nil {
		return shared.Page[*member.Member]{}, err
	}
	if err := validEnums("member", "memberType", f.Types); err != nil {
		return shared.Page[*member.Member]{}, err
	}
	if err := validEnums("member", "memberStatus", f.Statuses); err != nil {
		return shared.Page[*member.Member]{}, err
	}
	return q.deps.Members.List(ctx, f, p, viewerID)
}

// cachedTop reads a board from the cache. A miss or a cache failure falls
// back to the database.
func (d Deps) cachedTop(ctx context.Context, board string, n int) ([]string, bool) {
	if d.TopLists == nil {
		return nil, false
	}
	ids, err := d.TopLists.TopIDs(ctx, board, n)
	if err != nil {
		d.Logger.Debug().Err(err).Str("board", board).Msg("top list cache unavailable, reading database")
		return nil, false
	}
	return ids, true
}

func topSize(n, maxLimit int) int {
	if n <= 0 {
		n = DefaultTopSize
	}
	if maxLimit > 0 && n > maxLimit {
		n = maxLimit
	}
	return n
}
