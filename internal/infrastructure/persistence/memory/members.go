package memory

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// MemberRepository implements member.Repository and member.RankRepository.
type MemberRepository struct {
	db *DB
}

func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("member.Create"); err != nil {
		return err
	}
	for _, existing := range r.db.t.members {
		if existing.Nick == m.Nick {
			return shared.NewDomainError("member", "Create", shared.ErrAlreadyExists, "nick is already in use")
		}
	}
	stored := *m
	stored.MeLiked = nil
	r.db.t.members[m.ID] = stored
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id string, statuses ...member.Status) (*member.Member, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("member.GetByID"); err != nil {
		return nil, err
	}
	m, ok := r.db.t.members[id]
	if !ok || !in(m.Status, statuses) {
		return nil, shared.NotFound("member", "GetByID")
	}
	return &m, nil
}

func (r *MemberRepository) UpdateProfile(ctx context.Context, id string, upd member.ProfileUpdate) (*member.Member, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.t.members[id]
	if !ok || m.Status != member.StatusActive {
		return nil, shared.NotFound("member", "UpdateProfile")
	}
	if upd.Nick != nil {
		for otherID, other := range r.db.t.members {
			if otherID != id && other.Nick == *upd.Nick {
				return nil, shared.NewDomainError("member", "UpdateProfile", shared.ErrAlreadyExists, "nick is already in use")
			}
		}
	}
	applyProfile(&m, upd)
	m.UpdatedAt = r.db.now().UTC()
	r.db.t.members[id] = m
	return &m, nil
}

func (r *MemberRepository) UpdateByAdmin(ctx context.Context, id string, upd member.AdminUpdate) (*member.Member, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.t.members[id]
	if !ok {
		return nil, shared.NotFound("member", "UpdateByAdmin")
	}
	applyProfile(&m, upd.ProfileUpdate)
	if upd.Type != nil {
		m.Type = *upd.Type
	}
	if upd.Status != nil {
		m.Status = *upd.Status
	}
	m.UpdatedAt = r.db.now().UTC()
	r.db.t.members[id] = m
	return &m, nil
}

func applyProfile(m *member.Member, upd member.ProfileUpdate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.Nick, upd.Nick)
	set(&m.FullName, upd.FullName)
	set(&m.Image, upd.Image)
	set(&m.Address, upd.Address)
	set(&m.Desc, upd.Desc)
	set(&m.Phone, upd.Phone)
}

func memberCounter(m *member.Member, c member.Counter) *int {
	switch c {
	case member.CounterWatches:
		return &m.Watches
	case member.CounterArticles:
		return &m.Articles
	case member.CounterFollowers:
		return &m.Followers
	case member.CounterFollowings:
		return &m.Followings
	case member.CounterPoints:
		return &m.Points
	case member.CounterLikes:
		return &m.Likes
	case member.CounterViews:
		return &m.Views
	case member.CounterComments:
		return &m.Comments
	case member.CounterWarnings:
		return &m.Warnings
	case member.CounterBlocks:
		return &m.Blocks
	}
	return nil
}

func (r *MemberRepository) AdjustCounter(ctx context.Context, id string, counter member.Counter, delta int) (*member.Member, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("member.AdjustCounter"); err != nil {
		return nil, err
	}
	m, ok := r.db.t.members[id]
	if !ok {
		return nil, shared.NotFound("member", "AdjustCounter")
	}
	field := memberCounter(&m, counter)
	if field == nil {
		return nil, shared.Validation("member", "AdjustCounter", "unknown counter")
	}
	if err := counterResult("member", *field+delta); err != nil {
		return nil, err
	}
	*field += delta
	r.db.t.members[id] = m
	return &m, nil
}

func memberSortKey(m *member.Member, key string) float64 {
	switch key {
	case "updatedAt":
		return timeKey(m.UpdatedAt)
	case "memberLikes":
		return float64(m.Likes)
	case "memberViews":
		return float64(m.Views)
	case "memberRank":
		return float64(m.Rank)
	default:
		return timeKey(m.CreatedAt)
	}
}

func (r *MemberRepository) List(ctx context.Context, f member.Filter, p shared.Paging, viewerID string) (shared.Page[*member.Member], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("member.List"); err != nil {
		return shared.Page[*member.Member]{}, err
	}

	var items []*member.Member
	for _, m := range r.db.t.members {
		if !in(m.Type, f.Types) || !in(m.Status, f.Statuses) {
			continue
		}
		if f.Text != "" && !containsFold(m.Nick, f.Text) {
			continue
		}
		cp := m
		cp.MeLiked = r.db.meLiked(viewerID, m.ID)
		items = append(items, &cp)
	}

	return paginate(items, p, func(m *member.Member) sortable {
		return sortable{id: m.ID, key: memberSortKey(m, p.Sort)}
	}), nil
}

func (r *MemberRepository) FilterDealers(ctx context.Context, ids []string) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.db.t.members[id]; ok && m.Type == member.TypeDealer {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *MemberRepository) GetByIDs(ctx context.Context, ids []string) ([]*member.Member, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]*member.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.db.t.members[id]; ok {
			cp := m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemberRepository) ResetDealerRanks(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("member.ResetDealerRanks"); err != nil {
		return 0, err
	}
	var n int64
	for id, m := range r.db.t.members {
		if m.IsRankable() {
			m.Rank = 0
			r.db.t.members[id] = m
			n++
		}
	}
	return n, nil
}

func (r *MemberRepository) ListUnrankedDealers(ctx context.Context) ([]*member.Member, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*member.Member
	for _, m := range r.db.t.members {
		if m.IsRankable() && m.Rank == 0 {
			cp := m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemberRepository) SetRank(ctx context.Context, id string, rank int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("member.SetRank"); err != nil {
		return err
	}
	m, ok := r.db.t.members[id]
	if !ok {
		return shared.NotFound("member", "SetRank")
	}
	m.Rank = rank
	r.db.t.members[id] = m
	return nil
}
