package memory

import (
	"context"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// LikeRepository implements engagement.LikeRepository.
type LikeRepository struct {
	db *DB
}

func (r *LikeRepository) Delete(ctx context.Context, memberID, refID string, group engagement.Group) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("like.Delete"); err != nil {
		return false, err
	}
	k := likeKey{member: memberID, ref: refID, group: group}
	if _, ok := r.db.t.likes[k]; !ok {
		return false, nil
	}
	delete(r.db.t.likes, k)
	return true, nil
}

func (r *LikeRepository) Insert(ctx context.Context, like *engagement.Like) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("like.Insert"); err != nil {
		return err
	}
	k := likeKey{member: like.MemberID, ref: like.RefID, group: like.Group}
	if _, ok := r.db.t.likes[k]; ok {
		return shared.NewDomainError("like", "Insert", shared.ErrAlreadyExists, "like already exists")
	}
	r.db.t.likes[k] = *like
	return nil
}

func (r *LikeRepository) Find(ctx context.Context, memberID, refID string) (*engagement.Like, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for k, l := range r.db.t.likes {
		if k.member == memberID && k.ref == refID {
			return &l, nil
		}
	}
	return nil, shared.NotFound("like", "Find")
}

// Count returns the number of stored likes.
func (r *LikeRepository) Count() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.t.likes)
}

// ViewRepository implements engagement.ViewRepository.
type ViewRepository struct {
	db *DB
}

func (r *ViewRepository) InsertIfAbsent(ctx context.Context, view *engagement.View, scope engagement.ViewScope) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("view.InsertIfAbsent"); err != nil {
		return false, err
	}
	for _, v := range r.db.t.views {
		if v.MemberID != view.MemberID || v.RefID != view.RefID {
			continue
		}
		if scope == engagement.ViewScopeGlobal || v.Group == view.Group {
			return false, nil
		}
	}
	r.db.t.views = append(r.db.t.views, *view)
	return true, nil
}

// Count returns the number of stored views.
func (r *ViewRepository) Count() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.t.views)
}

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	db *DB
}

func (r *NotificationRepository) InsertMany(ctx context.Context, items []*notification.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.fail("notification.InsertMany"); err != nil {
		return err
	}
	for _, n := range items {
		r.db.t.notifications = append(r.db.t.notifications, *n)
	}
	return nil
}

func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverID string, p shared.Paging) (shared.Page[*notification.Notification], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var items []*notification.Notification
	for _, n := range r.db.t.notifications {
		if n.ReceiverID == receiverID {
			cp := n
			items = append(items, &cp)
		}
	}
	return paginate(items, p, func(n *notification.Notification) sortable {
		return sortable{id: n.ID, key: timeKey(n.CreatedAt)}
	}), nil
}
