package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/domain/article"
	"github.com/timory/timory-hub/internal/domain/comment"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/notification"
	"github.com/timory/timory-hub/internal/domain/shared"
	"github.com/timory/timory-hub/internal/domain/watch"
)

// Store binds every repository to one Querier: the pool for standalone
// reads, a transaction inside UnitOfWork.Do.
type Store struct {
	q Querier
}

// NewStore creates a store over q.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

func (s *Store) Members() member.Repository             { return NewMemberRepository(s.q) }
func (s *Store) Watches() watch.Repository              { return NewWatchRepository(s.q) }
func (s *Store) Articles() article.Repository           { return NewArticleRepository(s.q) }
func (s *Store) Comments() comment.Repository           { return NewCommentRepository(s.q) }
func (s *Store) Likes() engagement.LikeRepository       { return NewLikeRepository(s.q) }
func (s *Store) Views() engagement.ViewRepository       { return NewViewRepository(s.q) }
func (s *Store) Notifications() notification.Repository { return NewNotificationRepository(s.q) }
func (s *Store) MemberRanks() member.RankRepository     { return NewMemberRepository(s.q) }
func (s *Store) WatchRanks() watch.RankRepository       { return NewWatchRepository(s.q) }

// UnitOfWork runs engagement operations inside one transaction.
type UnitOfWork struct {
	conn *Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Do runs fn in a transaction. Errors from fn roll the transaction back
// and are returned as is. Commit and rollback failures leave the outcome
// unknown and are reported as shared.ErrPartialFailure.
func (u *UnitOfWork) Do(ctx context.Context, op string, fn func(ctx context.Context, s appengagement.Store) error) error {
	err := u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(ctx, NewStore(tx))
	})

	var outcome *TxOutcomeError
	if errors.As(err, &outcome) {
		return shared.WrapError("uow", op, shared.ErrPartialFailure, shared.MsgPartiallyApplied, err)
	}
	return err
}
