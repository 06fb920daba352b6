package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS members (
    id UUID PRIMARY KEY,
    member_type VARCHAR(10) NOT NULL DEFAULT 'USER',
    member_status VARCHAR(10) NOT NULL DEFAULT 'ACTIVE',
    member_nick VARCHAR(50) NOT NULL UNIQUE,
    member_full_name VARCHAR(100) NOT NULL DEFAULT '',
    member_image TEXT NOT NULL DEFAULT '',
    member_address TEXT NOT NULL DEFAULT '',
    member_desc TEXT NOT NULL DEFAULT '',
    member_phone VARCHAR(20) NOT NULL,

    member_watches INTEGER NOT NULL DEFAULT 0,
    member_articles INTEGER NOT NULL DEFAULT 0,
    member_followers INTEGER NOT NULL DEFAULT 0,
    member_followings INTEGER NOT NULL DEFAULT 0,
    member_points INTEGER NOT NULL DEFAULT 0,
    member_likes INTEGER NOT NULL DEFAULT 0,
    member_views INTEGER NOT NULL DEFAULT 0,
    member_comments INTEGER NOT NULL DEFAULT 0,
    member_rank INTEGER NOT NULL DEFAULT 0,
    member_warnings INTEGER NOT NULL DEFAULT 0,
    member_blocks INTEGER NOT NULL DEFAULT 0,

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_member_type CHECK (member_type IN ('USER', 'DEALER', 'BRAND', 'ADMIN')),
    CONSTRAINT valid_member_status CHECK (member_status IN ('ACTIVE', 'BLOCK', 'DELETE')),
    CONSTRAINT non_negative_member_counters CHECK (
        member_watches >= 0 AND member_articles >= 0 AND member_followers >= 0 AND
        member_followings >= 0 AND member_points >= 0 AND member_likes >= 0 AND
        member_views >= 0 AND member_comments >= 0 AND member_rank >= 0 AND
        member_warnings >= 0 AND member_blocks >= 0
    )
);

CREATE INDEX IF NOT EXISTS idx_members_type_status ON members(member_type, member_status);
CREATE INDEX IF NOT EXISTS idx_members_rank ON members(member_rank DESC) WHERE member_type = 'DEALER';
`

const migration001Down = `DROP TABLE IF EXISTS members CASCADE;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: WATCHES AND ARTICLES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS watches (
    id UUID PRIMARY KEY,
    watch_type VARCHAR(12) NOT NULL,
    watch_status VARCHAR(10) NOT NULL DEFAULT 'ACTIVE',
    watch_location VARCHAR(12) NOT NULL,
    watch_address TEXT NOT NULL,
    watch_model_name VARCHAR(100) NOT NULL,
    watch_brand VARCHAR(100) NOT NULL,
    watch_color VARCHAR(30) NOT NULL DEFAULT '',
    watch_limited_edition BOOLEAN NOT NULL DEFAULT FALSE,
    watch_price NUMERIC(14,2) NOT NULL,
    watch_images TEXT[] NOT NULL DEFAULT '{}',
    watch_desc TEXT NOT NULL DEFAULT '',

    watch_views INTEGER NOT NULL DEFAULT 0,
    watch_likes INTEGER NOT NULL DEFAULT 0,
    watch_comments INTEGER NOT NULL DEFAULT 0,
    watch_rank INTEGER NOT NULL DEFAULT 0,

    member_id UUID NOT NULL REFERENCES members(id),
    dealer_ids UUID[] NOT NULL DEFAULT '{}',

    sold_at TIMESTAMP WITH TIME ZONE,
    deleted_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_watch_type CHECK (watch_type IN ('MECHANICAL', 'AUTOMATIC', 'QUARTZ', 'SMART')),
    CONSTRAINT valid_watch_status CHECK (watch_status IN ('HOLD', 'ACTIVE', 'SOLD', 'DELETE')),
    CONSTRAINT valid_watch_price CHECK (watch_price >= 0),
    CONSTRAINT non_negative_watch_counters CHECK (
        watch_views >= 0 AND watch_likes >= 0 AND watch_comments >= 0 AND watch_rank >= 0
    )
);

CREATE INDEX IF NOT EXISTS idx_watches_status_created ON watches(watch_status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_watches_member ON watches(member_id);
CREATE INDEX IF NOT EXISTS idx_watches_dealers ON watches USING GIN (dealer_ids);
CREATE INDEX IF NOT EXISTS idx_watches_rank ON watches(watch_rank DESC) WHERE watch_status = 'ACTIVE';

CREATE TABLE IF NOT EXISTS board_articles (
    id UUID PRIMARY KEY,
    article_category VARCHAR(12) NOT NULL,
    article_status VARCHAR(12) NOT NULL DEFAULT 'PUBLISHING',
    article_title VARCHAR(200) NOT NULL,
    article_content TEXT NOT NULL,
    article_image TEXT NOT NULL DEFAULT '',

    article_views INTEGER NOT NULL DEFAULT 0,
    article_likes INTEGER NOT NULL DEFAULT 0,
    article_comments INTEGER NOT NULL DEFAULT 0,

    member_id UUID NOT NULL REFERENCES members(id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_article_category CHECK (article_category IN ('FREE', 'RECOMMEND', 'NEWS', 'HUMOR')),
    CONSTRAINT valid_article_status CHECK (article_status IN ('PUBLISHING', 'DELETE', 'REMOVE')),
    CONSTRAINT non_negative_article_counters CHECK (
        article_views >= 0 AND article_likes >= 0 AND article_comments >= 0
    )
);

CREATE INDEX IF NOT EXISTS idx_articles_status_created ON board_articles(article_status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_member ON board_articles(member_id);
`

const migration002Down = `
DROP TABLE IF EXISTS board_articles CASCADE;
DROP TABLE IF EXISTS watches CASCADE;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: ENGAGEMENT FACTS
// ══════════════════════════════════════════════════════════════════════════════

// like_ref_id and view_ref_id point at members, watches or articles depending
// on the group, so they carry no foreign key.
const migration003Up = `
CREATE TABLE IF NOT EXISTS likes (
    id UUID PRIMARY KEY,
    like_group VARCHAR(10) NOT NULL,
    like_ref_id UUID NOT NULL,
    member_id UUID NOT NULL REFERENCES members(id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_like_group CHECK (like_group IN ('MEMBER', 'ARTICLE', 'WATCH')),
    CONSTRAINT unique_like UNIQUE (member_id, like_ref_id, like_group)
);

CREATE INDEX IF NOT EXISTS idx_likes_ref ON likes(like_ref_id, like_group);
CREATE INDEX IF NOT EXISTS idx_likes_member_updated ON likes(member_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS views (
    id UUID PRIMARY KEY,
    view_group VARCHAR(10) NOT NULL,
    view_ref_id UUID NOT NULL,
    member_id UUID NOT NULL REFERENCES members(id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_view_group CHECK (view_group IN ('MEMBER', 'ARTICLE', 'WATCH')),
    CONSTRAINT unique_view UNIQUE (member_id, view_ref_id, view_group)
);

CREATE INDEX IF NOT EXISTS idx_views_member_ref ON views(member_id, view_ref_id);
CREATE INDEX IF NOT EXISTS idx_views_ref ON views(view_ref_id, view_group);

CREATE TABLE IF NOT EXISTS comments (
    id UUID PRIMARY KEY,
    comment_status VARCHAR(10) NOT NULL DEFAULT 'ACTIVE',
    comment_group VARCHAR(10) NOT NULL,
    comment_content VARCHAR(500) NOT NULL,
    comment_ref_id UUID NOT NULL,
    member_id UUID NOT NULL REFERENCES members(id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_comment_status CHECK (comment_status IN ('ACTIVE', 'DELETE')),
    CONSTRAINT valid_comment_group CHECK (comment_group IN ('MEMBER', 'ARTICLE', 'WATCH'))
);

CREATE INDEX IF NOT EXISTS idx_comments_ref ON comments(comment_ref_id, created_at DESC) WHERE comment_status = 'ACTIVE';
`

const migration003Down = `
DROP TABLE IF EXISTS comments CASCADE;
DROP TABLE IF EXISTS views CASCADE;
DROP TABLE IF EXISTS likes CASCADE;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    notification_type VARCHAR(12) NOT NULL,
    notification_status VARCHAR(6) NOT NULL DEFAULT 'WAIT',
    notification_group VARCHAR(10) NOT NULL,
    notification_title VARCHAR(200) NOT NULL,
    notification_desc TEXT NOT NULL DEFAULT '',
    author_id UUID NOT NULL REFERENCES members(id),
    receiver_id UUID NOT NULL REFERENCES members(id),
    watch_id UUID,
    article_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_notification_type CHECK (notification_type IN ('LIKE', 'COMMENT', 'NEW_WATCH')),
    CONSTRAINT valid_notification_status CHECK (notification_status IN ('WAIT', 'READ'))
);

CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications(receiver_id, created_at DESC);
`

const migration004Down = `DROP TABLE IF EXISTS notifications CASCADE;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one versioned schema change.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// GetMigrations returns all migrations ordered by version.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_members", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_watches_articles", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_engagement_facts", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_notifications", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

const migrationsTable = "schema_migrations"

// Migrator applies embedded migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: GetMigrations()}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrMigrationFailed, migrationsTable, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, `SELECT version, applied_at FROM `+migrationsTable)
	if err != nil {
		return nil, fmt.Errorf("%w: read applied: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	out := make(map[int]time.Time)
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, err
		}
		out[v] = at
	}
	return out, rows.Err()
}

// Migrate applies every pending migration, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for i, mig := range pending {
		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO `+migrationsTable+` (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return i, fmt.Errorf("%w: version %d (%s): %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
	}
	return len(pending), nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	last := 0
	for v := range done {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return nil
	}

	for _, mig := range m.migrations {
		if mig.Version != last {
			continue
		}
		return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.DownSQL); err != nil {
				return fmt.Errorf("%w: rollback %d: %v", ErrMigrationFailed, last, err)
			}
			_, err := tx.Exec(ctx, `DELETE FROM `+migrationsTable+` WHERE version = $1`, last)
			return err
		})
	}
	return fmt.Errorf("%w: no down SQL for version %d", ErrMigrationFailed, last)
}

// Status reports which migrations have been applied.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, len(m.migrations))
	copy(out, m.migrations)
	for i := range out {
		if at, ok := done[out[i].Version]; ok {
			out[i].IsApplied = true
			out[i].AppliedAt = at
		}
	}
	return out, nil
}
