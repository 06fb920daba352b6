// Package member contains the Member aggregate: marketplace roles, account
// status, and the denormalized counters kept on every member row.
package member

import (
	"time"

	"github.com/timory/timory-hub/internal/domain/shared"
)

// Type is the marketplace role of a member.
type Type string

const (
	TypeUser   Type = "USER"
	TypeDealer Type = "DEALER"
	TypeBrand  Type = "BRAND"
	TypeAdmin  Type = "ADMIN"
)

// IsValid returns true if the type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeUser, TypeDealer, TypeBrand, TypeAdmin:
		return true
	}
	return false
}

// Status is the account status of a member.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusBlock  Status = "BLOCK"
	StatusDelete Status = "DELETE"
)

// IsValid returns true if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusBlock, StatusDelete:
		return true
	}
	return false
}

// Rank weights applied by the daily batch.
const (
	RankWeightWatches  = 5
	RankWeightArticles = 3
	RankWeightLikes    = 2
	RankWeightViews    = 1
)

// RankBoard names the cached top list of dealers.
const RankBoard = "dealers"

// Member is a marketplace participant.
type Member struct {
	ID       string `json:"_id"`
	Type     Type   `json:"memberType"`
	Status   Status `json:"memberStatus"`
	Nick     string `json:"memberNick"`
	FullName string `json:"memberFullName,omitempty"`
	Image    string `json:"memberImage,omitempty"`
	Address  string `json:"memberAddress,omitempty"`
	Desc     string `json:"memberDesc,omitempty"`
	Phone    string `json:"memberPhone"`

	Watches    int `json:"memberWatches"`
	Articles   int `json:"memberArticles"`
	Followers  int `json:"memberFollowers"`
	Followings int `json:"memberFollowings"`
	Points     int `json:"memberPoints"`
	Likes      int `json:"memberLikes"`
	Views      int `json:"memberViews"`
	Comments   int `json:"memberComments"`
	Rank       int `json:"memberRank"`
	Warnings   int `json:"memberWarnings"`
	Blocks     int `json:"memberBlocks"`

	// MeLiked is only populated for an authenticated viewer.
	MeLiked []shared.MeLiked `json:"meLiked,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RankScore computes memberRank from the current counters.
func (m *Member) RankScore() int {
	return m.Watches*RankWeightWatches +
		m.Articles*RankWeightArticles +
		m.Likes*RankWeightLikes +
		m.Views*RankWeightViews
}

// IsRankable reports whether the batch ranks this member.
func (m *Member) IsRankable() bool {
	return m.Type == TypeDealer && m.Status == StatusActive
}

// Profile is the public part of a member joined onto listings.
type Profile struct {
	ID       string `json:"_id"`
	Type     Type   `json:"memberType"`
	Nick     string `json:"memberNick"`
	FullName string `json:"memberFullName,omitempty"`
	Image    string `json:"memberImage,omitempty"`
	Rank     int    `json:"memberRank"`
}

// Counter names one numeric column on the members table. Only the values
// declared below exist; the zero Counter is rejected by repositories.
type Counter struct {
	name   string
	column string
}

var (
	CounterWatches    = Counter{"memberWatches", "member_watches"}
	CounterArticles   = Counter{"memberArticles", "member_articles"}
	CounterFollowers  = Counter{"memberFollowers", "member_followers"}
	CounterFollowings = Counter{"memberFollowings", "member_followings"}
	CounterPoints     = Counter{"memberPoints", "member_points"}
	CounterLikes      = Counter{"memberLikes", "member_likes"}
	CounterViews      = Counter{"memberViews", "member_views"}
	CounterComments   = Counter{"memberComments", "member_comments"}
	CounterWarnings   = Counter{"memberWarnings", "member_warnings"}
	CounterBlocks     = Counter{"memberBlocks", "member_blocks"}
)

// String returns the API field name.
func (c Counter) String() string { return c.name }

// Column returns the SQL column.
func (c Counter) Column() string { return c.column }

// IsZero reports an unset counter.
func (c Counter) IsZero() bool { return c.column == "" }
