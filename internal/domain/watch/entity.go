// Package watch contains the Watch listing aggregate.
package watch

import (
	"time"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// Type is the movement kind of a watch.
type Type string

const (
	TypeMechanical Type = "MECHANICAL"
	TypeAutomatic  Type = "AUTOMATIC"
	TypeQuartz     Type = "QUARTZ"
	TypeSmart      Type = "SMART"
)

// IsValid returns true if the type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeMechanical, TypeAutomatic, TypeQuartz, TypeSmart:
		return true
	}
	return false
}

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusHold   Status = "HOLD"
	StatusActive Status = "ACTIVE"
	StatusSold   Status = "SOLD"
	StatusDelete Status = "DELETE"
)

// IsValid returns true if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusHold, StatusActive, StatusSold, StatusDelete:
		return true
	}
	return false
}

// Location is the city a watch is offered in.
type Location string

const (
	LocationSeoul    Location = "SEOUL"
	LocationBusan    Location = "BUSAN"
	LocationIncheon  Location = "INCHEON"
	LocationDaegu    Location = "DAEGU"
	LocationGyeongju Location = "GYEONGJU"
	LocationGwangju  Location = "GWANGJU"
	LocationChonju   Location = "CHONJU"
	LocationDaejon   Location = "DAEJON"
	LocationJeju     Location = "JEJU"
)

// IsValid returns true if the location is known.
func (l Location) IsValid() bool {
	switch l {
	case LocationSeoul, LocationBusan, LocationIncheon, LocationDaegu, LocationGyeongju,
		LocationGwangju, LocationChonju, LocationDaejon, LocationJeju:
		return true
	}
	return false
}

// Rank weights applied by the daily batch.
const (
	RankWeightLikes = 2
	RankWeightViews = 1
)

// RankBoard names the cached top list of watches.
const RankBoard = "watches"

// Watch is a listing owned by one member.
type Watch struct {
	ID             string   `json:"_id"`
	Type           Type     `json:"watchType"`
	Status         Status   `json:"watchStatus"`
	Location       Location `json:"watchLocation"`
	Address        string   `json:"watchAddress"`
	ModelName      string   `json:"watchModelName"`
	Brand          string   `json:"watchBrand"`
	Color          string   `json:"watchColor,omitempty"`
	LimitedEdition bool     `json:"watchLimitedEdition"`
	Price          float64  `json:"watchPrice"`
	Images         []string `json:"watchImages"`
	Desc           string   `json:"watchDesc,omitempty"`

	Views    int `json:"watchViews"`
	Likes    int `json:"watchLikes"`
	Comments int `json:"watchComments"`
	Rank     int `json:"watchRank"`

	MemberID  string   `json:"memberId"`
	DealerIDs []string `json:"dealerId"`

	SoldAt    *time.Time `json:"soldAt,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Joined on read paths.
	MeLiked    []shared.MeLiked `json:"meLiked,omitempty"`
	MemberData *member.Profile  `json:"memberData,omitempty"`
}

// RankScore computes watchRank from the current counters.
func (w *Watch) RankScore() int {
	return w.Likes*RankWeightLikes + w.Views*RankWeightViews
}

// Counter names one numeric column on the watches table.
type Counter struct {
	name   string
	column string
}

var (
	CounterViews    = Counter{"watchViews", "watch_views"}
	CounterLikes    = Counter{"watchLikes", "watch_likes"}
	CounterComments = Counter{"watchComments", "watch_comments"}
)

// String returns the API field name.
func (c Counter) String() string { return c.name }

// Column returns the SQL column.
func (c Counter) Column() string { return c.column }

// IsZero reports an unset counter.
func (c Counter) IsZero() bool { return c.column == "" }
