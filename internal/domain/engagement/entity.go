// Package engagement contains the fact records behind likes and views.
// A fact's existence is the state: a like row means "currently liked",
// a view row means "viewed at least once".
package engagement

import (
	"time"
)

// Group names the kind of entity a fact points at.
type Group string

const (
	GroupMember  Group = "MEMBER"
	GroupArticle Group = "ARTICLE"
	GroupWatch   Group = "WATCH"
)

// IsValid returns true if the group is known.
func (g Group) IsValid() bool {
	switch g {
	case GroupMember, GroupArticle, GroupWatch:
		return true
	}
	return false
}

// Like records that MemberID currently likes RefID.
type Like struct {
	ID        string    `json:"_id"`
	MemberID  string    `json:"memberId"`
	RefID     string    `json:"likeRefId"`
	Group     Group     `json:"likeGroup"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View records that MemberID has viewed RefID.
type View struct {
	ID        string    `json:"_id"`
	MemberID  string    `json:"memberId"`
	RefID     string    `json:"viewRefId"`
	Group     Group     `json:"viewGroup"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ViewScope selects how an existing view is looked up.
type ViewScope int

const (
	// ViewScopeGlobal matches (member, target) regardless of group.
	ViewScopeGlobal ViewScope = iota
	// ViewScopeGroup matches (member, target, group).
	ViewScopeGroup
)

// String returns the configuration name of the scope.
func (s ViewScope) String() string {
	if s == ViewScopeGroup {
		return "group"
	}
	return "global"
}

// ParseViewScope maps a configuration value to a scope; unknown values
// fall back to ViewScopeGlobal.
func ParseViewScope(s string) ViewScope {
	if s == "group" {
		return ViewScopeGroup
	}
	return ViewScopeGlobal
}
