// Package article contains the BoardArticle aggregate.
package article

import (
	"fmt"
	"time"

	"github.com/timory/timory-hub/internal/domain/member"
	"github.com/timory/timory-hub/internal/domain/shared"
)

// Category groups board articles.
type Category string

const (
	CategoryFree      Category = "FREE"
	CategoryRecommend Category = "RECOMMEND"
	CategoryNews      Category = "NEWS"
	CategoryHumor     Category = "HUMOR"
)

// CreatableCategories are the categories members may post into.
var CreatableCategories = []Category{CategoryFree, CategoryRecommend, CategoryNews}

// IsValid returns true if the category is known.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFree, CategoryRecommend, CategoryNews, CategoryHumor:
		return true
	}
	return false
}

// ValidateCreatable rejects categories that cannot be used for new articles.
func ValidateCreatable(c Category) error {
	for _, allowed := range CreatableCategories {
		if c == allowed {
			return nil
		}
	}
	return shared.Validation("article", "Create",
		fmt.Sprintf("Allowed categories: %v", CreatableCategories))
}

// Status is the lifecycle state of an article.
type Status string

const (
	StatusPublishing Status = "PUBLISHING"
	StatusDelete     Status = "DELETE"
	// StatusRemove is never stored: requesting it purges the row.
	StatusRemove Status = "REMOVE"
)

// IsValid returns true if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPublishing, StatusDelete, StatusRemove:
		return true
	}
	return false
}

// Article is a board post owned by one member.
type Article struct {
	ID       string   `json:"_id"`
	Category Category `json:"articleCategory"`
	Status   Status   `json:"articleStatus"`
	Title    string   `json:"articleTitle"`
	Content  string   `json:"articleContent"`
	Image    string   `json:"articleImage,omitempty"`

	Views    int `json:"articleViews"`
	Likes    int `json:"articleLikes"`
	Comments int `json:"articleComments"`

	MemberID  string    `json:"memberId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	MeLiked    []shared.MeLiked `json:"meLiked,omitempty"`
	MemberData *member.Profile  `json:"memberData,omitempty"`
}

// Counter names one numeric column on the board_articles table.
type Counter struct {
	name   string
	column string
}

var (
	CounterViews    = Counter{"articleViews", "article_views"}
	CounterLikes    = Counter{"articleLikes", "article_likes"}
	CounterComments = Counter{"articleComments", "article_comments"}
)

// String returns the API field name.
func (c Counter) String() string { return c.name }

// Column returns the SQL column.
func (c Counter) Column() string { return c.column }

// IsZero reports an unset counter.
func (c Counter) IsZero() bool { return c.column == "" }
