package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Category selects the kind of results.
type Category string

// Category values.
const (
	CategoryAll          Category = "all"
	CategoryRepositories Category = "repositories"
	CategoryCode         Category = "code"
	CategoryUsers        Category = "users"
)

// Visibility filters repositories by access level.
type Visibility string

// Visibility values.
const (
	VisibilityAll     Visibility = "all"
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// DateRange filters repositories by last update.
type DateRange string

// DateRange values.
const (
	DateRangeAnytime   DateRange = "anytime"
	DateRangeToday     DateRange = "today"
	DateRangeThisWeek  DateRange = "this-week"
	DateRangeThisMonth DateRange = "this-month"
	DateRangeThisYear  DateRange = "this-year"
)

// Order sorts repository results.
type Order string

// Order values.
const (
	OrderAll      Order = "all"
	OrderTrending Order = "trending"
	OrderPopular  Order = "popular"
	OrderNewest   Order = "newest"
)

// RepositorySort orders an owner's repository list.
type RepositorySort string

// RepositorySort values.
const (
	RepositorySortUpdated RepositorySort = "updated"
	RepositorySortName    RepositorySort = "name"
	RepositorySortStars   RepositorySort = "stars"
)

// SearchStatus is the displayable state of a search.
type SearchStatus string

// SearchStatus values.
const (
	SearchStatusIdle    SearchStatus = "idle"
	SearchStatusResults SearchStatus = "results"
	SearchStatusEmpty   SearchStatus = "empty"
	SearchStatusFailed  SearchStatus = "failed"
)

// SearchParams defines parameters for GET /search.
type SearchParams struct {
	Q          *string     `form:"q,omitempty" json:"q,omitempty"`
	Category   *Category   `form:"category,omitempty" json:"category,omitempty"`
	Language   *string     `form:"language,omitempty" json:"language,omitempty"`
	Visibility *Visibility `form:"visibility,omitempty" json:"visibility,omitempty"`
	DateRange  *DateRange  `form:"dateRange,omitempty" json:"dateRange,omitempty"`
	Sort       *Order      `form:"sort,omitempty" json:"sort,omitempty"`
	Limit      *int        `form:"limit,omitempty" json:"limit,omitempty"`
}

// ExploreParams defines parameters for GET /explore.
type ExploreParams struct {
	Filter *Order `form:"filter,omitempty" json:"filter,omitempty"`
	Limit  *int   `form:"limit,omitempty" json:"limit,omitempty"`
}

// ListRepositoriesParams defines parameters for GET /users/{owner}/repositories.
type ListRepositoriesParams struct {
	Q          *string         `form:"q,omitempty" json:"q,omitempty"`
	Visibility *Visibility     `form:"visibility,omitempty" json:"visibility,omitempty"`
	Sort       *RepositorySort `form:"sort,omitempty" json:"sort,omitempty"`
}

// Repository is a repository result.
type Repository struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Owner       string    `json:"owner"`
	Description string    `json:"description"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Language    string    `json:"language,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IsPublic    bool      `json:"isPublic"`
}

// Line is a matching line of a code result.
type Line struct {
	LineNumber int    `json:"lineNumber"`
	Content    string `json:"content"`
}

// CodeMatch is a code result.
type CodeMatch struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	Repository    string `json:"repository"`
	Owner         string `json:"owner"`
	Language      string `json:"language,omitempty"`
	MatchingLines []Line `json:"matchingLines"`
}

// User is a user result.
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	AvatarURL       string `json:"avatarUrl"`
	RepositoryCount int    `json:"repositoryCount"`
}

// ItemType discriminates search result items.
type ItemType string

// ItemType values.
const (
	ItemTypeRepository ItemType = "repository"
	ItemTypeCode       ItemType = "code"
	ItemTypeUser       ItemType = "user"
)

// Item is one search result. Exactly one field is set.
type Item struct {
	Repository *Repository
	Code       *CodeMatch
	User       *User
}

// Type reports which variant the item holds.
func (i Item) Type() ItemType {
	switch {
	case i.Repository != nil:
		return ItemTypeRepository
	case i.Code != nil:
		return ItemTypeCode
	case i.User != nil:
		return ItemTypeUser
	default:
		return ""
	}
}

// MarshalJSON flattens the variant and adds a "type" discriminator.
func (i Item) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch i.Type() {
	case ItemTypeRepository:
		data, err = json.Marshal(struct {
			Type ItemType `json:"type"`
			*Repository
		}{ItemTypeRepository, i.Repository})
	case ItemTypeCode:
		data, err = json.Marshal(struct {
			Type ItemType `json:"type"`
			*CodeMatch
		}{ItemTypeCode, i.Code})
	case ItemTypeUser:
		data, err = json.Marshal(struct {
			Type ItemType `json:"type"`
			*User
		}{ItemTypeUser, i.User})
	default:
		return nil, errors.New("api: empty search item")
	}
	if err != nil {
		return nil, fmt.Errorf("marshal %s item: %w", i.Type(), err)
	}
	return data, nil
}

// UnmarshalJSON decodes the variant named by "type".
func (i *Item) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ItemType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decode item type: %w", err)
	}
	*i = Item{}
	var target any
	switch head.Type {
	case ItemTypeRepository:
		i.Repository = &Repository{}
		target = i.Repository
	case ItemTypeCode:
		i.Code = &CodeMatch{}
		target = i.Code
	case ItemTypeUser:
		i.User = &User{}
		target = i.User
	default:
		return fmt.Errorf("api: unknown item type %q", head.Type)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s item: %w", head.Type, err)
	}
	return nil
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query       string       `json:"query"`
	Category    Category     `json:"category"`
	Status      SearchStatus `json:"status"`
	Total       int          `json:"total"`
	Items       []Item       `json:"items"`
	Message     string       `json:"message,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// ExploreResponse is the body of GET /explore.
type ExploreResponse struct {
	Filter Order        `json:"filter"`
	Items  []Repository `json:"items"`
}

// RepositoryListResponse is the body of GET /users/{owner}/repositories.
type RepositoryListResponse struct {
	Owner string       `json:"owner"`
	Total int          `json:"total"`
	Items []Repository `json:"items"`
}

// CreateRepositoryRequest is the body of POST /users/{owner}/repositories.
type CreateRepositoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"isPublic"`
	Readme      bool   `json:"readme,omitempty"`
	Gitignore   string `json:"gitignore,omitempty"`
	License     string `json:"license,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}
