package domain

import "fmt"

type ScopeType string

const (
	ScopeAll      ScopeType = "all"
	ScopeCategory ScopeType = "category"
	ScopeFeed     ScopeType = "feed"
	ScopeStarred  ScopeType = "starred"
)

// Scope is the target of an entry fetch.
type Scope struct {
	Type ScopeType
	ID   int64
}

func AllScope() Scope {
	return Scope{Type: ScopeAll}
}

func StarredScope() Scope {
	return Scope{Type: ScopeStarred}
}

func CategoryScope(id int64) Scope {
	return Scope{Type: ScopeCategory, ID: id}
}

func FeedScope(id int64) Scope {
	return Scope{Type: ScopeFeed, ID: id}
}

// Path is the API path that serves the scope.
func (s Scope) Path() string {
	switch s.Type {
	case ScopeFeed:
		return fmt.Sprintf("/v1/feeds/%d/entries", s.ID)
	case ScopeCategory:
		return fmt.Sprintf("/v1/categories/%d/entries", s.ID)
	default:
		return "/v1/entries"
	}
}

func (s Scope) String() string {
	if s.Type == ScopeFeed || s.Type == ScopeCategory {
		return fmt.Sprintf("%s:%d", s.Type, s.ID)
	}
	return string(s.Type)
}
