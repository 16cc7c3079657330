package store

import (
	"fmt"

	"go-mod.ewintr.nl/fluxreader/domain"
)

// signature identifies one entry fetch. The filter is a private copy, so
// later changes to the caller's filter do not alter a stored signature.
type signature struct {
	scope  domain.Scope
	path   string
	filter domain.EntryFilter
	key    string
}

func newSignature(scope domain.Scope, filter domain.EntryFilter) signature {
	f := filter.Clone()
	if scope.Type == domain.ScopeStarred {
		f.Starred = true
	}
	// The server's status=read filter alone does not return what the list
	// views expect; ask for both states instead.
	if f.Status == domain.StatusRead {
		f.Status = ""
		f.Statuses = []domain.EntryStatus{domain.StatusUnread, domain.StatusRead}
	}

	sig := signature{
		scope:  scope,
		path:   scope.Path(),
		filter: f,
	}
	sig.key = fmt.Sprintf("%s|%s|%+v", sig.scope, sig.path, sig.filter)

	return sig
}

func (s signature) Equal(o signature) bool {
	return s.scope == o.scope && s.path == o.path && s.filter.Equal(o.filter)
}
