// Package store keeps the client-side copies of the server's categories,
// feeds and entries consistent with each other and with the server.
//
// Construction order is fixed: Session, Categories, Feeds, Entries. Every
// store sends its requests through the Session and reports failures to it.
package store

import (
	"context"

	"go-mod.ewintr.nl/fluxreader/domain"
)

type Config struct {
	Session  SessionConfig
	Recorder StatusRecorder
	Filter   *domain.EntryFilter
}

type Stores struct {
	Session    *Session
	Categories *Categories
	Feeds      *Feeds
	Entries    *Entries
}

func New(ctx context.Context, cfg Config) (*Stores, error) {
	session, err := NewSession(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	cats := NewCategories(session)
	feeds := NewFeeds(session, cats)
	entries := NewEntries(session, feeds, cats, cfg.Recorder)
	if cfg.Filter != nil {
		entries.SetFilter(*cfg.Filter)
	}

	return &Stores{
		Session:    session,
		Categories: cats,
		Feeds:      feeds,
		Entries:    entries,
	}, nil
}

// Load fetches feeds, which pulls in the categories, and their counters.
func (s *Stores) Load(ctx context.Context, force bool) {
	s.Feeds.FetchFeeds(ctx, force)
	s.Feeds.RefreshCounters(ctx)
}

// Wait blocks until background reconciliations are done.
func (s *Stores) Wait() {
	s.Session.Wait()
}
