package store

import (
	"context"
	"log/slog"
	"slices"

	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/readiness"
	"golang.org/x/sync/singleflight"
)

// StatusRecorder receives every status change acknowledged by the server.
type StatusRecorder interface {
	RecordStatus(ctx context.Context, changes []domain.StatusChange) error
}

// Entries caches the last fetched page of entries. One state signal is
// shared by all scopes.
type Entries struct {
	session    *Session
	feeds      *Feeds
	categories *Categories
	recorder   StatusRecorder
	logger     *slog.Logger
	group      singleflight.Group

	// guarded by session.graph
	entries []*domain.Entry
	total   int
	filter  domain.EntryFilter
	prev    *signature
	marked  []*domain.Entry

	State *readiness.Signal[readiness.State]
}

func NewEntries(session *Session, feeds *Feeds, categories *Categories, recorder StatusRecorder) *Entries {
	return &Entries{
		session:    session,
		feeds:      feeds,
		categories: categories,
		recorder:   recorder,
		logger:     session.logger.With("store", "entries"),
		filter:     domain.DefaultFilter(),
		State:      readiness.New(readiness.Init),
	}
}

// Filter returns a copy of the filter used by FetchCurrent.
func (e *Entries) Filter() domain.EntryFilter {
	e.session.graph.RLock()
	defer e.session.graph.RUnlock()
	return e.filter.Clone()
}

func (e *Entries) SetFilter(filter domain.EntryFilter) {
	e.session.graph.Lock()
	defer e.session.graph.Unlock()
	e.filter = filter.Clone()
}

// Entries returns the cached page.
func (e *Entries) Entries() []*domain.Entry {
	e.session.graph.RLock()
	defer e.session.graph.RUnlock()
	return slices.Clone(e.entries)
}

// Snapshot returns value copies of the cached page, safe to read while the
// store keeps working.
func (e *Entries) Snapshot() []domain.Entry {
	e.session.graph.RLock()
	defer e.session.graph.RUnlock()

	res := make([]domain.Entry, 0, len(e.entries))
	for _, entry := range e.entries {
		res = append(res, *entry)
	}

	return res
}

// LookupByID finds an entry in the cached page.
func (e *Entries) LookupByID(id int64) *domain.Entry {
	e.session.graph.RLock()
	defer e.session.graph.RUnlock()

	for _, entry := range e.entries {
		if entry.ID == id {
			return entry
		}
	}

	return nil
}

// Total is the server-side size of the collection the cached page belongs
// to.
func (e *Entries) Total() int {
	e.session.graph.RLock()
	defer e.session.graph.RUnlock()
	return e.total
}

// Fetch loads one page of entries for scope. Unless force is set, a call
// identical to the previous successful one is answered from the cache.
// Identical calls that overlap share one request. Failures leave the cache
// as it was and are reported to the session.
func (e *Entries) Fetch(ctx context.Context, scope domain.Scope, filter domain.EntryFilter, force bool) []*domain.Entry {
	e.State.Set(readiness.Loading)
	sig := newSignature(scope, filter)

	if !force {
		e.session.graph.RLock()
		hit := e.prev != nil && e.prev.Equal(sig)
		cached := slices.Clone(e.entries)
		e.session.graph.RUnlock()
		if hit {
			entryCacheHits.Inc()
			e.State.Set(readiness.Ready)
			return cached
		}
	}

	v, err, shared := e.group.Do(sig.key, func() (any, error) {
		return e.load(ctx, sig)
	})
	if shared {
		entryCoalesced.Inc()
	}
	if err != nil {
		e.State.Set(readiness.Error)
		e.session.ReportError(err)
		return e.Entries()
	}
	e.State.Set(readiness.Ready)

	return slices.Clone(v.([]*domain.Entry))
}

func (e *Entries) load(ctx context.Context, sig signature) ([]*domain.Entry, error) {
	client := e.session.Client()
	var page *domain.EntryPage
	var err error
	switch sig.scope.Type {
	case domain.ScopeFeed:
		page, err = client.FeedEntries(ctx, sig.scope.ID, sig.filter)
	case domain.ScopeCategory:
		page, err = client.CategoryEntries(ctx, sig.scope.ID, sig.filter)
	default:
		page, err = client.Entries(ctx, sig.filter)
	}
	if err != nil {
		return nil, err
	}

	e.session.graph.Lock()
	defer e.session.graph.Unlock()

	for _, entry := range page.Entries {
		if feed, ok := e.feeds.byID[entry.FeedID]; ok {
			entry.Feed = feed
		}
	}
	e.entries = page.Entries
	e.total = page.Total
	e.prev = &sig
	e.logger.Debug("entries fetched", "scope", sig.scope.String(), "count", len(page.Entries), "total", page.Total)

	return slices.Clone(e.entries), nil
}

// FetchCurrent fetches with a copy of the store's own filter.
func (e *Entries) FetchCurrent(ctx context.Context, scope domain.Scope, force bool) []*domain.Entry {
	return e.Fetch(ctx, scope, e.Filter(), force)
}

func (e *Entries) FeedEntries(ctx context.Context, feedID int64, force bool) []*domain.Entry {
	return e.FetchCurrent(ctx, domain.FeedScope(feedID), force)
}

func (e *Entries) CategoryEntries(ctx context.Context, categoryID int64, force bool) []*domain.Entry {
	return e.FetchCurrent(ctx, domain.CategoryScope(categoryID), force)
}

func (e *Entries) AllEntries(ctx context.Context, force bool) []*domain.Entry {
	return e.FetchCurrent(ctx, domain.AllScope(), force)
}

func (e *Entries) StarredEntries(ctx context.Context, force bool) []*domain.Entry {
	return e.FetchCurrent(ctx, domain.StarredScope(), force)
}

// MarkRead marks an unread entry read and adjusts the feed and category
// counters right away. Entries that are not unread are left alone.
func (e *Entries) MarkRead(ctx context.Context, entry *domain.Entry) {
	e.setStatus(ctx, entry, domain.StatusUnread, domain.StatusRead, 1)
}

// MarkUnread is the reverse of MarkRead.
func (e *Entries) MarkUnread(ctx context.Context, entry *domain.Entry) {
	e.setStatus(ctx, entry, domain.StatusRead, domain.StatusUnread, -1)
}

func (e *Entries) setStatus(ctx context.Context, entry *domain.Entry, from, to domain.EntryStatus, delta int) {
	if e.status(entry) != from {
		return
	}
	if err := e.session.Client().UpdateEntries(ctx, []int64{entry.ID}, to); err != nil {
		e.session.ReportError(err)
		return
	}

	e.session.graph.Lock()
	// a concurrent call may have applied the same change while this one
	// waited on the server
	if entry.Status != from {
		e.session.graph.Unlock()
		return
	}
	entry.Status = to
	e.adjustCountersLocked(entry, delta)
	changes := e.changesLocked([]*domain.Entry{entry}, to)
	e.session.graph.Unlock()

	e.record(ctx, changes)
}

// MarkRemoved moves the entry to the terminal removed status. Removed
// entries do not count as read or unread, so no counters change.
func (e *Entries) MarkRemoved(ctx context.Context, entry *domain.Entry) {
	if e.status(entry) == domain.StatusRemoved {
		return
	}
	if err := e.session.Client().UpdateEntries(ctx, []int64{entry.ID}, domain.StatusRemoved); err != nil {
		e.session.ReportError(err)
		return
	}

	e.session.graph.Lock()
	if entry.Status == domain.StatusRemoved {
		e.session.graph.Unlock()
		return
	}
	entry.Status = domain.StatusRemoved
	changes := e.changesLocked([]*domain.Entry{entry}, domain.StatusRemoved)
	e.session.graph.Unlock()

	e.record(ctx, changes)
}

// MarkManyRead marks the unread ones among entries read in one call. They
// are kept for UndoLastMarkRead and the counters are reconciled with the
// server in the background.
func (e *Entries) MarkManyRead(ctx context.Context, entries []*domain.Entry) {
	e.session.graph.RLock()
	unread := slices.DeleteFunc(slices.Clone(entries), func(entry *domain.Entry) bool {
		return entry.Status != domain.StatusUnread
	})
	e.session.graph.RUnlock()
	if len(unread) == 0 {
		return
	}

	if err := e.session.Client().UpdateEntries(ctx, ids(unread), domain.StatusRead); err != nil {
		e.session.ReportError(err)
		return
	}

	e.session.graph.Lock()
	for _, entry := range unread {
		entry.Status = domain.StatusRead
	}
	e.marked = unread
	changes := e.changesLocked(unread, domain.StatusRead)
	e.session.graph.Unlock()

	e.logger.Info("entries marked read", "count", len(unread))
	e.record(ctx, changes)
	e.session.background(ctx, "refresh counters", e.feeds.RefreshCounters)
}

// UndoLastMarkRead sets the entries of the last MarkManyRead back to
// unread. With nothing to undo it does nothing.
func (e *Entries) UndoLastMarkRead(ctx context.Context) {
	e.session.graph.RLock()
	marked := slices.Clone(e.marked)
	e.session.graph.RUnlock()
	if len(marked) == 0 {
		return
	}

	if err := e.session.Client().UpdateEntries(ctx, ids(marked), domain.StatusUnread); err != nil {
		e.session.ReportError(err)
		return
	}

	e.session.graph.Lock()
	for _, entry := range marked {
		entry.Status = domain.StatusUnread
	}
	e.marked = nil
	changes := e.changesLocked(marked, domain.StatusUnread)
	e.session.graph.Unlock()

	e.logger.Info("mark read undone", "count", len(marked))
	e.record(ctx, changes)
	e.session.background(ctx, "refresh counters", e.feeds.RefreshCounters)
}

// CanUndo reports whether UndoLastMarkRead has anything to revert.
func (e *Entries) CanUndo() bool {
	e.session.graph.RLock()
	defer e.session.graph.RUnlock()
	return len(e.marked) > 0
}

// ToggleStar flips the starred flag once the server acknowledged it.
func (e *Entries) ToggleStar(ctx context.Context, entry *domain.Entry) {
	if err := e.session.Client().ToggleStarred(ctx, entry.ID); err != nil {
		e.session.ReportError(err)
		return
	}

	e.session.graph.Lock()
	entry.Starred = !entry.Starred
	e.session.graph.Unlock()
}

// adjustCountersLocked moves delta entries from unread to read on the
// entry's feed and on that feed's category. Feeds or categories that are
// not cached are skipped.
func (e *Entries) adjustCountersLocked(entry *domain.Entry, delta int) {
	feed, ok := e.feeds.byID[entry.FeedID]
	if !ok {
		return
	}
	feed.AddRead(delta)

	cat, ok := e.categories.byID[feed.CategoryID]
	if !ok {
		return
	}
	cat.TotalUnread = max(cat.TotalUnread-delta, 0)
	cat.TotalRead = max(cat.TotalRead+delta, 0)
	cat.UnreadFeedCount = 0
	for _, f := range cat.Feeds {
		if f.Unread > 0 {
			cat.UnreadFeedCount++
		}
	}
}

func (e *Entries) status(entry *domain.Entry) domain.EntryStatus {
	e.session.graph.RLock()
	defer e.session.graph.RUnlock()
	return entry.Status
}

func (e *Entries) changesLocked(entries []*domain.Entry, status domain.EntryStatus) []domain.StatusChange {
	changes := make([]domain.StatusChange, 0, len(entries))
	for _, entry := range entries {
		change := domain.StatusChange{
			EntryID: entry.ID,
			FeedID:  entry.FeedID,
			Title:   entry.Title,
			URL:     entry.URL,
			Status:  status,
		}
		if feed, ok := e.feeds.byID[entry.FeedID]; ok {
			change.CategoryID = feed.CategoryID
		}
		changes = append(changes, change)
	}

	return changes
}

func (e *Entries) record(ctx context.Context, changes []domain.StatusChange) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordStatus(ctx, changes); err != nil {
		e.logger.Warn("could not record status change", "error", err)
	}
}

func ids(entries []*domain.Entry) []int64 {
	res := make([]int64, 0, len(entries))
	for _, entry := range entries {
		res = append(res, entry.ID)
	}

	return res
}
