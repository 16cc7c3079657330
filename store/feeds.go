package store

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/readiness"
	"golang.org/x/sync/singleflight"
)

// Feeds owns the feed records, keyed by id. Categories and entries only hold
// references to them.
type Feeds struct {
	session    *Session
	categories *Categories
	logger     *slog.Logger
	iconGroup  singleflight.Group

	// guarded by session.graph
	byID   map[int64]*domain.Feed
	icons  map[int64]*domain.Icon
	loaded bool

	State *readiness.Signal[readiness.State]
}

func NewFeeds(session *Session, categories *Categories) *Feeds {
	f := &Feeds{
		session:    session,
		categories: categories,
		logger:     session.logger.With("store", "feeds"),
		byID:       make(map[int64]*domain.Feed),
		icons:      make(map[int64]*domain.Icon),
		State:      readiness.New(readiness.Init),
	}

	session.graph.Lock()
	categories.counters = f
	session.graph.Unlock()

	return f
}

// FetchFeeds returns the cached feeds unless no full fetch has completed
// yet or force is set. A fetch runs in two phases: load the feeds, then
// fetch the categories and attach the feeds to them. The state only becomes
// ready after the second phase. Feeds put in the cache by FetchFeed do not
// count as loaded.
func (f *Feeds) FetchFeeds(ctx context.Context, force bool) []*domain.Feed {
	if !force {
		f.session.graph.RLock()
		loaded := f.loaded
		f.session.graph.RUnlock()
		if loaded {
			return f.All()
		}
	}

	f.State.Set(readiness.Loading)
	feeds, err := f.session.Client().Feeds(ctx)
	if err != nil {
		f.State.Set(readiness.Error)
		f.session.ReportError(err)
		return f.All()
	}

	f.session.graph.Lock()
	f.byID = make(map[int64]*domain.Feed, len(feeds))
	for _, feed := range feeds {
		feed.Read, feed.Unread = 0, 0
		feed.Icon = f.icons[feed.ID]
		f.byID[feed.ID] = feed
	}
	f.session.graph.Unlock()

	cats := f.categories.FetchCategories(ctx, force)

	f.session.graph.Lock()
	all := f.allLocked()
	for _, cat := range cats {
		cat.Feeds = slices.DeleteFunc(slices.Clone(all), func(feed *domain.Feed) bool {
			return feed.CategoryID != cat.ID
		})
		for _, feed := range cat.Feeds {
			feed.Category = cat
		}
		cat.ResetCounters()
	}
	f.loaded = true
	f.session.graph.Unlock()

	f.State.Set(readiness.Ready)
	f.logger.Debug("feeds fetched", "feeds", len(all), "categories", len(cats))

	return all
}

// FetchFeed fetches a single feed and puts the new record in place of the
// cached one, keeping the counters the server does not send.
func (f *Feeds) FetchFeed(ctx context.Context, id int64) *domain.Feed {
	feed, err := f.session.Client().Feed(ctx, id)
	if err != nil {
		f.session.ReportError(err)
		return nil
	}

	f.session.graph.Lock()
	if old, ok := f.byID[id]; ok {
		feed.Read, feed.Unread = old.Read, old.Unread
	}
	feed.Icon = f.icons[id]
	f.byID[id] = feed
	f.placeLocked(feed)
	f.session.graph.Unlock()

	f.session.background(ctx, "refresh counters", f.RefreshCounters)

	return feed
}

// placeLocked puts feed in its owning category's list, in place of the
// record with the same id. A feed that moved category leaves its old list.
func (f *Feeds) placeLocked(feed *domain.Feed) {
	for _, cat := range f.categories.list {
		idx := slices.IndexFunc(cat.Feeds, func(other *domain.Feed) bool { return other.ID == feed.ID })
		switch {
		case cat.ID == feed.CategoryID && idx >= 0:
			cat.Feeds[idx] = feed
		case cat.ID == feed.CategoryID:
			cat.Feeds = append(cat.Feeds, feed)
		case idx >= 0:
			cat.Feeds = slices.Delete(cat.Feeds, idx, idx+1)
		default:
			continue
		}
		if cat.ID == feed.CategoryID {
			feed.Category = cat
		}
		cat.ResetCounters()
	}
}

// RefreshFeed asks the server to crawl the feed again and then fetches it.
// If either step fails the given feed is returned unchanged.
func (f *Feeds) RefreshFeed(ctx context.Context, feed *domain.Feed) *domain.Feed {
	if err := f.session.Client().RefreshFeed(ctx, feed.ID); err != nil {
		f.session.ReportError(err)
		return feed
	}
	fresh := f.FetchFeed(ctx, feed.ID)
	if fresh == nil {
		return feed
	}

	return fresh
}

// RefreshCounters loads the read and unread counts of all feeds from the
// server and recomputes the category counters. The server numbers replace
// any local adjustment.
func (f *Feeds) RefreshCounters(ctx context.Context) {
	counters, err := f.session.Client().FeedCounters(ctx)
	if err != nil {
		f.session.ReportError(err)
	}

	f.session.graph.Lock()
	defer f.session.graph.Unlock()

	if counters != nil {
		for id, feed := range f.byID {
			feed.Read = counters.Reads[id]
			feed.Unread = counters.Unreads[id]
		}
	}
	f.categories.resetCountersLocked()
}

// MarkFeedRead marks every entry of the feed read on the server, then
// reconciles the counters.
func (f *Feeds) MarkFeedRead(ctx context.Context, feed *domain.Feed) {
	if err := f.session.Client().MarkFeedRead(ctx, feed.ID); err != nil {
		f.session.ReportError(err)
		return
	}
	f.logger.Info("feed marked read", "feed", feed.ID)
	f.RefreshCounters(ctx)
}

// Icon returns the feed's icon. Icons are fetched once per feed and kept
// for the lifetime of the store.
func (f *Feeds) Icon(ctx context.Context, feed *domain.Feed) *domain.Icon {
	f.session.graph.RLock()
	icon, ok := f.icons[feed.ID]
	f.session.graph.RUnlock()
	if ok {
		return icon
	}

	v, err, _ := f.iconGroup.Do(strconv.FormatInt(feed.ID, 10), func() (any, error) {
		f.session.graph.RLock()
		icon, ok := f.icons[feed.ID]
		f.session.graph.RUnlock()
		if ok {
			return icon, nil
		}

		// shared by every waiting caller, so one caller giving up must not
		// fail the others
		icon, err := f.session.Client().FeedIcon(context.WithoutCancel(ctx), feed.ID)
		if err != nil {
			return nil, err
		}
		f.session.graph.Lock()
		f.icons[feed.ID] = icon
		if cached, ok := f.byID[feed.ID]; ok {
			cached.Icon = icon
		}
		feed.Icon = icon
		f.session.graph.Unlock()

		return icon, nil
	})
	if err != nil {
		f.session.ReportError(err)
		return nil
	}

	return v.(*domain.Icon)
}

func (f *Feeds) LookupByID(id int64) *domain.Feed {
	f.session.graph.RLock()
	defer f.session.graph.RUnlock()
	return f.byID[id]
}

// All returns the cached feeds ordered by id.
func (f *Feeds) All() []*domain.Feed {
	f.session.graph.RLock()
	defer f.session.graph.RUnlock()
	return f.allLocked()
}

func (f *Feeds) allLocked() []*domain.Feed {
	ids := slices.Sorted(maps.Keys(f.byID))
	feeds := make([]*domain.Feed, 0, len(ids))
	for _, id := range ids {
		feeds = append(feeds, f.byID[id])
	}

	return feeds
}
