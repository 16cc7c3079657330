package store

import (
	"context"
	"log/slog"
	"slices"

	"go-mod.ewintr.nl/fluxreader/domain"
)

type counterRefresher interface {
	RefreshCounters(ctx context.Context)
}

// Categories caches the category list and the per-category counters.
type Categories struct {
	session *Session
	logger  *slog.Logger

	// guarded by session.graph
	list     []*domain.Category
	byID     map[int64]*domain.Category
	counters counterRefresher
}

func NewCategories(session *Session) *Categories {
	return &Categories{
		session: session,
		logger:  session.logger.With("store", "categories"),
		byID:    make(map[int64]*domain.Category),
	}
}

// FetchCategories returns the cached list unless it is empty or force is
// set. Fetched categories start without feeds and with zeroed counters;
// attaching feeds is up to the feed store. On failure the cached list is
// returned.
func (c *Categories) FetchCategories(ctx context.Context, force bool) []*domain.Category {
	if !force {
		if cached := c.All(); len(cached) > 0 {
			return cached
		}
	}

	cats, err := c.session.Client().Categories(ctx)
	if err != nil {
		c.session.ReportError(err)
		return c.All()
	}

	c.session.graph.Lock()
	defer c.session.graph.Unlock()

	c.byID = make(map[int64]*domain.Category, len(cats))
	for _, cat := range cats {
		cat.Feeds = []*domain.Feed{}
		cat.ResetCounters()
		c.byID[cat.ID] = cat
	}
	c.list = cats
	c.logger.Debug("categories fetched", "count", len(cats))

	return slices.Clone(c.list)
}

// All returns the cached categories without touching the network.
func (c *Categories) All() []*domain.Category {
	c.session.graph.RLock()
	defer c.session.graph.RUnlock()
	return slices.Clone(c.list)
}

func (c *Categories) LookupByID(id int64) *domain.Category {
	c.session.graph.RLock()
	defer c.session.graph.RUnlock()
	return c.byID[id]
}

// ResetCounters recomputes every category's counters from its feeds.
func (c *Categories) ResetCounters() {
	c.session.graph.Lock()
	defer c.session.graph.Unlock()
	c.resetCountersLocked()
}

func (c *Categories) resetCountersLocked() {
	for _, cat := range c.list {
		cat.ResetCounters()
	}
}

// MarkCategoryRead marks every entry in the category read on the server and
// then reconciles the counters. Local counters are not touched before that.
func (c *Categories) MarkCategoryRead(ctx context.Context, cat *domain.Category) {
	if err := c.session.Client().MarkCategoryRead(ctx, cat.ID); err != nil {
		c.session.ReportError(err)
		return
	}
	c.logger.Info("category marked read", "category", cat.ID)

	c.session.graph.RLock()
	counters := c.counters
	c.session.graph.RUnlock()
	if counters != nil {
		counters.RefreshCounters(ctx)
	}
}

// Snapshot returns value copies of the categories and their feeds, safe to
// read while the stores keep working.
func (c *Categories) Snapshot() []CategoryView {
	c.session.graph.RLock()
	defer c.session.graph.RUnlock()

	views := make([]CategoryView, 0, len(c.list))
	for _, cat := range c.list {
		v := CategoryView{Category: *cat, Feeds: make([]domain.Feed, 0, len(cat.Feeds))}
		v.Category.Feeds = nil
		for _, f := range cat.Feeds {
			v.Feeds = append(v.Feeds, *f)
		}
		views = append(views, v)
	}

	return views
}

type CategoryView struct {
	Category domain.Category
	Feeds    []domain.Feed
}
