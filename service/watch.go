// Package service runs the long-lived background loop that keeps the
// counters fresh and reports unread entries.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/store"
)

var unreadGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "fluxreader_unread_entries",
	Help: "Unread entries per category at the last check.",
}, []string{"category"})

type Watcher struct {
	stores   *store.Stores
	interval time.Duration
	logger   *slog.Logger
	last     map[int64]int
}

func NewWatcher(stores *store.Stores, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		stores:   stores,
		interval: interval,
		logger:   logger.With("service", "watch"),
		last:     make(map[int64]int),
	}
}

// Run checks once right away and then on every tick, until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("starting service", "interval", w.interval.String())
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			w.logger.Info("stopping service")
			w.stores.Wait()
			w.logger.Info("service exited")
			return
		}
	}
}

// Check reconciles the counters with the server and logs the unread count
// of every category. It returns the total number of unread entries.
func (w *Watcher) Check(ctx context.Context) int {
	w.logger.Info("checking feeds...")
	w.stores.Feeds.FetchFeeds(ctx, false)
	w.stores.Feeds.RefreshCounters(ctx)

	var total int
	for _, view := range w.stores.Categories.Snapshot() {
		cat := view.Category
		catLogger := w.logger.With("category", cat.ID)
		unreadGauge.WithLabelValues(strconv.FormatInt(cat.ID, 10)).Set(float64(cat.TotalUnread))
		total += cat.TotalUnread

		prev, seen := w.last[cat.ID]
		w.last[cat.ID] = cat.TotalUnread
		switch {
		case cat.TotalUnread == 0:
			catLogger.Debug("no unread entries found")
		case seen && cat.TotalUnread > prev:
			catLogger.Info("new unread entries found",
				"count", cat.TotalUnread, "new", cat.TotalUnread-prev,
				"feeds", feedCount(cat.UnreadFeedCount))
		default:
			catLogger.Info("unread entries found", "count", cat.TotalUnread,
				"feeds", feedCount(cat.UnreadFeedCount))
		}
	}

	return total
}

func feedCount(n int) string {
	return fmt.Sprintf("%d %s", n, domain.Pluralize(n, "feed"))
}
