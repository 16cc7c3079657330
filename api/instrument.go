package api

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go-mod.ewintr.nl/fluxreader/domain"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fluxreader_api_requests_total",
		Help: "Requests sent to the feed server, by operation and outcome.",
	}, []string{"operation", "outcome"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fluxreader_api_request_duration_seconds",
		Help:    "Latency of requests sent to the feed server.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// Instrument wraps a Client and records request counts and latency.
func Instrument(next Client) Client {
	return &instrumented{next: next}
}

type instrumented struct {
	next Client
}

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsUnauthorized(err):
		outcome = "unauthorized"
	default:
		outcome = "error"
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) Me(ctx context.Context) (*domain.User, error) {
	start := time.Now()
	res, err := i.next.Me(ctx)
	observe("me", start, err)
	return res, err
}

func (i *instrumented) Categories(ctx context.Context) ([]*domain.Category, error) {
	start := time.Now()
	res, err := i.next.Categories(ctx)
	observe("categories", start, err)
	return res, err
}

func (i *instrumented) MarkCategoryRead(ctx context.Context, categoryID int64) error {
	start := time.Now()
	err := i.next.MarkCategoryRead(ctx, categoryID)
	observe("mark_category_read", start, err)
	return err
}

func (i *instrumented) Feeds(ctx context.Context) ([]*domain.Feed, error) {
	start := time.Now()
	res, err := i.next.Feeds(ctx)
	observe("feeds", start, err)
	return res, err
}

func (i *instrumented) Feed(ctx context.Context, feedID int64) (*domain.Feed, error) {
	start := time.Now()
	res, err := i.next.Feed(ctx, feedID)
	observe("feed", start, err)
	return res, err
}

func (i *instrumented) RefreshFeed(ctx context.Context, feedID int64) error {
	start := time.Now()
	err := i.next.RefreshFeed(ctx, feedID)
	observe("refresh_feed", start, err)
	return err
}

func (i *instrumented) FeedCounters(ctx context.Context) (*domain.FeedCounters, error) {
	start := time.Now()
	res, err := i.next.FeedCounters(ctx)
	observe("feed_counters", start, err)
	return res, err
}

func (i *instrumented) MarkFeedRead(ctx context.Context, feedID int64) error {
	start := time.Now()
	err := i.next.MarkFeedRead(ctx, feedID)
	observe("mark_feed_read", start, err)
	return err
}

func (i *instrumented) FeedIcon(ctx context.Context, feedID int64) (*domain.Icon, error) {
	start := time.Now()
	res, err := i.next.FeedIcon(ctx, feedID)
	observe("feed_icon", start, err)
	return res, err
}

func (i *instrumented) Entries(ctx context.Context, filter domain.EntryFilter) (*domain.EntryPage, error) {
	start := time.Now()
	res, err := i.next.Entries(ctx, filter)
	observe("entries", start, err)
	return res, err
}

func (i *instrumented) FeedEntries(ctx context.Context, feedID int64, filter domain.EntryFilter) (*domain.EntryPage, error) {
	start := time.Now()
	res, err := i.next.FeedEntries(ctx, feedID, filter)
	observe("feed_entries", start, err)
	return res, err
}

func (i *instrumented) CategoryEntries(ctx context.Context, categoryID int64, filter domain.EntryFilter) (*domain.EntryPage, error) {
	start := time.Now()
	res, err := i.next.CategoryEntries(ctx, categoryID, filter)
	observe("category_entries", start, err)
	return res, err
}

func (i *instrumented) UpdateEntries(ctx context.Context, entryIDs []int64, status domain.EntryStatus) error {
	start := time.Now()
	err := i.next.UpdateEntries(ctx, entryIDs, status)
	observe("update_entries", start, err)
	return err
}

func (i *instrumented) ToggleStarred(ctx context.Context, entryID int64) error {
	start := time.Now()
	err := i.next.ToggleStarred(ctx, entryID)
	observe("toggle_starred", start, err)
	return err
}
