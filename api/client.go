// Package api is the network boundary. Everything behind Client returns
// domain records; raw payloads never leave this package.
package api

import (
	"context"
	"errors"

	"go-mod.ewintr.nl/fluxreader/domain"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotConfigured = errors.New("no server configured")
	ErrRequestFailed = errors.New("request failed")
)

// Client is the request capability shared by all stores.
type Client interface {
	Me(ctx context.Context) (*domain.User, error)

	Categories(ctx context.Context) ([]*domain.Category, error)
	MarkCategoryRead(ctx context.Context, categoryID int64) error

	Feeds(ctx context.Context) ([]*domain.Feed, error)
	Feed(ctx context.Context, feedID int64) (*domain.Feed, error)
	RefreshFeed(ctx context.Context, feedID int64) error
	FeedCounters(ctx context.Context) (*domain.FeedCounters, error)
	MarkFeedRead(ctx context.Context, feedID int64) error
	FeedIcon(ctx context.Context, feedID int64) (*domain.Icon, error)

	Entries(ctx context.Context, filter domain.EntryFilter) (*domain.EntryPage, error)
	FeedEntries(ctx context.Context, feedID int64, filter domain.EntryFilter) (*domain.EntryPage, error)
	CategoryEntries(ctx context.Context, categoryID int64, filter domain.EntryFilter) (*domain.EntryPage, error)
	UpdateEntries(ctx context.Context, entryIDs []int64, status domain.EntryStatus) error
	ToggleStarred(ctx context.Context, entryID int64) error
}

// Dialer builds a Client for a server address and token.
type Dialer func(server, token string) Client

// IsUnauthorized reports whether err means the credentials are missing or
// rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotConfigured)
}

// Unconfigured is the Client in use before any credentials are known.
type Unconfigured struct{}

func (Unconfigured) Me(context.Context) (*domain.User, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Categories(context.Context) ([]*domain.Category, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) MarkCategoryRead(context.Context, int64) error {
	return ErrNotConfigured
}

func (Unconfigured) Feeds(context.Context) ([]*domain.Feed, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Feed(context.Context, int64) (*domain.Feed, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) RefreshFeed(context.Context, int64) error {
	return ErrNotConfigured
}

func (Unconfigured) FeedCounters(context.Context) (*domain.FeedCounters, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) MarkFeedRead(context.Context, int64) error {
	return ErrNotConfigured
}

func (Unconfigured) FeedIcon(context.Context, int64) (*domain.Icon, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Entries(context.Context, domain.EntryFilter) (*domain.EntryPage, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) FeedEntries(context.Context, int64, domain.EntryFilter) (*domain.EntryPage, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) CategoryEntries(context.Context, int64, domain.EntryFilter) (*domain.EntryPage, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) UpdateEntries(context.Context, []int64, domain.EntryStatus) error {
	return ErrNotConfigured
}

func (Unconfigured) ToggleStarred(context.Context, int64) error {
	return ErrNotConfigured
}
