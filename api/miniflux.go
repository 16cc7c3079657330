package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-mod.ewintr.nl/fluxreader/domain"
	miniflux "miniflux.app/v2/client"
)

// Miniflux talks to a Miniflux server with an API token, sent as the
// X-Auth-Token header.
type Miniflux struct {
	client *miniflux.Client
	server string
	token  string
	http   *http.Client
}

func NewMiniflux(server, token string) Client {
	server = strings.TrimRight(server, "/")
	return &Miniflux{
		client: miniflux.NewClient(server, token),
		server: server,
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (mf *Miniflux) Me(ctx context.Context) (*domain.User, error) {
	u, err := mf.client.MeContext(ctx)
	if err != nil {
		return nil, classify(err)
	}

	return &domain.User{
		ID:       u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		Theme:    u.Theme,
		Language: u.Language,
		Timezone: u.Timezone,
	}, nil
}

func (mf *Miniflux) Categories(ctx context.Context) ([]*domain.Category, error) {
	mfCats, err := mf.client.CategoriesContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	cats := make([]*domain.Category, 0, len(mfCats))
	for _, c := range mfCats {
		cats = append(cats, toCategory(c))
	}

	return cats, nil
}

func (mf *Miniflux) MarkCategoryRead(ctx context.Context, categoryID int64) error {
	return classify(mf.client.MarkCategoryAsReadContext(ctx, categoryID))
}

func (mf *Miniflux) Feeds(ctx context.Context) ([]*domain.Feed, error) {
	mfFeeds, err := mf.client.FeedsContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	feeds := make([]*domain.Feed, 0, len(mfFeeds))
	for _, f := range mfFeeds {
		feeds = append(feeds, toFeed(f))
	}

	return feeds, nil
}

func (mf *Miniflux) Feed(ctx context.Context, feedID int64) (*domain.Feed, error) {
	f, err := mf.client.FeedContext(ctx, feedID)
	if err != nil {
		return nil, classify(err)
	}

	return toFeed(f), nil
}

func (mf *Miniflux) RefreshFeed(ctx context.Context, feedID int64) error {
	return classify(mf.client.RefreshFeedContext(ctx, feedID))
}

func (mf *Miniflux) FeedCounters(ctx context.Context) (*domain.FeedCounters, error) {
	c, err := mf.client.FetchCountersContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	counters := &domain.FeedCounters{
		Reads:   make(map[int64]int, len(c.ReadCounters)),
		Unreads: make(map[int64]int, len(c.UnreadCounters)),
	}
	for id, v := range c.ReadCounters {
		counters.Reads[id] = v
	}
	for id, v := range c.UnreadCounters {
		counters.Unreads[id] = v
	}

	return counters, nil
}

func (mf *Miniflux) MarkFeedRead(ctx context.Context, feedID int64) error {
	return classify(mf.client.MarkFeedAsReadContext(ctx, feedID))
}

func (mf *Miniflux) FeedIcon(ctx context.Context, feedID int64) (*domain.Icon, error) {
	icon, err := mf.client.FeedIconContext(ctx, feedID)
	if err != nil {
		return nil, classify(err)
	}

	return &domain.Icon{
		ID:       icon.ID,
		MimeType: icon.MimeType,
		Data:     icon.Data,
	}, nil
}

func (mf *Miniflux) Entries(ctx context.Context, filter domain.EntryFilter) (*domain.EntryPage, error) {
	result, err := mf.client.EntriesContext(ctx, toFilter(filter))
	if err != nil {
		return nil, classify(err)
	}

	return toPage(result)
}

func (mf *Miniflux) FeedEntries(ctx context.Context, feedID int64, filter domain.EntryFilter) (*domain.EntryPage, error) {
	result, err := mf.client.FeedEntriesContext(ctx, feedID, toFilter(filter))
	if err != nil {
		return nil, classify(err)
	}

	return toPage(result)
}

func (mf *Miniflux) CategoryEntries(ctx context.Context, categoryID int64, filter domain.EntryFilter) (*domain.EntryPage, error) {
	result, err := mf.client.CategoryEntriesContext(ctx, categoryID, toFilter(filter))
	if err != nil {
		return nil, classify(err)
	}

	return toPage(result)
}

func (mf *Miniflux) UpdateEntries(ctx context.Context, entryIDs []int64, status domain.EntryStatus) error {
	return classify(mf.client.UpdateEntriesContext(ctx, entryIDs, string(status)))
}

// ToggleStarred sends PUT /v1/entries/{id}/bookmark. The client package
// only knows the /star path, so this one request is made here.
func (mf *Miniflux) ToggleStarred(ctx context.Context, entryID int64) error {
	url := fmt.Sprintf("%s/v1/entries/%d/bookmark", mf.server, entryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("X-Auth-Token", mf.token)
	req.Header.Set("Accept", "application/json")

	resp, err := mf.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
	}

	return nil
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, miniflux.ErrNotAuthorized):
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	default:
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
}

func toCategory(c *miniflux.Category) *domain.Category {
	return &domain.Category{
		ID:           c.ID,
		Title:        c.Title,
		OwnerID:      c.UserID,
		HideGlobally: c.HideGlobally,
		Feeds:        []*domain.Feed{},
	}
}

func toFeed(f *miniflux.Feed) *domain.Feed {
	feed := &domain.Feed{
		ID:              f.ID,
		OwnerID:         f.UserID,
		Title:           f.Title,
		SiteURL:         f.SiteURL,
		FeedURL:         f.FeedURL,
		CheckedAt:       f.CheckedAt,
		ErrorMessage:    f.ParsingErrorMsg,
		ErrorCount:      f.ParsingErrorCount,
		Crawler:         f.Crawler,
		Disabled:        f.Disabled,
		IgnoreHTTPCache: f.IgnoreHTTPCache,
		FetchViaProxy:   f.FetchViaProxy,
		UserAgent:       f.UserAgent,
		Username:        f.Username,
		Password:        f.Password,
	}
	if f.Category != nil {
		feed.CategoryID = f.Category.ID
		feed.Category = toCategory(f.Category)
	}

	return feed
}

func toFilter(f domain.EntryFilter) *miniflux.Filter {
	mf := &miniflux.Filter{
		Status:        string(f.Status),
		Offset:        f.Offset,
		Limit:         f.Limit,
		Order:         f.Order,
		Direction:     f.Direction,
		Before:        f.Before,
		After:         f.After,
		BeforeEntryID: f.BeforeEntryID,
		AfterEntryID:  f.AfterEntryID,
		Search:        f.Search,
		CategoryID:    f.CategoryID,
	}
	for _, s := range f.Statuses {
		mf.Statuses = append(mf.Statuses, string(s))
	}
	if f.Starred {
		mf.Starred = miniflux.FilterOnlyStarred
	}

	return mf
}

func toPage(result *miniflux.EntryResultSet) (*domain.EntryPage, error) {
	page := &domain.EntryPage{
		Total:   result.Total,
		Entries: make([]*domain.Entry, 0, len(result.Entries)),
	}
	for _, e := range result.Entries {
		entry := &domain.Entry{
			ID:             e.ID,
			OwnerID:        e.UserID,
			FeedID:         e.FeedID,
			Title:          e.Title,
			URL:            e.URL,
			CommentsURL:    e.CommentsURL,
			Author:         e.Author,
			Content:        e.Content,
			Hash:           e.Hash,
			PublishedAt:    e.Date,
			CreatedAt:      e.CreatedAt,
			Status:         domain.EntryStatus(e.Status),
			ShareCode:      e.ShareCode,
			Starred:        e.Starred,
			ReadingTime:    e.ReadingTime,
			EnclosureCount: len(e.Enclosures),
		}
		if e.Feed != nil {
			entry.Feed = toFeed(e.Feed)
			if entry.FeedID == 0 {
				entry.FeedID = e.Feed.ID
			}
		}
		if entry.FeedID == 0 {
			return nil, fmt.Errorf("%w: entry without feed: %d", ErrRequestFailed, e.ID)
		}
		page.Entries = append(page.Entries, entry)
	}

	return page, nil
}
