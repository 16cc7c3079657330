package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go-mod.ewintr.nl/fluxreader/api"
	"go-mod.ewintr.nl/fluxreader/domain"
)

var errBoom = fmt.Errorf("%w: boom", api.ErrRequestFailed)

type entriesCall struct {
	Scope  domain.Scope
	Filter domain.EntryFilter
}

type updateCall struct {
	IDs    []int64
	Status domain.EntryStatus
}

// fakeClient serves fixed data and records every call.
type fakeClient struct {
	mu sync.Mutex

	user       *domain.User
	categories []*domain.Category
	feeds      []*domain.Feed
	counters   *domain.FeedCounters
	page       *domain.EntryPage
	icon       *domain.Icon

	fail    map[string]error
	calls   map[string]int
	entries []entriesCall
	updates []updateCall
	block   chan struct{}
	// gate holds UpdateEntries and FeedIcon after the call is counted
	gate chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		user:  &domain.User{ID: 1, Username: "erik"},
		fail:  make(map[string]error),
		calls: make(map[string]int),
		page:  &domain.EntryPage{},
		counters: &domain.FeedCounters{
			Reads:   map[int64]int{},
			Unreads: map[int64]int{},
		},
	}
}

func (fc *fakeClient) hit(op string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.calls[op]++
	return fc.fail[op]
}

func (fc *fakeClient) count(op string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.calls[op]
}

func (fc *fakeClient) setFail(op string, err error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.fail[op] = err
}

func (fc *fakeClient) lastEntries() entriesCall {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.entries[len(fc.entries)-1]
}

func (fc *fakeClient) lastUpdate() updateCall {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.updates[len(fc.updates)-1]
}

func (fc *fakeClient) Me(context.Context) (*domain.User, error) {
	if err := fc.hit("me"); err != nil {
		return nil, err
	}
	u := *fc.user
	return &u, nil
}

func (fc *fakeClient) Categories(context.Context) ([]*domain.Category, error) {
	if err := fc.hit("categories"); err != nil {
		return nil, err
	}
	res := make([]*domain.Category, 0, len(fc.categories))
	for _, c := range fc.categories {
		cp := *c
		res = append(res, &cp)
	}
	return res, nil
}

func (fc *fakeClient) MarkCategoryRead(context.Context, int64) error {
	return fc.hit("mark_category_read")
}

func (fc *fakeClient) Feeds(context.Context) ([]*domain.Feed, error) {
	if err := fc.hit("feeds"); err != nil {
		return nil, err
	}
	res := make([]*domain.Feed, 0, len(fc.feeds))
	for _, f := range fc.feeds {
		cp := *f
		res = append(res, &cp)
	}
	return res, nil
}

func (fc *fakeClient) Feed(_ context.Context, id int64) (*domain.Feed, error) {
	if err := fc.hit("feed"); err != nil {
		return nil, err
	}
	for _, f := range fc.feeds {
		if f.ID == id {
			cp := *f
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: feed %d not found", api.ErrRequestFailed, id)
}

func (fc *fakeClient) RefreshFeed(context.Context, int64) error {
	return fc.hit("refresh_feed")
}

func (fc *fakeClient) FeedCounters(context.Context) (*domain.FeedCounters, error) {
	if err := fc.hit("counters"); err != nil {
		return nil, err
	}
	return fc.counters, nil
}

func (fc *fakeClient) MarkFeedRead(context.Context, int64) error {
	return fc.hit("mark_feed_read")
}

func (fc *fakeClient) FeedIcon(ctx context.Context, feedID int64) (*domain.Icon, error) {
	if err := fc.hit("icon"); err != nil {
		return nil, err
	}
	if fc.gate != nil {
		<-fc.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fc.icon != nil {
		return fc.icon, nil
	}
	return &domain.Icon{ID: feedID, MimeType: "image/png", Data: "image/png;base64,AAAA"}, nil
}

func (fc *fakeClient) serveEntries(scope domain.Scope, filter domain.EntryFilter) (*domain.EntryPage, error) {
	if fc.block != nil {
		<-fc.block
	}
	if err := fc.hit("entries"); err != nil {
		return nil, err
	}
	fc.mu.Lock()
	fc.entries = append(fc.entries, entriesCall{Scope: scope, Filter: filter.Clone()})
	fc.mu.Unlock()

	page := &domain.EntryPage{Total: fc.page.Total}
	for _, e := range fc.page.Entries {
		cp := *e
		page.Entries = append(page.Entries, &cp)
	}
	return page, nil
}

func (fc *fakeClient) Entries(_ context.Context, filter domain.EntryFilter) (*domain.EntryPage, error) {
	return fc.serveEntries(domain.AllScope(), filter)
}

func (fc *fakeClient) FeedEntries(_ context.Context, feedID int64, filter domain.EntryFilter) (*domain.EntryPage, error) {
	return fc.serveEntries(domain.FeedScope(feedID), filter)
}

func (fc *fakeClient) CategoryEntries(_ context.Context, categoryID int64, filter domain.EntryFilter) (*domain.EntryPage, error) {
	return fc.serveEntries(domain.CategoryScope(categoryID), filter)
}

func (fc *fakeClient) UpdateEntries(_ context.Context, ids []int64, status domain.EntryStatus) error {
	if err := fc.hit("update_entries"); err != nil {
		return err
	}
	if fc.gate != nil {
		<-fc.gate
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.updates = append(fc.updates, updateCall{IDs: slices.Clone(ids), Status: status})
	return nil
}

func (fc *fakeClient) ToggleStarred(context.Context, int64) error {
	return fc.hit("toggle_starred")
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Error(msg string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return fmt.Sprint(len(n.messages))
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.messages)
}

type fakeRedirector struct {
	mu    sync.Mutex
	paths []string
}

func (r *fakeRedirector) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *fakeRedirector) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.paths)
}

type memCredentials struct {
	creds Credentials
	err   error
}

func (m *memCredentials) LoadCredentials(context.Context) (Credentials, error) {
	return m.creds, m.err
}

func (m *memCredentials) SaveCredentials(_ context.Context, creds Credentials) error {
	m.creds = creds
	return m.err
}

func (m *memCredentials) ClearToken(context.Context) error {
	m.creds.Token = ""
	return m.err
}

type memRecorder struct {
	mu      sync.Mutex
	changes []domain.StatusChange
}

func (m *memRecorder) RecordStatus(_ context.Context, changes []domain.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, changes...)
	return nil
}

type fixture struct {
	client   *fakeClient
	notifier *fakeNotifier
	redirect *fakeRedirector
	recorder *memRecorder
	stores   *Stores
}

// newFixture returns logged-in stores backed by a fake client with two
// categories and five feeds, three in the first category and two in the
// second.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	fc := newFakeClient()
	fc.categories = []*domain.Category{
		{ID: 1, Title: "news"},
		{ID: 2, Title: "video"},
	}
	fc.feeds = []*domain.Feed{
		{ID: 11, Title: "a", CategoryID: 1},
		{ID: 12, Title: "b", CategoryID: 1},
		{ID: 13, Title: "c", CategoryID: 1},
		{ID: 21, Title: "d", CategoryID: 2},
		{ID: 22, Title: "e", CategoryID: 2},
	}
	fc.counters = &domain.FeedCounters{
		Reads:   map[int64]int{11: 1, 12: 2, 21: 5},
		Unreads: map[int64]int{11: 4, 13: 3, 22: 1},
	}

	fx := &fixture{
		client:   fc,
		notifier: &fakeNotifier{},
		redirect: &fakeRedirector{},
		recorder: &memRecorder{},
	}
	stores, err := New(context.Background(), Config{
		Session: SessionConfig{
			Credentials: &memCredentials{creds: Credentials{Server: "https://flux.example", Token: "secret"}},
			Dial:        func(string, string) api.Client { return fc },
			Notifier:    fx.notifier,
		},
		Recorder: fx.recorder,
	})
	require.NoError(t, err)
	stores.Session.SetRedirector(fx.redirect)
	fx.stores = stores
	t.Cleanup(stores.Wait)

	return fx
}
