package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-mod.ewintr.nl/fluxreader/api"
	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/notify"
	"go-mod.ewintr.nl/fluxreader/router"
	"go-mod.ewintr.nl/fluxreader/store"
)

type readerClient struct {
	api.Unconfigured

	mu      sync.Mutex
	updates []domain.EntryStatus
}

func (c *readerClient) Me(context.Context) (*domain.User, error) {
	return &domain.User{ID: 1, Username: "erik"}, nil
}

func (c *readerClient) Categories(context.Context) ([]*domain.Category, error) {
	return []*domain.Category{{ID: 1, Title: "news"}, {ID: 2, Title: "video"}}, nil
}

func (c *readerClient) Feeds(context.Context) ([]*domain.Feed, error) {
	return []*domain.Feed{
		{ID: 11, CategoryID: 1, Title: "daily"},
		{ID: 21, CategoryID: 2, Title: "clips", ErrorCount: 2, ErrorMessage: "timeout"},
	}, nil
}

func (c *readerClient) FeedCounters(context.Context) (*domain.FeedCounters, error) {
	return &domain.FeedCounters{
		Reads:   map[int64]int{11: 1},
		Unreads: map[int64]int{11: 2},
	}, nil
}

func (c *readerClient) FeedEntries(_ context.Context, feedID int64, _ domain.EntryFilter) (*domain.EntryPage, error) {
	return &domain.EntryPage{Total: 2, Entries: []*domain.Entry{
		{ID: 1, FeedID: feedID, Title: "first", Status: domain.StatusUnread, Content: "<p>hello <b>world</b></p>"},
		{ID: 2, FeedID: feedID, Title: "second", Status: domain.StatusUnread},
	}}, nil
}

func (c *readerClient) UpdateEntries(_ context.Context, _ []int64, status domain.EntryStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, status)
	return nil
}

func newTestModel(t *testing.T) (model, *readerClient) {
	t.Helper()
	client := &readerClient{}
	stores, err := store.New(context.Background(), store.Config{
		Session: store.SessionConfig{
			Dial: func(string, string) api.Client { return client },
		},
	})
	require.NoError(t, err)
	_, err = stores.Session.Register(context.Background(), "https://flux.example", "secret")
	require.NoError(t, err)
	t.Cleanup(stores.Wait)

	app := App{
		Stores: stores,
		Router: router.New(router.NewGuard(stores.Feeds.State), nil),
		Center: notify.NewCenter(0),
	}
	return newModel(context.Background(), app, nil), client
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	res, ok := next.(model)
	require.True(t, ok)
	return res, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRenderContent(t *testing.T) {
	assert.Equal(t, "hello **world**", RenderContent("<p>hello <b>world</b></p>"))
	assert.NotContains(t, RenderContent(`<p>hi</p><script>alert("x")</script>`), "alert")
}

func TestHomeShowsCategories(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, m.load(false)())

	assert.False(t, m.loading)
	require.Len(t, m.categories, 2)
	view := m.View()
	assert.Contains(t, view, "erik")
	assert.Contains(t, view, "news")
	assert.Contains(t, view, "2 unread in 1 feed, 1 read")
}

func TestFeedErrorsShowCount(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, m.load(false)())

	m, _ = update(t, m, routeMsg(router.Category(2)))
	view := m.View()
	assert.Contains(t, view, "clips")
	assert.Contains(t, view, "2 errors: timeout")
}

func TestBrowseAndMarkRead(t *testing.T) {
	m, client := newTestModel(t)
	m, _ = update(t, m, m.load(false)())

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, router.Category(1), m.app.Router.Current.Current())

	m, _ = update(t, m, routeMsg(router.Category(1)))
	assert.Contains(t, m.View(), "daily")
	assert.Contains(t, m.View(), "2/3")

	m, cmd = update(t, m, key("enter"))
	cmd()
	route := router.CategoryEntries(1, 11)
	assert.Equal(t, route, m.app.Router.Current.Current())

	m, _ = update(t, m, routeMsg(route))
	assert.True(t, m.loading)
	m, _ = update(t, m, m.fetchEntries(route, false)())
	require.Len(t, m.entries, 2)
	assert.Contains(t, m.View(), "2 of 2 entries")

	m, cmd = update(t, m, key("enter"))
	require.NotNil(t, m.reading)
	assert.Contains(t, m.View(), "hello **world**")
	m, _ = update(t, m, cmd())
	assert.Equal(t, domain.StatusRead, m.entries[0].Status)
	assert.Equal(t, 1, m.currentCategory().Feeds[0].Unread)

	m, _ = update(t, m, key("esc"))
	assert.Nil(t, m.reading)

	m, _ = update(t, m, key("j"))
	m, cmd = update(t, m, key("a"))
	m, _ = update(t, m, cmd())
	m.app.Stores.Wait()
	assert.Equal(t, domain.StatusRead, m.entries[1].Status)
	assert.Contains(t, m.View(), "undo")

	m, cmd = update(t, m, key("u"))
	m, _ = update(t, m, cmd())
	m.app.Stores.Wait()
	assert.Equal(t, domain.StatusUnread, m.entries[1].Status)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, []domain.EntryStatus{domain.StatusRead, domain.StatusRead, domain.StatusUnread}, client.updates)
}

func TestEntriesForOtherRouteIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, m.load(false)())

	m, _ = update(t, m, m.fetchEntries(router.CategoryEntries(1, 11), false)())
	assert.Empty(t, m.entries)
}

func TestNotificationsShownAndDismissed(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, m.load(false)())

	m.app.Center.Error("server on fire")
	m, cmd := update(t, m, notesMsg{})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "server on fire")

	m, _ = update(t, m, key("x"))
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.NotContains(t, m.View(), "server on fire")
}
