// Package tui is the terminal client. It drives the stores and renders
// whatever they hold; all data rules live in the stores.
package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/notify"
	"go-mod.ewintr.nl/fluxreader/router"
	"go-mod.ewintr.nl/fluxreader/store"
)

type App struct {
	Stores *store.Stores
	Router *router.Router
	Center *notify.Center
	Logger *slog.Logger
}

type (
	loadedMsg struct {
		categories []store.CategoryView
		user       *domain.User
	}
	entriesMsg struct {
		route   router.Route
		entries []domain.Entry
		total   int
	}
	routeMsg   router.Route
	notesMsg   struct{}
	tickMsg    time.Time
	changedMsg struct{}
)

type model struct {
	ctx    context.Context
	app    App
	logger *slog.Logger
	routes <-chan router.Route

	route      router.Route
	cursor     int
	user       *domain.User
	categories []store.CategoryView
	entries    []domain.Entry
	total      int
	reading    *domain.Entry
	content    string
	notes      []notify.Notification
	loading    bool
	lastUpdate time.Time
	height     int
}

func newModel(ctx context.Context, app App, routes <-chan router.Route) model {
	logger := app.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return model{
		ctx:     ctx,
		app:     app,
		logger:  logger.With("component", "tui"),
		routes:  routes,
		route:   router.Home(),
		loading: true,
	}
}

// Run shows the client until the user quits or ctx ends.
func Run(ctx context.Context, app App) error {
	routes, cancel := app.Router.Current.Subscribe()
	defer cancel()

	p := tea.NewProgram(newModel(ctx, app, routes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.load(false), m.waitRoute(), m.waitNotes())
}

func (m model) load(force bool) tea.Cmd {
	return func() tea.Msg {
		m.app.Stores.Load(m.ctx, force)
		return loadedMsg{
			categories: m.app.Stores.Categories.Snapshot(),
			user:       m.app.Stores.Session.User(),
		}
	}
}

func (m model) fetchEntries(route router.Route, force bool) tea.Cmd {
	return func() tea.Msg {
		m.app.Stores.Entries.FeedEntries(m.ctx, route.FeedID, force)
		return entriesMsg{
			route:   route,
			entries: m.app.Stores.Entries.Snapshot(),
			total:   m.app.Stores.Entries.Total(),
		}
	}
}

func (m model) waitRoute() tea.Cmd {
	if m.routes == nil {
		return nil
	}
	return func() tea.Msg {
		route, ok := <-m.routes
		if !ok {
			return nil
		}
		return routeMsg(route)
	}
}

func (m model) waitNotes() tea.Cmd {
	if m.app.Center == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-m.app.Center.Changed():
		case <-m.ctx.Done():
			return nil
		}
		return notesMsg{}
	}
}

func (m model) navigate(route router.Route) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.Router.GoTo(m.ctx, route); err != nil {
			m.logger.Warn("could not navigate", "path", route.Path, "error", err)
		}
		return nil
	}
}

// act runs a store action and then refreshes the view from the stores.
func (m model) act(fn func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(m.ctx)
		return changedMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case loadedMsg:
		m.loading = false
		m.categories = msg.categories
		m.user = msg.user
		m.lastUpdate = time.Now()
		m.clampCursor()
	case entriesMsg:
		if msg.route != m.route {
			return m, nil
		}
		m.loading = false
		m.entries = msg.entries
		m.total = msg.total
		m.lastUpdate = time.Now()
		m.clampCursor()
	case changedMsg:
		m.categories = m.app.Stores.Categories.Snapshot()
		if m.route.Name == router.NameCategoryEntries {
			m.entries = m.app.Stores.Entries.Snapshot()
		}
		m.clampCursor()
	case routeMsg:
		return m.enter(router.Route(msg))
	case notesMsg:
		m.notes = m.app.Center.Active()
		cmds := []tea.Cmd{m.waitNotes()}
		if len(m.notes) > 0 {
			cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }))
		}
		return m, tea.Batch(cmds...)
	case tickMsg:
		m.notes = m.app.Center.Active()
		if len(m.notes) > 0 {
			return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) enter(route router.Route) (tea.Model, tea.Cmd) {
	wait := m.waitRoute()
	if route == m.route {
		return m, wait
	}
	m.route = route
	m.cursor = 0
	m.reading = nil
	m.content = ""
	if route.Name == router.NameCategoryEntries {
		m.loading = true
		m.entries = nil
		return m, tea.Batch(wait, m.fetchEntries(route, false))
	}

	return m, wait
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
	case "enter", "l":
		return m.open()
	case "esc", "backspace", "h":
		return m.back()
	case "r":
		m.loading = true
		if m.route.Name == router.NameCategoryEntries {
			return m, m.fetchEntries(m.route, true)
		}
		return m, m.load(true)
	case "R":
		if feed := m.selectedFeed(); feed != nil {
			return m, m.act(func(ctx context.Context) { m.app.Stores.Feeds.RefreshFeed(ctx, feed) })
		}
	case "m":
		if entry := m.selectedEntry(); entry != nil {
			unread := m.entries[m.cursor].Status == domain.StatusUnread
			return m, m.act(func(ctx context.Context) {
				if unread {
					m.app.Stores.Entries.MarkRead(ctx, entry)
					return
				}
				m.app.Stores.Entries.MarkUnread(ctx, entry)
			})
		}
	case "s":
		if entry := m.selectedEntry(); entry != nil {
			return m, m.act(func(ctx context.Context) { m.app.Stores.Entries.ToggleStar(ctx, entry) })
		}
	case "d":
		if entry := m.selectedEntry(); entry != nil {
			return m, m.act(func(ctx context.Context) { m.app.Stores.Entries.MarkRemoved(ctx, entry) })
		}
	case "a":
		return m, m.markAllRead()
	case "u":
		return m, m.act(m.app.Stores.Entries.UndoLastMarkRead)
	case "x":
		if m.app.Center != nil {
			m.app.Center.DismissAll()
		}
	}

	return m, nil
}

func (m model) open() (tea.Model, tea.Cmd) {
	switch m.route.Name {
	case router.NameHome:
		if cat := m.selectedCategory(); cat != nil {
			return m, m.navigate(router.Category(cat.Category.ID))
		}
	case router.NameCategory:
		if feed := m.selectedFeed(); feed != nil {
			return m, m.navigate(router.CategoryEntries(m.route.CategoryID, feed.ID))
		}
	case router.NameCategoryEntries:
		if m.reading != nil || m.cursor >= len(m.entries) {
			return m, nil
		}
		shown := m.entries[m.cursor]
		m.reading = &shown
		m.content = RenderContent(shown.Content)
		if entry := m.selectedEntry(); entry != nil && shown.Status == domain.StatusUnread {
			return m, m.act(func(ctx context.Context) { m.app.Stores.Entries.MarkRead(ctx, entry) })
		}
	}

	return m, nil
}

func (m model) back() (tea.Model, tea.Cmd) {
	switch {
	case m.reading != nil:
		m.reading = nil
		m.content = ""
	case m.route.Name == router.NameCategoryEntries:
		return m, m.navigate(router.Category(m.route.CategoryID))
	case m.route.Name == router.NameCategory:
		return m, m.navigate(router.Home())
	}

	return m, nil
}

func (m model) markAllRead() tea.Cmd {
	switch m.route.Name {
	case router.NameHome:
		if view := m.selectedCategory(); view != nil {
			cat := m.app.Stores.Categories.LookupByID(view.Category.ID)
			if cat == nil {
				return nil
			}
			return m.act(func(ctx context.Context) { m.app.Stores.Categories.MarkCategoryRead(ctx, cat) })
		}
	case router.NameCategory:
		if feed := m.selectedFeed(); feed != nil {
			return m.act(func(ctx context.Context) { m.app.Stores.Feeds.MarkFeedRead(ctx, feed) })
		}
	case router.NameCategoryEntries:
		page := make([]*domain.Entry, 0, len(m.entries))
		for _, e := range m.entries {
			if entry := m.app.Stores.Entries.LookupByID(e.ID); entry != nil {
				page = append(page, entry)
			}
		}
		return m.act(func(ctx context.Context) { m.app.Stores.Entries.MarkManyRead(ctx, page) })
	}

	return nil
}

func (m model) currentCategory() *store.CategoryView {
	for i := range m.categories {
		if m.categories[i].Category.ID == m.route.CategoryID {
			return &m.categories[i]
		}
	}
	return nil
}

func (m model) selectedCategory() *store.CategoryView {
	if m.route.Name != router.NameHome || m.cursor >= len(m.categories) {
		return nil
	}
	return &m.categories[m.cursor]
}

// selectedFeed returns the store's record for the feed under the cursor.
func (m model) selectedFeed() *domain.Feed {
	if m.route.Name != router.NameCategory {
		return nil
	}
	view := m.currentCategory()
	if view == nil || m.cursor >= len(view.Feeds) {
		return nil
	}
	return m.app.Stores.Feeds.LookupByID(view.Feeds[m.cursor].ID)
}

// selectedEntry returns the store's record for the entry under the cursor.
func (m model) selectedEntry() *domain.Entry {
	if m.route.Name != router.NameCategoryEntries || m.cursor >= len(m.entries) {
		return nil
	}
	return m.app.Stores.Entries.LookupByID(m.entries[m.cursor].ID)
}

func (m model) rows() int {
	switch m.route.Name {
	case router.NameCategory:
		if view := m.currentCategory(); view != nil {
			return len(view.Feeds)
		}
		return 0
	case router.NameCategoryEntries:
		return len(m.entries)
	default:
		return len(m.categories)
	}
}

func (m *model) clampCursor() {
	if rows := m.rows(); m.cursor >= rows {
		m.cursor = max(rows-1, 0)
	}
}
