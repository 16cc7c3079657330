package tui

import (
	"fmt"
	"strings"

	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/notify"
	"go-mod.ewintr.nl/fluxreader/router"
	"go-mod.ewintr.nl/fluxreader/store"
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title()))
	if !m.lastUpdate.IsZero() {
		b.WriteString(statsStyle.Render(fmt.Sprintf("  (last updated %s)", m.lastUpdate.Format("15:04:05"))))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(statsStyle.Render("loading..."))
		b.WriteString("\n")
	case m.app.Stores.Session.State.Current() == store.SessionAuthNeeded:
		b.WriteString("Not logged in. Run fluxreader login first.\n")
	case m.reading != nil:
		b.WriteString(m.readerView())
	case m.route.Name == router.NameCategory:
		b.WriteString(m.feedsView())
	case m.route.Name == router.NameCategoryEntries:
		b.WriteString(m.entriesView())
	default:
		b.WriteString(m.categoriesView())
	}

	for _, n := range m.notes {
		b.WriteString("\n")
		if n.Level == notify.LevelError {
			b.WriteString(errorNoteStyle.Render(n.Message))
		} else {
			b.WriteString(infoNoteStyle.Render(n.Message))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.help())

	return b.String()
}

func (m model) title() string {
	title := "fluxreader"
	if m.user != nil {
		title += " - " + m.user.Username
	}
	switch m.route.Name {
	case router.NameCategory, router.NameCategoryEntries:
		if view := m.currentCategory(); view != nil {
			title += " / " + view.Category.Title
		}
	}
	if m.route.Name == router.NameCategoryEntries {
		if view := m.currentCategory(); view != nil {
			for _, f := range view.Feeds {
				if f.ID == m.route.FeedID {
					title += " / " + f.Title
				}
			}
		}
	}

	return title
}

func (m model) line(i int, text string) string {
	if i == m.cursor {
		return cursorStyle.Render("> ") + text + "\n"
	}
	return "  " + text + "\n"
}

func (m model) categoriesView() string {
	if len(m.categories) == 0 {
		return statsStyle.Render("(no categories)") + "\n"
	}

	var b strings.Builder
	for i, view := range m.categories {
		cat := view.Category
		text := cat.Title
		if cat.TotalUnread > 0 {
			text = unreadStyle.Render(text)
		}
		text += statsStyle.Render(fmt.Sprintf("  %d unread in %d %s, %d read",
			cat.TotalUnread, cat.UnreadFeedCount, domain.Pluralize(cat.UnreadFeedCount, "feed"), cat.TotalRead))
		b.WriteString(m.line(i, text))
	}

	return b.String()
}

func (m model) feedsView() string {
	view := m.currentCategory()
	if view == nil || len(view.Feeds) == 0 {
		return statsStyle.Render("(no feeds)") + "\n"
	}

	var b strings.Builder
	for i, feed := range view.Feeds {
		text := feed.Title
		if feed.Unread > 0 {
			text = unreadStyle.Render(text)
		}
		text += statsStyle.Render(fmt.Sprintf("  %d/%d", feed.Unread, feed.Unread+feed.Read))
		if feed.ErrorCount > 0 {
			text += feedErrorStyle.Render(fmt.Sprintf("  %d %s: %s",
				feed.ErrorCount, domain.Pluralize(feed.ErrorCount, "error"), feed.ErrorMessage))
		}
		b.WriteString(m.line(i, text))
	}

	return b.String()
}

func (m model) entriesView() string {
	if len(m.entries) == 0 {
		return statsStyle.Render("(no entries)") + "\n"
	}

	var b strings.Builder
	for i, entry := range m.entries {
		marker := " "
		if entry.Starred {
			marker = starStyle.Render("*")
		}
		var text string
		switch entry.Status {
		case domain.StatusUnread:
			text = unreadStyle.Render(entry.Title)
		default:
			text = readStyle.Render(entry.Title)
		}
		text += statsStyle.Render(fmt.Sprintf("  %s, %d %s",
			entry.PublishedAt.Format("2006-01-02"), entry.ReadingTime, pluralWord(entry.ReadingTime, "minute")))
		b.WriteString(m.line(i, marker+" "+text))
	}
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf("%d of %d %s", len(m.entries), m.total, pluralWord(m.total, "entry"))))
	b.WriteString("\n")

	return b.String()
}

func pluralWord(n int, word string) string {
	if word == "entry" && n != 1 {
		return "entries"
	}
	return domain.Pluralize(n, word)
}

func (m model) readerView() string {
	entry := m.reading
	var b strings.Builder
	b.WriteString(unreadStyle.Render(entry.Title))
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(entry.URL))
	b.WriteString("\n\n")

	content := m.content
	if m.height > 10 {
		lines := strings.Split(content, "\n")
		if len(lines) > m.height-10 {
			content = strings.Join(lines[:m.height-10], "\n") + "\n..."
		}
	}
	b.WriteString(content)
	b.WriteString("\n")

	return b.String()
}

func (m model) help() string {
	keys := [][2]string{{"j/k", "move"}, {"enter", "open"}, {"esc", "back"}, {"r", "reload"}}
	switch m.route.Name {
	case router.NameHome:
		keys = append(keys, [2]string{"a", "mark category read"})
	case router.NameCategory:
		keys = append(keys, [2]string{"a", "mark feed read"}, [2]string{"R", "refresh feed"})
	case router.NameCategoryEntries:
		keys = append(keys, [2]string{"m", "read/unread"}, [2]string{"s", "star"},
			[2]string{"d", "remove"}, [2]string{"a", "mark page read"})
		if m.app.Stores.Entries.CanUndo() {
			keys = append(keys, [2]string{"u", "undo"})
		}
	}
	if len(m.notes) > 0 {
		keys = append(keys, [2]string{"x", "dismiss"})
	}
	keys = append(keys, [2]string{"q", "quit"})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k[0])+" "+helpDescStyle.Render(k[1]))
	}

	return strings.Join(parts, "  ")
}
