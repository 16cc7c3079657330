// Package router maps view paths to routes and holds back navigation to
// data views until the feeds are loaded.
package router

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownRoute = errors.New("unknown route")

type Name string

const (
	NameHome            Name = "home"
	NameCategory        Name = "cat"
	NameCategoryEntries Name = "cat-entries"
)

// Route is a parsed view path. CategoryID and FeedID are zero when the
// route does not carry them.
type Route struct {
	Name       Name
	Path       string
	CategoryID int64
	FeedID     int64
}

func (r Route) IsHome() bool {
	return r.Name == NameHome
}

func Home() Route {
	return Route{Name: NameHome, Path: "/"}
}

func Category(id int64) Route {
	return Route{
		Name:       NameCategory,
		Path:       fmt.Sprintf("/cat/%d", id),
		CategoryID: id,
	}
}

func CategoryEntries(categoryID, feedID int64) Route {
	return Route{
		Name:       NameCategoryEntries,
		Path:       fmt.Sprintf("/cat/%d/feeds/%d/entries", categoryID, feedID),
		CategoryID: categoryID,
		FeedID:     feedID,
	}
}

// Parse accepts "/", "/cat/:id" and "/cat/:catId/feeds/:id/entries".
// Trailing slashes are ignored.
func Parse(path string) (Route, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return Home(), nil
	}

	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 2 && parts[0] == "cat":
		id, err := parseID(parts[1])
		if err != nil {
			return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
		}
		return Category(id), nil
	case len(parts) == 5 && parts[0] == "cat" && parts[2] == "feeds" && parts[4] == "entries":
		catID, err := parseID(parts[1])
		if err != nil {
			return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
		}
		feedID, err := parseID(parts[3])
		if err != nil {
			return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
		}
		return CategoryEntries(catID, feedID), nil
	}

	return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id %d", id)
	}

	return id, nil
}
