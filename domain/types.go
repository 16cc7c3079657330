package domain

import (
	"slices"
	"time"
)

type EntryStatus string

const (
	StatusUnread  EntryStatus = "unread"
	StatusRead    EntryStatus = "read"
	StatusRemoved EntryStatus = "removed"
)

type User struct {
	ID       int64
	Username string
	IsAdmin  bool
	Theme    string
	Language string
	Timezone string
}

// Category aggregates the counters of the feeds attached to it. Feeds holds
// the same *Feed records the feed store owns.
type Category struct {
	ID              int64
	Title           string
	OwnerID         int64
	HideGlobally    bool
	Feeds           []*Feed
	UnreadFeedCount int
	TotalUnread     int
	TotalRead       int
}

// ResetCounters recomputes the aggregates from the attached feeds.
func (c *Category) ResetCounters() {
	c.UnreadFeedCount, c.TotalUnread, c.TotalRead = 0, 0, 0
	for _, f := range c.Feeds {
		if f.Unread > 0 {
			c.UnreadFeedCount++
		}
		c.TotalUnread += f.Unread
		c.TotalRead += f.Read
	}
}

type Feed struct {
	ID              int64
	OwnerID         int64
	CategoryID      int64
	Category        *Category
	Title           string
	SiteURL         string
	FeedURL         string
	CheckedAt       time.Time
	ErrorMessage    string
	ErrorCount      int
	Crawler         bool
	Disabled        bool
	IgnoreHTTPCache bool
	FetchViaProxy   bool
	UserAgent       string
	Username        string
	Password        string
	Icon            *Icon
	Read            int
	Unread          int
}

// AddRead moves delta entries from unread to read. A negative delta moves
// them back. Counters never drop below zero.
func (f *Feed) AddRead(delta int) {
	f.Unread = max(f.Unread-delta, 0)
	f.Read = max(f.Read+delta, 0)
}

type Entry struct {
	ID             int64
	OwnerID        int64
	FeedID         int64
	Title          string
	URL            string
	CommentsURL    string
	Author         string
	Content        string
	Hash           string
	PublishedAt    time.Time
	CreatedAt      time.Time
	Status         EntryStatus
	ShareCode      string
	Starred        bool
	ReadingTime    int
	EnclosureCount int
	Feed           *Feed
}

type EntryPage struct {
	Total   int
	Entries []*Entry
}

type FeedCounters struct {
	Reads   map[int64]int
	Unreads map[int64]int
}

type Icon struct {
	ID       int64
	MimeType string
	Data     string
}

// EntryFilter describes one page of an entry collection.
type EntryFilter struct {
	Status        EntryStatus
	Statuses      []EntryStatus
	Offset        int
	Limit         int
	Order         string
	Direction     string
	Before        int64
	After         int64
	BeforeEntryID int64
	AfterEntryID  int64
	Starred       bool
	Search        string
	CategoryID    int64
}

// Clone returns a copy that shares no memory with f.
func (f EntryFilter) Clone() EntryFilter {
	f.Statuses = slices.Clone(f.Statuses)
	return f
}

func (f EntryFilter) Equal(o EntryFilter) bool {
	return f.Status == o.Status &&
		slices.Equal(f.Statuses, o.Statuses) &&
		f.Offset == o.Offset &&
		f.Limit == o.Limit &&
		f.Order == o.Order &&
		f.Direction == o.Direction &&
		f.Before == o.Before &&
		f.After == o.After &&
		f.BeforeEntryID == o.BeforeEntryID &&
		f.AfterEntryID == o.AfterEntryID &&
		f.Starred == o.Starred &&
		f.Search == o.Search &&
		f.CategoryID == o.CategoryID
}

func DefaultFilter() EntryFilter {
	return EntryFilter{
		Status:    StatusUnread,
		Order:     "published_at",
		Direction: "desc",
		Limit:     25,
	}
}

// StatusChange is an acknowledged change of an entry's status.
type StatusChange struct {
	EntryID    int64
	FeedID     int64
	CategoryID int64
	Title      string
	URL        string
	Status     EntryStatus
}
