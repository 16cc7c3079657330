package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-mod.ewintr.nl/fluxreader/api"
	"go-mod.ewintr.nl/fluxreader/domain"
)

type cliClient struct {
	api.Unconfigured

	mu      sync.Mutex
	token   string
	updates [][]int64
}

func (c *cliClient) Me(context.Context) (*domain.User, error) {
	if c.token != "secret" {
		return nil, api.ErrUnauthorized
	}
	return &domain.User{ID: 1, Username: "erik"}, nil
}

func (c *cliClient) Categories(context.Context) ([]*domain.Category, error) {
	return []*domain.Category{{ID: 1, Title: "news"}}, nil
}

func (c *cliClient) Feeds(context.Context) ([]*domain.Feed, error) {
	return []*domain.Feed{{ID: 11, CategoryID: 1, Title: "daily"}}, nil
}

func (c *cliClient) FeedCounters(context.Context) (*domain.FeedCounters, error) {
	return &domain.FeedCounters{Reads: map[int64]int{11: 3}, Unreads: map[int64]int{11: 2}}, nil
}

func (c *cliClient) FeedEntries(_ context.Context, feedID int64, _ domain.EntryFilter) (*domain.EntryPage, error) {
	return &domain.EntryPage{Total: 2, Entries: []*domain.Entry{
		{ID: 101, FeedID: feedID, Title: "first", Status: domain.StatusUnread},
		{ID: 102, FeedID: feedID, Title: "second", Status: domain.StatusUnread},
	}}, nil
}

func (c *cliClient) UpdateEntries(_ context.Context, ids []int64, _ domain.EntryStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, ids)
	return nil
}

type harness struct {
	t          *testing.T
	configPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("MINIFLUX_HOSTNAME", "")
	t.Setenv("MINIFLUX_API_KEY", "")
	t.Setenv("FLUXREADER_DB_PATH", filepath.Join(t.TempDir(), "fluxreader.db"))
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"error\"\n"), 0o600))

	return &harness{t: t, configPath: path}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCmd(&options{
		dial: func(_, token string) api.Client { return &cliClient{token: token} },
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestLoginStatusLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")

	_, err = h.run("login", "--server", "https://flux.example/", "--token", "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	out, err = h.run("login", "--server", "https://flux.example/", "--token", "secret")
	require.NoError(t, err)
	assert.Equal(t, "logged in as erik on https://flux.example\n", out)

	out, err = h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as erik")
	assert.Contains(t, out, "news")
	assert.Contains(t, out, "2 unread in 1 feed, 3 read")

	_, err = h.run("logout")
	require.NoError(t, err)
	out, err = h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
}

func TestLoginNeedsServerAndToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--token", "secret")
	assert.Error(t, err)
}

func TestReadMarkAndSummary(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "--server", "https://flux.example", "--token", "secret")
	require.NoError(t, err)
	_, err = h.run("status")
	require.NoError(t, err)

	out, err := h.run("summary")
	require.NoError(t, err)
	assert.Equal(t, "(no data)\n", out)

	_, err = h.run("read")
	assert.Error(t, err)

	out, err = h.run("read", "11", "--mark")
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "2 of 2 entries (feed:11)")
	assert.Contains(t, out, "marked read")

	out, err = h.run("summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2 entries")
	assert.Contains(t, out, "1 (news)")
}

func TestPrintMatrix(t *testing.T) {
	var buf bytes.Buffer
	PrintMatrix(&buf, Summary{
		TotalEntries: 5,
		ByStatus:     map[domain.EntryStatus]int64{domain.StatusRead: 4, domain.StatusUnread: 1},
		CategoryStatus: map[int64]map[domain.EntryStatus]int64{
			2: {domain.StatusRead: 1},
			1: {domain.StatusRead: 3, domain.StatusUnread: 1},
		},
		CategoryNames: map[int64]string{1: "news"},
	})

	out := buf.String()
	assert.Contains(t, out, "Total: 5 entries")
	assert.Contains(t, out, "| 1 (news)                 | 1         | 3         | 0         |")
	assert.Contains(t, out, "| 2                        | 0         | 1         | 0         |")
	assert.Contains(t, out, "| total                    | 1         | 4         | 0         |")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("1 (news)")), bytes.Index(buf.Bytes(), []byte("| 2 ")))
}
