package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/storage"
)

// Summary is what the journal knows about entries this client changed.
type Summary struct {
	TotalEntries   int64
	ByStatus       map[domain.EntryStatus]int64
	CategoryStatus map[int64]map[domain.EntryStatus]int64
	CategoryNames  map[int64]string
}

func summaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the category by status matrix of entries changed from this client",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.NewClient(opts.conf.StorageConfig())
			if err != nil {
				return fmt.Errorf("could not open database: %w", err)
			}
			defer db.Close()

			logger := opts.conf.Log.Logger(cmd.ErrOrStderr())
			summary := GenerateSummary(cmd.Context(), storage.NewJournal(db), func(what string, err error) {
				logger.Warn("could not get "+what, "error", err)
			})
			PrintMatrix(cmd.OutOrStdout(), summary)

			return nil
		},
	}
}

func GenerateSummary(ctx context.Context, journal *storage.Journal, warn func(what string, err error)) Summary {
	total, err := journal.TotalEntries(ctx)
	if err != nil {
		warn("total entries", err)
	}
	byStatus, err := journal.EntriesByStatus(ctx)
	if err != nil {
		warn("entries by status", err)
	}
	categoryStatus, err := journal.CategoryStatusMatrix(ctx)
	if err != nil {
		warn("category status matrix", err)
	}
	categoryNames, err := journal.CategoryNames(ctx)
	if err != nil {
		warn("category names", err)
	}

	return Summary{
		TotalEntries:   total,
		ByStatus:       byStatus,
		CategoryStatus: categoryStatus,
		CategoryNames:  categoryNames,
	}
}

func PrintMatrix(w io.Writer, s Summary) {
	if s.TotalEntries == 0 || len(s.CategoryStatus) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}

	statuses := []domain.EntryStatus{domain.StatusUnread, domain.StatusRead, domain.StatusRemoved}
	bold := color.New(color.Bold)

	bold.Fprintln(w, "Journal Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Total: %d entries\n\n", s.TotalEntries)
	fmt.Fprintln(w, "Category x Status Matrix:")

	colWidth := 10

	header := fmt.Sprintf("| %-24s ", "")
	for _, status := range statuses {
		header += fmt.Sprintf("| %-*s ", colWidth-1, status)
	}
	header += "|"
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("+", len(header)))

	catIDs := make([]int64, 0, len(s.CategoryStatus))
	for id := range s.CategoryStatus {
		catIDs = append(catIDs, id)
	}
	slices.Sort(catIDs)

	for _, catID := range catIDs {
		counts := s.CategoryStatus[catID]
		name := fmt.Sprintf("%d", catID)
		if title, ok := s.CategoryNames[catID]; ok {
			name = fmt.Sprintf("%d (%s)", catID, title)
		}
		row := fmt.Sprintf("| %-24s ", name)
		for _, status := range statuses {
			row += fmt.Sprintf("| %-*d ", colWidth-1, counts[status])
		}
		row += "|"
		fmt.Fprintln(w, row)
	}

	row := fmt.Sprintf("| %-24s ", "total")
	for _, status := range statuses {
		row += fmt.Sprintf("| %-*d ", colWidth-1, s.ByStatus[status])
	}
	row += "|"
	fmt.Fprintln(w, strings.Repeat("+", len(header)))
	fmt.Fprintln(w, row)
}
