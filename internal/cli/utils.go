// Package cli provides output helpers for the billsync command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hyperjump/billsync/internal/billsearch"
	"github.com/hyperjump/billsync/internal/models"
	"github.com/hyperjump/billsync/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a -output flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, results *models.SearchResults, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	writeSearchResultsText(w, results)
	return nil
}

func writeSearchResultsText(w io.Writer, results *models.SearchResults) {
	fmt.Fprintf(w, "\nFound %d bills in %dms (showing %d, %s)\n\n",
		results.Total, results.QueryTime, len(results.Results), results.LimitOffset)
	for _, result := range results.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | %s\n", result.Rank, result.Score, result.ID)
	if b := result.Bill; b != nil {
		if b.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", b.Title)
		}
		if b.Sponsor != "" {
			fmt.Fprintf(w, "Sponsor: %s\n", b.Sponsor)
		}
		if b.Summary != "" {
			fmt.Fprintf(w, "\n%s\n", TruncateWords(utils.CollapseWhitespace(b.Summary), 40))
		}
	}
	fmt.Fprintln(w)
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(results *models.SearchResults) {
	_ = WriteSearchResults(os.Stdout, results, OutputText)
}

// WriteRebuildReport writes the outcome of a rebuild.
func WriteRebuildReport(w io.Writer, report *billsearch.RebuildReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	if report.EmptyStore {
		fmt.Fprintf(w, "Bill store is empty; index cleared in %s\n", report.Duration.Round(time.Millisecond))
		return nil
	}
	sessions := make([]string, len(report.Sessions))
	for i, s := range report.Sessions {
		sessions[i] = s.String()
	}
	fmt.Fprintf(w, "Rebuilt bill index in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Sessions: %s\n", strings.Join(sessions, ", "))
	fmt.Fprintf(w, "  Bills:    %d (%d indexed, %d removed, %d missing)\n",
		report.Bills, report.Indexed, report.Deleted, report.Missing)
	fmt.Fprintf(w, "  Fetches:  %d\n", report.Fetches)
	return nil
}

// StatusView is what the status command prints: the service status plus where its data lives.
type StatusView struct {
	Status         *billsearch.Status `json:"status"`
	DatabasePath   string             `json:"database_path,omitempty"`
	IndexPath      string             `json:"index_path,omitempty"`
	DiskUsageBytes *int64             `json:"disk_usage_bytes,omitempty"`
	Subscribers    int                `json:"subscribers,omitempty"`
}

// WriteStatus writes a status view.
func WriteStatus(w io.Writer, view *StatusView, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, view)
	}
	st := view.Status
	if st == nil {
		st = &billsearch.Status{}
	}
	fmt.Fprintf(w, "Indexed bills:    %d\n", st.IndexedBills)
	fmt.Fprintf(w, "Stored bills:     %d\n", st.StoredBills)
	fmt.Fprintf(w, "Indexing enabled: %t\n", st.IndexingEnabled)
	fmt.Fprintf(w, "Rebuilding:       %t\n", st.Rebuilding)
	if view.Subscribers > 0 {
		fmt.Fprintf(w, "Subscribers:      %d\n", view.Subscribers)
	}
	if view.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk usage:       %s\n", FormatBytes(*view.DiskUsageBytes))
	}
	if view.DatabasePath != "" {
		fmt.Fprintf(w, "Database:         %s\n", view.DatabasePath)
	}
	if view.IndexPath != "" {
		fmt.Fprintf(w, "Index:            %s\n", view.IndexPath)
	}
	if r := st.LastRebuild; r != nil {
		fmt.Fprintf(w, "Last rebuild:     %s (%d indexed, %d removed)\n",
			r.StartedAt.Format(time.RFC3339), r.Indexed, r.Deleted)
	}
	return nil
}

// FormatBytes renders n using binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
