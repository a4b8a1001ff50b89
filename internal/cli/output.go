// Package cli provides output and argument helpers for the jidai command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hyperjump/jidai/internal/dates"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/pkg/utils"
)

// OutputFormat is the format for interpreted event output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// ResolverForLayout returns the date resolver for a --layout value:
// default (DD-MM-YYYY, DD-MM-YY, DD-MM), chat (DD/MM/YY, DD/MM) or news (YYYY-MM-DD).
func ResolverForLayout(layout string, opts ...dates.Option) (*dates.Resolver, error) {
	switch layout {
	case "", "default":
		return dates.Default(opts...), nil
	case "chat":
		return dates.Chat(opts...), nil
	case "news":
		return dates.NewsForm(opts...), nil
	}
	return nil, fmt.Errorf("unknown date layout %q; use default, chat or news", layout)
}

// Result is what the interpret command prints.
type Result struct {
	Date   string                    `json:"date"`
	Query  string                    `json:"query,omitempty"`
	Events []models.InterpretedEvent `json:"events"`
}

// WriteEvents writes result to w in the given format.
func WriteEvents(w io.Writer, result *Result, format OutputFormat) error {
	if result.Events == nil {
		result.Events = []models.InterpretedEvent{}
	}
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeEventsText(w, result)
		return nil
	}
}

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func writeEventsText(w io.Writer, result *Result) {
	if len(result.Events) == 0 {
		fmt.Fprintf(w, "No events found for %s.\n", result.Date)
		return
	}
	fmt.Fprintf(w, "\n%d event(s) for %s\n\n", len(result.Events), result.Date)
	for i, e := range result.Events {
		fmt.Fprintln(w, strings.Repeat("─", 57))
		title := e.Title
		if title == "" {
			title = e.Date
		}
		headingColor.Fprintf(w, "[%d] %s\n", i+1, title)
		if e.SourceURL != "" {
			dimColor.Fprintf(w, "%s\n", e.SourceURL)
		}
		if e.Summary != "" {
			fmt.Fprintf(w, "\n%s\n", e.Summary)
		}
		labelColor.Fprintln(w, "\nText:")
		fmt.Fprintln(w, utils.Truncate(e.FullText, 500))
		labelColor.Fprintln(w, "\nHistorical Context:")
		fmt.Fprintln(w, e.HistoricalContext)
		fmt.Fprintln(w)
	}
}
