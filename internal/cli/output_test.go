package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/hyperjump/jidai/internal/dates"
	"github.com/hyperjump/jidai/internal/models"
)

func init() {
	color.NoColor = true
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolverForLayout(t *testing.T) {
	clock := dates.WithClock(func() time.Time { return time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC) })
	tests := []struct {
		layout string
		input  string
		want   string
	}{
		{"default", "05-03-24", "05-03-2024"},
		{"", "05-03", "05-03-2025"},
		{"chat", "05/03", "05-03-2025"},
		{"news", "2024-03-05", "05-03-2024"},
	}
	for _, tt := range tests {
		r, err := ResolverForLayout(tt.layout, clock)
		if err != nil {
			t.Fatalf("ResolverForLayout(%q): %v", tt.layout, err)
		}
		got, err := r.Resolve(tt.input)
		if err != nil {
			t.Fatalf("layout %q resolve %q: %v", tt.layout, tt.input, err)
		}
		if got.String() != tt.want {
			t.Errorf("layout %q resolve %q = %s, want %s", tt.layout, tt.input, got, tt.want)
		}
	}
	if _, err := ResolverForLayout("iso"); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestWriteEvents_JSON(t *testing.T) {
	result := &Result{
		Date:  "05-03-2024",
		Query: "budget",
		Events: []models.InterpretedEvent{
			{ID: "e1", Date: "05-03-2024", Title: "Budget", FullText: "text", HistoricalContext: "context"},
		},
	}
	var buf bytes.Buffer
	if err := WriteEvents(&buf, result, OutputJSON); err != nil {
		t.Fatalf("WriteEvents(json): %v", err)
	}
	var decoded Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Date != "05-03-2024" || len(decoded.Events) != 1 || decoded.Events[0].ID != "e1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteEvents_JSONEmptyEventsIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEvents(&buf, &Result{Date: "05-03-2024"}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"events": []`) {
		t.Errorf("expected empty events array, got %s", buf.String())
	}
}

func TestWriteEvents_Text(t *testing.T) {
	result := &Result{
		Date: "05-03-2024",
		Events: []models.InterpretedEvent{
			{Date: "05-03-2024", Title: "Budget passed", SourceURL: "https://example.com/b", Summary: "Short summary", FullText: "Full text", HistoricalContext: "Past budgets"},
			{Date: "05-03-2024", FullText: "Gazette text", HistoricalContext: "Gazette context"},
		},
	}
	var buf bytes.Buffer
	if err := WriteEvents(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"2 event(s) for 05-03-2024",
		"[1] Budget passed",
		"https://example.com/b",
		"Short summary",
		"Historical Context:",
		"Past budgets",
		"[2] 05-03-2024",
		"Gazette context",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteEvents_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteEvents(&buf, &Result{Date: "05-03-2024"}, OutputText)
	if got := buf.String(); got != "No events found for 05-03-2024.\n" {
		t.Errorf("got %q", got)
	}
}
