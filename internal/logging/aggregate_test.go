package logging

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeLogFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write %s failed: %v", path, err)
	}
}

func entryMessages(entries []LogEntry) []string {
	messages := make([]string, len(entries))
	for i, entry := range entries {
		messages[i] = entry.Message
	}
	return messages
}

func TestAggregateLogsReadsEntries(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, filepath.Join(dir, DebugLogFile),
		`{"time":"2026-08-25T10:00:00.000Z","level":"INFO","msg":"run started","run_id":"8f14e45f"}`,
		`{"time":"2026-08-25T10:00:05.000Z","level":"DEBUG","msg":"spawning agent","run_id":"8f14e45f","iteration":1,"agent":"worker","command":"codex"}`,
	)

	entries, err := AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if want := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC); !first.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, want)
	}
	if first.Level != "INFO" || first.Message != "run started" || first.RunID != "8f14e45f" {
		t.Errorf("first entry = %+v", first)
	}

	second := entries[1]
	if second.Iteration != 1 || second.Agent != "worker" {
		t.Errorf("second entry context = iteration %d, agent %q", second.Iteration, second.Agent)
	}
	if second.Attrs["command"] != "codex" {
		t.Errorf("Attrs[command] = %v, want codex", second.Attrs["command"])
	}
}

func TestAggregateLogsSortsByTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, filepath.Join(dir, DebugLogFile),
		`{"time":"2026-08-25T10:02:00Z","level":"INFO","msg":"third"}`,
		`{"time":"2026-08-25T10:00:00Z","level":"INFO","msg":"first"}`,
		`{"time":"2026-08-25T10:01:00Z","level":"INFO","msg":"second"}`,
	)

	entries, err := AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}

	got := entryMessages(entries)
	want := []string{"first", "second", "third"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestAggregateLogsAcrossRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, DebugLogFile)

	// Oldest entries live in the highest-numbered backup.
	writeLogFile(t, live+".2",
		`{"time":"2026-08-25T09:00:00Z","level":"INFO","msg":"iteration 1"}`,
	)
	writeLogFile(t, live+".1",
		`{"time":"2026-08-25T09:30:00Z","level":"INFO","msg":"iteration 2"}`,
	)
	writeLogFile(t, live,
		`{"time":"2026-08-25T10:00:00Z","level":"INFO","msg":"iteration 3"}`,
	)

	entries, err := AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}

	got := entryMessages(entries)
	want := []string{"iteration 1", "iteration 2", "iteration 3"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestAggregateLogsSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, DebugLogFile)

	writeLogFile(t, live,
		`{"time":"2026-08-25T10:00:00Z","level":"INFO","msg":"kept"}`,
	)
	// Compressed and non-numeric suffixes are not aggregated.
	if err := os.WriteFile(live+".1.gz", []byte("\x1f\x8b not really gzip"), 0644); err != nil {
		t.Fatalf("write .gz failed: %v", err)
	}
	writeLogFile(t, live+".bak",
		`{"time":"2026-08-25T09:00:00Z","level":"INFO","msg":"stale copy"}`,
	)
	writeLogFile(t, filepath.Join(dir, "other.log"),
		`{"time":"2026-08-25T09:00:00Z","level":"INFO","msg":"unrelated"}`,
	)

	entries, err := AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}
	if got := entryMessages(entries); !slices.Equal(got, []string{"kept"}) {
		t.Errorf("entries = %v, want only the live log's", got)
	}
}

func TestAggregateLogsSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, filepath.Join(dir, DebugLogFile),
		`{"time":"2026-08-25T10:00:00Z","level":"INFO","msg":"good one"}`,
		`not json at all`,
		``,
		`{"time":"2026-08-25T10:01:00Z","level":`,
		`[1,2,3]`,
		`{"time":"2026-08-25T10:02:00Z","level":"INFO","msg":"good two"}`,
	)

	entries, err := AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}
	if got := entryMessages(entries); !slices.Equal(got, []string{"good one", "good two"}) {
		t.Errorf("entries = %v, want the two valid lines", got)
	}
}

func TestAggregateLogsNoFiles(t *testing.T) {
	if _, err := AggregateLogs(t.TempDir()); err == nil {
		t.Error("expected error for directory without logs")
	}

	_, err := AggregateLogs(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !strings.Contains(err.Error(), "no log files") {
		t.Errorf("error = %v, want mention of missing log files", err)
	}
}

func filterFixture() []LogEntry {
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	return []LogEntry{
		{Timestamp: base, Level: "DEBUG", Message: "parsing checklist", RunID: "run-1", Iteration: 1, Agent: "loop"},
		{Timestamp: base.Add(1 * time.Minute), Level: "INFO", Message: "iteration started", RunID: "run-1", Iteration: 1, Agent: "loop"},
		{Timestamp: base.Add(2 * time.Minute), Level: "WARN", Message: "tests failed", RunID: "run-1", Iteration: 2, Agent: "worker"},
		{Timestamp: base.Add(3 * time.Minute), Level: "ERROR", Message: "agent died", RunID: "run-2", Iteration: 1, Agent: "worker"},
		{Timestamp: base.Add(4 * time.Minute), Level: "TRACE", Message: "low level noise", RunID: "run-2"},
	}
}

func TestFilterLogs(t *testing.T) {
	entries := filterFixture()
	base := entries[0].Timestamp

	tests := []struct {
		name   string
		filter LogFilter
		want   []string
	}{
		{
			name:   "empty filter keeps everything",
			filter: LogFilter{},
			want:   []string{"parsing checklist", "iteration started", "tests failed", "agent died", "low level noise"},
		},
		{
			name:   "level threshold",
			filter: LogFilter{Level: "WARN"},
			// The TRACE entry's level is unknown, so the level criterion
			// does not apply to it.
			want: []string{"tests failed", "agent died", "low level noise"},
		},
		{
			name:   "unknown filter level matches all",
			filter: LogFilter{Level: "VERBOSE"},
			want:   []string{"parsing checklist", "iteration started", "tests failed", "agent died", "low level noise"},
		},
		{
			name:   "run id",
			filter: LogFilter{RunID: "run-1"},
			want:   []string{"parsing checklist", "iteration started", "tests failed"},
		},
		{
			name:   "iteration",
			filter: LogFilter{Iteration: 2},
			want:   []string{"tests failed"},
		},
		{
			name:   "agent",
			filter: LogFilter{Agent: "worker"},
			want:   []string{"tests failed", "agent died"},
		},
		{
			name:   "message substring",
			filter: LogFilter{MessageContains: "tests"},
			want:   []string{"tests failed"},
		},
		{
			name:   "start time is inclusive",
			filter: LogFilter{StartTime: base.Add(2 * time.Minute)},
			want:   []string{"tests failed", "agent died", "low level noise"},
		},
		{
			name:   "end time is inclusive",
			filter: LogFilter{EndTime: base.Add(1 * time.Minute)},
			want:   []string{"parsing checklist", "iteration started"},
		},
		{
			name:   "criteria combine",
			filter: LogFilter{Level: "INFO", RunID: "run-1", Agent: "loop"},
			want:   []string{"iteration started"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entryMessages(FilterLogs(entries, tt.filter))
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterLogs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterLogsEmptyInput(t *testing.T) {
	if got := FilterLogs(nil, LogFilter{Level: "INFO"}); len(got) != 0 {
		t.Errorf("FilterLogs(nil) = %v, want empty", got)
	}
}

func exportFixture() []LogEntry {
	return []LogEntry{
		{
			Timestamp: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
			Level:     "INFO",
			Message:   "run started",
			RunID:     "8f14e45f",
		},
		{
			Timestamp: time.Date(2026, 8, 25, 10, 0, 5, 0, time.UTC),
			Level:     "WARN",
			Message:   "tests failed",
			RunID:     "8f14e45f",
			Iteration: 2,
			Agent:     "worker",
			Attrs:     map[string]any{"command": "go test ./..."},
		},
	}
}

func TestExportLogEntriesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	if err := ExportLogEntries(exportFixture(), path, "json"); err != nil {
		t.Fatalf("ExportLogEntries failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export failed: %v", err)
	}

	var decoded []LogEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d entries, want 2", len(decoded))
	}
	if decoded[1].Message != "tests failed" || decoded[1].Iteration != 2 {
		t.Errorf("decoded[1] = %+v", decoded[1])
	}
}

func TestExportLogEntriesText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	if err := ExportLogEntries(exportFixture(), path, "text"); err != nil {
		t.Fatalf("ExportLogEntries failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export failed: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "[2026-08-25 10:00:00.000] INFO - run started (run=8f14e45f)") {
		t.Errorf("text export missing formatted line:\n%s", text)
	}
	if got := strings.Count(text, "\n"); got != 2 {
		t.Errorf("text export has %d lines, want 2", got)
	}
}

func TestExportLogEntriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := ExportLogEntries(exportFixture(), path, "csv"); err != nil {
		t.Fatalf("ExportLogEntries failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export failed: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("csv parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}

	header := []string{"timestamp", "level", "message", "run_id", "iteration", "agent", "attrs"}
	if !slices.Equal(records[0], header) {
		t.Errorf("header = %v, want %v", records[0], header)
	}
	if records[1][4] != "" {
		t.Errorf("iteration column = %q, want empty for iteration 0", records[1][4])
	}
	if records[2][4] != "2" || records[2][5] != "worker" {
		t.Errorf("row = %v", records[2])
	}
	if !strings.Contains(records[2][6], `"command":"go test ./..."`) {
		t.Errorf("attrs column = %q", records[2][6])
	}
}

func TestExportLogEntriesFormatCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	if err := ExportLogEntries(exportFixture(), path, "JSON"); err != nil {
		t.Errorf("uppercase format rejected: %v", err)
	}
}

func TestExportLogEntriesUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")

	err := ExportLogEntries(exportFixture(), path, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported export format") {
		t.Errorf("error = %v", err)
	}
}

func TestFormatLogEntry(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		entry LogEntry
		want  string
	}{
		{
			name:  "message only",
			entry: LogEntry{Timestamp: ts, Level: "INFO", Message: "run started"},
			want:  "[2026-08-25 10:00:00.000] INFO - run started",
		},
		{
			name: "with run context",
			entry: LogEntry{
				Timestamp: ts, Level: "WARN", Message: "tests failed",
				RunID: "8f14e45f", Iteration: 2, Agent: "worker",
			},
			want: "[2026-08-25 10:00:00.000] WARN - tests failed (run=8f14e45f, iteration=2, agent=worker)",
		},
		{
			name: "with attrs",
			entry: LogEntry{
				Timestamp: ts, Level: "DEBUG", Message: "spawning agent",
				Attrs: map[string]any{"command": "codex"},
			},
			want: `[2026-08-25 10:00:00.000] DEBUG - spawning agent {"command":"codex"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLogEntry(tt.entry); got != tt.want {
				t.Errorf("FormatLogEntry() = %q, want %q", got, tt.want)
			}
		})
	}
}
