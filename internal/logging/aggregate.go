package logging

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// LogEntry is one parsed line of the JSON debug log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	RunID     string         `json:"run_id,omitempty"`
	Iteration int            `json:"iteration,omitempty"`
	Agent     string         `json:"agent,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects log entries; criteria combine with AND. Zero values
// mean "no constraint" throughout (iterations are 1-based, so 0 is safe as
// the unset marker).
type LogFilter struct {
	// Level keeps entries at or above this level (DEBUG < INFO < WARN < ERROR).
	Level string
	// StartTime keeps entries at or after this instant.
	StartTime time.Time
	// EndTime keeps entries at or before this instant.
	EndTime time.Time
	// RunID keeps entries stamped with this run.
	RunID string
	// Iteration keeps entries stamped with this iteration.
	Iteration int
	// Agent keeps entries from this agent role, "loop" or "worker".
	Agent string
	// MessageContains keeps entries whose message contains this substring.
	MessageContains string
}

// AggregateLogs parses every entry from a log directory: debug.log plus any
// uncompressed rotated backups (debug.log.1, debug.log.2, ...). Malformed
// lines are skipped so a partially corrupted log still yields its readable
// entries. The result is sorted by timestamp, oldest first.
func AggregateLogs(logDir string) ([]LogEntry, error) {
	paths := logFiles(logDir)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no log files in %s", logDir)
	}

	var entries []LogEntry
	for _, path := range paths {
		fileEntries, err := readLogFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}

	slices.SortStableFunc(entries, func(a, b LogEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return entries, nil
}

// logFiles returns the live log plus its numeric rotated backups, skipping
// compressed and foreign suffixes. Only paths that exist are returned.
func logFiles(logDir string) []string {
	live := filepath.Join(logDir, DebugLogFile)

	var paths []string
	if _, err := os.Stat(live); err == nil {
		paths = append(paths, live)
	}

	matches, _ := filepath.Glob(live + ".*")
	for _, m := range matches {
		if _, err := strconv.Atoi(strings.TrimPrefix(m, live+".")); err == nil {
			paths = append(paths, m)
		}
	}
	return paths
}

// readLogFile parses one JSON-lines file, skipping blank and malformed
// lines. The scanner buffer allows for long lines carrying agent output.
func readLogFile(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	const maxLine = 1 << 20
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxLine), maxLine)

	var entries []LogEntry
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if entry, ok := decodeEntry(line); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file %s: %w", path, err)
	}
	return entries, nil
}

// decodeEntry splits one JSON log line into the well-known slog fields and
// an Attrs map holding everything else.
func decodeEntry(line []byte) (LogEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return LogEntry{}, false
	}

	entry := LogEntry{Attrs: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case "time":
			if s, ok := v.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					entry.Timestamp = ts
				}
			}
		case "level":
			entry.Level, _ = v.(string)
		case "msg":
			entry.Message, _ = v.(string)
		case "run_id":
			entry.RunID, _ = v.(string)
		case "iteration":
			if f, ok := v.(float64); ok { // JSON numbers decode as float64
				entry.Iteration = int(f)
			}
		case "agent":
			entry.Agent, _ = v.(string)
		default:
			entry.Attrs[k] = v
		}
	}
	return entry, true
}

// FilterLogs returns the entries matching every criterion in filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	var matched []LogEntry
	for _, entry := range entries {
		if filter.matches(entry) {
			matched = append(matched, entry)
		}
	}
	return matched
}

func (f LogFilter) matches(entry LogEntry) bool {
	if f.Level != "" {
		// Unknown levels on either side disable the level criterion
		// rather than hiding entries.
		if want, ok := levelRank(f.Level); ok {
			if have, ok := levelRank(entry.Level); ok && have < want {
				return false
			}
		}
	}
	if !f.StartTime.IsZero() && entry.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && entry.Timestamp.After(f.EndTime) {
		return false
	}
	if f.RunID != "" && entry.RunID != f.RunID {
		return false
	}
	if f.Iteration != 0 && entry.Iteration != f.Iteration {
		return false
	}
	if f.Agent != "" && entry.Agent != f.Agent {
		return false
	}
	if f.MessageContains != "" && !strings.Contains(entry.Message, f.MessageContains) {
		return false
	}
	return true
}

// levelRank orders levels for threshold comparisons.
func levelRank(level string) (int, bool) {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return 0, true
	case LevelInfo:
		return 1, true
	case LevelWarn:
		return 2, true
	case LevelError:
		return 3, true
	default:
		return 0, false
	}
}

// ExportLogEntries writes entries to outputPath in the given format:
// "json" (indented array), "text" (one formatted line per entry), or
// "csv" (with a header row).
func ExportLogEntries(entries []LogEntry, outputPath string, format string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "json":
		return writeJSON(f, entries)
	case "text":
		return writeText(f, entries)
	case "csv":
		return writeCSV(f, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

func writeJSON(w io.Writer, entries []LogEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeText(w io.Writer, entries []LogEntry) error {
	for _, entry := range entries {
		if _, err := fmt.Fprintln(w, FormatLogEntry(entry)); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, entries []LogEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"timestamp", "level", "message", "run_id", "iteration", "agent", "attrs"}); err != nil {
		return err
	}

	for _, entry := range entries {
		iteration := ""
		if entry.Iteration != 0 {
			iteration = strconv.Itoa(entry.Iteration)
		}
		attrs := ""
		if len(entry.Attrs) > 0 {
			if b, err := json.Marshal(entry.Attrs); err == nil {
				attrs = string(b)
			}
		}

		record := []string{
			entry.Timestamp.Format(time.RFC3339Nano),
			entry.Level,
			entry.Message,
			entry.RunID,
			iteration,
			entry.Agent,
			attrs,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// FormatLogEntry renders an entry as one human-readable line:
//
//	[2026-08-25 10:00:00.000] INFO - run started (run=8f14e45f, iteration=2, agent=loop) {"extra":"attrs"}
//
// Context and attrs sections appear only when present.
func FormatLogEntry(entry LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s - %s",
		entry.Timestamp.Format("2006-01-02 15:04:05.000"), entry.Level, entry.Message)

	var context []string
	if entry.RunID != "" {
		context = append(context, "run="+entry.RunID)
	}
	if entry.Iteration != 0 {
		context = append(context, fmt.Sprintf("iteration=%d", entry.Iteration))
	}
	if entry.Agent != "" {
		context = append(context, "agent="+entry.Agent)
	}
	if len(context) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(context, ", "))
	}

	if len(entry.Attrs) > 0 {
		if attrs, err := json.Marshal(entry.Attrs); err == nil {
			b.WriteByte(' ')
			b.Write(attrs)
		}
	}
	return b.String()
}
