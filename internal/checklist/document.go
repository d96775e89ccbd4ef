// Package checklist reads and updates markdown PRD checklists.
//
// A checklist is a markdown file containing task lines of the form
// `- [ ] text` (unchecked) and `- [x] text` (checked). Everything else in
// the file is passthrough content. The file is the single source of truth:
// the orchestrator re-reads it at the start of every iteration and marking
// an item done rewrites it on disk.
package checklist

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/tandem/internal/errors"
)

const (
	uncheckedPrefix  = "- [ ] "
	checkedPrefix    = "- [x] "
	checkedPrefixAlt = "- [X] "
)

// Item is a single checklist entry.
type Item struct {
	Text    string
	Checked bool
}

// Meta holds optional YAML frontmatter metadata from the top of the file.
type Meta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Document is a parsed checklist.
type Document struct {
	Items []Item
	Meta  Meta
}

// Parse extracts checklist items from markdown content.
//
// A line is an item when, after stripping leading whitespace, it starts with
// `- [ ] ` (unchecked) or `- [x] ` / `- [X] ` (checked); the item text is
// trimmed. Every other line is ignored. If the content opens with a `---`
// line, the block up to the closing `---` is read as YAML frontmatter;
// malformed frontmatter is ignored rather than reported.
func Parse(input string) *Document {
	doc := &Document{}

	lines := strings.Split(input, "\n")
	start := 0

	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				block := strings.Join(lines[1:i], "\n")
				// Best effort: bad YAML leaves Meta zero.
				_ = yaml.Unmarshal([]byte(block), &doc.Meta)
				start = i + 1
				break
			}
		}
	}

	for _, line := range lines[start:] {
		trimmed := strings.TrimLeft(line, " \t")
		if text, ok := strings.CutPrefix(trimmed, uncheckedPrefix); ok {
			doc.Items = append(doc.Items, Item{Text: strings.TrimSpace(text)})
			continue
		}
		if text, ok := strings.CutPrefix(trimmed, checkedPrefix); ok {
			doc.Items = append(doc.Items, Item{Text: strings.TrimSpace(text), Checked: true})
			continue
		}
		if text, ok := strings.CutPrefix(trimmed, checkedPrefixAlt); ok {
			doc.Items = append(doc.Items, Item{Text: strings.TrimSpace(text), Checked: true})
		}
	}

	return doc
}

// Load reads and parses the checklist at path.
func Load(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		cause := err
		if os.IsNotExist(err) {
			cause = errors.ErrChecklistNotFound
		}
		return nil, errors.NewChecklistError("failed to read PRD file", cause).
			WithPath(path)
	}
	return Parse(string(content)), nil
}

// Unchecked returns the unchecked items in document order.
func (d *Document) Unchecked() []Item {
	var items []Item
	for _, item := range d.Items {
		if !item.Checked {
			items = append(items, item)
		}
	}
	return items
}

// MarkDone checks off the first unchecked item matching target and rewrites
// the file. Matching is case-insensitive on trimmed text: an item matches
// when its normalized text equals or contains the normalized target.
// Scanning stops at the first match; only that line changes, keeping its
// leading whitespace. Returns false with the file untouched when nothing
// matches.
func MarkDone(path string, target string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		cause := err
		if os.IsNotExist(err) {
			cause = errors.ErrChecklistNotFound
		}
		return false, errors.NewChecklistError("failed to read PRD file", cause).
			WithPath(path)
	}

	normalizedTarget := normalize(target)
	text := string(content)
	hadNewline := strings.HasSuffix(text, "\n")

	lines := strings.Split(text, "\n")
	if hadNewline {
		lines = lines[:len(lines)-1]
	}

	changed := false
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		itemText, ok := strings.CutPrefix(trimmed, uncheckedPrefix)
		if !ok {
			continue
		}
		normalizedText := normalize(itemText)
		if normalizedText == normalizedTarget || strings.Contains(normalizedText, normalizedTarget) {
			indent := line[:len(line)-len(trimmed)]
			lines[i] = indent + checkedPrefix + strings.TrimSpace(itemText)
			changed = true
			break
		}
	}

	if !changed {
		return false, nil
	}

	output := strings.Join(lines, "\n")
	if hadNewline {
		output += "\n"
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return false, errors.NewChecklistError("failed to write PRD file", err).
			WithPath(path)
	}
	return true, nil
}

// normalize prepares item text for matching.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
