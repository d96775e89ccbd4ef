// Package prompt renders the prompts exchanged with both agents.
//
// The two prompt shapes live as embedded templates so their structure is
// reviewable as text rather than buried in format strings. Lists render as
// `- item` lines with `(none)` standing in for empty, so the model always
// sees every section.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/Iron-Ham/tandem/internal/util"
)

//go:embed templates/*.tpl.md
var templateFS embed.FS

const (
	plannerTemplate = "templates/planner.tpl.md"
	workerTemplate  = "templates/worker.tpl.md"

	// failureOutputLimit bounds the test output embedded in a fix prompt so
	// a noisy suite cannot blow up the worker's context.
	failureOutputLimit = 3000
)

// PlannerData feeds the loop-manager prompt.
type PlannerData struct {
	SystemPrompt   string
	PRDPath        string
	VisibleFiles   []string
	VisibleTests   []string
	ExecutionTests []string
	Completed      []string
	Remaining      []string
	// Context is the prior-iteration handoff; empty renders as (none).
	Context string
}

// WorkerData feeds the implementation-agent prompt.
type WorkerData struct {
	SystemPrompt   string
	TargetItem     string
	Task           string
	VisibleFiles   []string
	VisibleTests   []string
	ExecutionTests []string
	// FailureOutput, when non-empty, adds a "fix these first" block with
	// the failing test output.
	FailureOutput string
}

// Builder renders agent prompts from the embedded templates.
type Builder struct {
	templates map[string]*template.Template
}

// New parses the embedded templates once.
func New() (*Builder, error) {
	b := &Builder{
		templates: make(map[string]*template.Template),
	}

	funcs := template.FuncMap{
		"list": util.FormatList,
		"orNone": func(s string) string {
			if s == "" {
				return "(none)"
			}
			return s
		},
		"failureBlock": func(output string) string {
			if output == "" {
				return ""
			}
			return "Previous test failures to fix first:\n" +
				util.TruncateString(output, failureOutputLimit) + "\n"
		},
	}

	for _, name := range []string{plannerTemplate, workerTemplate} {
		content, err := templateFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}

		b.templates[name] = tmpl
	}

	return b, nil
}

// Planner renders the loop-manager decision prompt.
func (b *Builder) Planner(data PlannerData) (string, error) {
	return b.render(plannerTemplate, data)
}

// Worker renders the implementation-agent prompt.
func (b *Builder) Worker(data WorkerData) (string, error) {
	return b.render(workerTemplate, data)
}

func (b *Builder) render(name string, data any) (string, error) {
	tmpl, exists := b.templates[name]
	if !exists {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}

	return buf.String(), nil
}
