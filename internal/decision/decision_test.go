package decision

import (
	"encoding/json"
	"testing"
)

func TestParseStrictJSON(t *testing.T) {
	raw := `{
		"action": "delegate",
		"target_item": "Add retry path",
		"worker_prompt": "Implement the retry path",
		"commit_message": "feat: add retry path",
		"reason": "next unchecked item"
	}`

	got := Parse(raw)

	want := Decision{
		Action:        ActionDelegate,
		TargetItem:    "Add retry path",
		WorkerPrompt:  "Implement the retry path",
		CommitMessage: "feat: add retry path",
		Reason:        "next unchecked item",
	}
	if got != want {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParseDone(t *testing.T) {
	got := Parse(`{"action": "done", "reason": "all items delivered"}`)

	if got.Action != ActionDone {
		t.Errorf("Action = %q, want %q", got.Action, ActionDone)
	}
	if got.Reason != "all items delivered" {
		t.Errorf("Reason = %q, want %q", got.Reason, "all items delivered")
	}
}

func TestParseEmbeddedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			"prose around the object",
			"Here is my decision:\n{\"action\": \"delegate\", \"target_item\": \"Task A\"}\nLet me know.",
		},
		{
			"markdown code fence",
			"```json\n{\"action\": \"delegate\", \"target_item\": \"Task A\"}\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Action != ActionDelegate {
				t.Errorf("Action = %q, want %q", got.Action, ActionDelegate)
			}
			if got.TargetItem != "Task A" {
				t.Errorf("TargetItem = %q, want %q", got.TargetItem, "Task A")
			}
		})
	}
}

func TestParseFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain prose", "  Just implement the login form.  ", "Just implement the login form."},
		{"empty reply", "", ""},
		{"braces with invalid json", "choose {not json} please", "choose {not json} please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Action != ActionDelegate {
				t.Errorf("Action = %q, want %q", got.Action, ActionDelegate)
			}
			if got.WorkerPrompt != tt.want {
				t.Errorf("WorkerPrompt = %q, want %q", got.WorkerPrompt, tt.want)
			}
			if got.TargetItem != "" {
				t.Errorf("TargetItem = %q, want empty", got.TargetItem)
			}
		})
	}
}

func TestParseInvalidActionFallsThrough(t *testing.T) {
	// Valid JSON with an unknown action must not produce a half-parsed
	// decision; it degrades to the raw-prompt fallback.
	raw := `{"action": "retreat", "target_item": "Task A"}`

	got := Parse(raw)

	if got.Action != ActionDelegate {
		t.Errorf("Action = %q, want %q", got.Action, ActionDelegate)
	}
	if got.WorkerPrompt != raw {
		t.Errorf("WorkerPrompt = %q, want the raw reply", got.WorkerPrompt)
	}
}

func TestParseMissingActionFallsThrough(t *testing.T) {
	raw := `{"target_item": "Task A", "worker_prompt": "do it"}`

	got := Parse(raw)

	if got.Action != ActionDelegate {
		t.Errorf("Action = %q, want %q", got.Action, ActionDelegate)
	}
	if got.TargetItem != "" {
		t.Errorf("TargetItem = %q, want empty (fallback, not partial parse)", got.TargetItem)
	}
}

func TestActionUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{"delegate", `"delegate"`, ActionDelegate, false},
		{"done", `"done"`, ActionDone, false},
		{"unknown value", `"stop"`, "", true},
		{"wrong type", `42`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Action
			err := json.Unmarshal([]byte(tt.input), &a)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && a != tt.want {
				t.Errorf("Action = %q, want %q", a, tt.want)
			}
		})
	}
}
