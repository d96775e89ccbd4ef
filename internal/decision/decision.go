// Package decision defines the planner handoff contract.
//
// The loop agent answers each planning prompt with a JSON object that either
// delegates a work unit to the implementation agent or declares the run
// finished. Agents are not reliable JSON emitters, so Parse degrades
// gracefully: a reply that is not JSON still produces a usable delegation.
package decision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the planner's verdict for an iteration.
type Action string

const (
	// ActionDelegate hands a work unit to the implementation agent.
	ActionDelegate Action = "delegate"
	// ActionDone declares the run finished.
	ActionDone Action = "done"
)

// UnmarshalJSON rejects unknown actions so a structurally valid JSON object
// with a bogus action falls through to the next parse tier instead of
// yielding a zero-valued decision.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Action(s) {
	case ActionDelegate, ActionDone:
		*a = Action(s)
		return nil
	default:
		return fmt.Errorf("unknown action %q", s)
	}
}

// Decision is the parsed planner response.
type Decision struct {
	Action Action `json:"action"`
	// TargetItem is the checklist item the planner chose. Empty means
	// "first unchecked item".
	TargetItem string `json:"target_item,omitempty"`
	// WorkerPrompt is the task handed to the implementation agent. Empty
	// means the orchestrator synthesizes one from the target item.
	WorkerPrompt string `json:"worker_prompt,omitempty"`
	// CommitMessage overrides the default commit message when set.
	CommitMessage string `json:"commit_message,omitempty"`
	// Reason is an optional short rationale, echoed on Done stops.
	Reason string `json:"reason,omitempty"`
}

// Parse interprets a raw planner reply. It never fails:
//
//  1. The whole reply parses as a JSON decision — use it.
//  2. Otherwise, the substring from the first '{' to the last '}' parses —
//     use that (tolerates prose or code fences around the object).
//  3. Otherwise, treat the trimmed reply as a worker prompt and delegate.
func Parse(raw string) Decision {
	if d, ok := decode(raw); ok {
		return d
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if d, ok := decode(raw[start : end+1]); ok {
			return d
		}
	}

	return Decision{
		Action:       ActionDelegate,
		WorkerPrompt: strings.TrimSpace(raw),
	}
}

// decode attempts a strict parse of one candidate JSON document.
func decode(candidate string) (Decision, bool) {
	var d Decision
	if err := json.Unmarshal([]byte(candidate), &d); err != nil {
		return Decision{}, false
	}
	// A missing action field never reaches UnmarshalJSON, so check it here.
	if d.Action != ActionDelegate && d.Action != ActionDone {
		return Decision{}, false
	}
	return d, true
}
