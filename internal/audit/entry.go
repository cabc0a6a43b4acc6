package audit

import (
	"github.com/google/uuid"

	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/model"
)

// Channels an evaluation can arrive through.
const (
	ChannelCLI    = "cli"
	ChannelPrompt = "prompt"
	ChannelIssue  = "issue"
	ChannelForm   = "form"
	ChannelMCP    = "mcp"
)

// Entry is one line in the hash-chained JSONL journal.
// All fields are structs or slices (no map[string]any) so json.Marshal
// field order is fixed and hashes are reproducible.
type Entry struct {
	Timestamp     string        `json:"ts"`
	EvaluationID  string        `json:"evaluation_id"`
	Channel       string        `json:"channel"`
	Metrics       model.Metrics `json:"metrics"`
	State         string        `json:"state"`
	Planning      string        `json:"planning"`
	Execution     string        `json:"execution"`
	Mode          string        `json:"mode"`
	ActiveRules   []string      `json:"active_rules"`
	RecoveryReady bool          `json:"recovery_ready"`
	ConfigHash    string        `json:"config_hash"`
	PrevHash      string        `json:"prev_hash"`
}

// NewEntry builds a journal entry for e with a fresh evaluation ID.
func NewEntry(e core.Evaluation, channel, configHash string) Entry {
	a := e.Authority
	return Entry{
		EvaluationID:  uuid.New().String(),
		Channel:       channel,
		Metrics:       e.Metrics.Clone(),
		State:         string(a.State()),
		Planning:      string(a.Planning()),
		Execution:     string(a.Execution()),
		Mode:          string(a.Mode()),
		ActiveRules:   a.ActiveRules(),
		RecoveryReady: e.Recovery.Ready,
		ConfigHash:    configHash,
	}
}
