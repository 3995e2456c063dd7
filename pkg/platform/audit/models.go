package audit

import (
	"context"
	"time"
)

// Action names a committed registry change.
type Action string

const (
	ActionAdminChanged          Action = "admin_changed"
	ActionRecordDateSet         Action = "record_date_set"
	ActionVotingToggled         Action = "voting_toggled"
	ActionShareholderRegistered Action = "shareholder_registered"
	ActionSharesUpdated         Action = "shares_updated"
	ActionShareholderRemoved    Action = "shareholder_removed"
)

// Event is emitted by the registry after a mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	// ActorID is the caller that performed the change.
	ActorID string `json:"actor_id"`
	// Subject is the shareholder identity affected, empty for config changes.
	Subject    string `json:"subject,omitempty"`
	Shares     *int64 `json:"shares,omitempty"`
	RecordDate *int64 `json:"record_date,omitempty"`
	VotingOpen *bool  `json:"voting_open,omitempty"`
	Admin      string `json:"admin,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
