package audit

import "time"

// Action enumerates the account lifecycle events worth an audit trail.
type Action string

const (
	ActionAccountCreated   Action = "account_created"
	ActionAccountRemoved   Action = "account_removed"
	ActionAccountRecovered Action = "account_recovered"
	ActionAccountRestored  Action = "account_restored"
	ActionPhoneVerified    Action = "phone_verified"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Principal string    `json:"principal"`
	Anchor    uint64    `json:"anchor,omitempty"`
	Action    Action    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}
