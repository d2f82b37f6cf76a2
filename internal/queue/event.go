// Package queue defines the relay events exchanged over the message
// broker. The registry publishes these instead of talking to Telegram
// inline, so a dead broker or chat API can never fail a submission.
package queue

// RelayQueueName is the durable queue carrying relay events from the
// registry to the notifier.
const RelayQueueName = "relay.events"

// Event kinds.
const (
	KindRequestSubmitted = "request.submitted"
	KindRequestDecided   = "request.decided"
)

// RequestEvent describes a submission or an operator decision. It
// carries everything the notifier needs to compose a chat message
// without querying the primary database. EventID is unique per event
// so redelivered messages can be deduplicated best-effort.
type RequestEvent struct {
	EventID   string `json:"event_id"`
	Kind      string `json:"kind"`
	Variant   string `json:"variant"`
	RequestID uint64 `json:"request_id"`
	AccountID uint64 `json:"account_id"`

	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Variant-specific summary shown in the chat message: the beta
	// reason, or role/experience for team-join requests.
	Summary string `json:"summary,omitempty"`

	Status     string  `json:"status,omitempty"` // decisions only
	Comment    *string `json:"comment,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}
