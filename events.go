package receive

import "github.com/vitwit/receive/types"

// EventKind names a controller state change
type EventKind string

const (
	EventStateChanged  EventKind = "state_changed"
	EventFlavorChanged EventKind = "flavor_changed"
	EventNotification  EventKind = "notification"
	EventFeeObserved   EventKind = "fee_observed"
	EventSettled       EventKind = "settled"
	EventCleared       EventKind = "cleared"
)

// Event is delivered to subscribers after the controller changed. Read
// View for the full picture; the event only says what moved.
type Event struct {
	Kind         EventKind           `json:"kind"`
	SessionID    string              `json:"session_id"`
	State        types.ReceiveState  `json:"state"`
	Flavor       types.ReceiveFlavor `json:"flavor,omitempty"`
	Paid         types.PaidState     `json:"paid,omitempty"`
	LspFee       types.Sats          `json:"lsp_fee,omitempty"`
	Notification *types.Notification `json:"notification,omitempty"`
}
