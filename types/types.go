package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sats is an amount in the smallest bitcoin unit.
type Sats uint64

// ReceiveFlavor represents which payable representation is shown to the payer
type ReceiveFlavor string

const (
	FlavorUnified   ReceiveFlavor = "unified"
	FlavorLightning ReceiveFlavor = "lightning"
	FlavorOnchain   ReceiveFlavor = "onchain"
)

// AllFlavors lists every flavor in display order.
var AllFlavors = []ReceiveFlavor{FlavorUnified, FlavorLightning, FlavorOnchain}

// RequiresInvoice reports whether the flavor can only be presented when an
// invoice exists.
func (f ReceiveFlavor) RequiresInvoice() bool {
	return f == FlavorUnified || f == FlavorLightning
}

func (f ReceiveFlavor) IsValid() bool {
	return f == FlavorUnified || f == FlavorLightning || f == FlavorOnchain
}

func (f ReceiveFlavor) String() string {
	return string(f)
}

// ReceiveState represents the stage of a receive session
type ReceiveState string

const (
	StateEdit ReceiveState = "edit"
	StateShow ReceiveState = "show"
	StatePaid ReceiveState = "paid"
)

func (s ReceiveState) String() string {
	return string(s)
}

// PaidState records which rail settled. The zero value means neither.
type PaidState string

const (
	PaidNone      PaidState = ""
	LightningPaid PaidState = "lightning_paid"
	OnchainPaid   PaidState = "onchain_paid"
)

// Rail returns the metrics label for the settled rail.
func (p PaidState) Rail() string {
	switch p {
	case LightningPaid:
		return "lightning"
	case OnchainPaid:
		return "onchain"
	default:
		return ""
	}
}

// TagDescriptor is a loose reference to a sender. Existing contacts carry an
// ID, new ones only a Name.
type TagDescriptor struct {
	ID   string `json:"id,omitempty" validate:"omitempty,max=256"`
	Name string `json:"name,omitempty" validate:"omitempty,max=256"`
	Kind string `json:"kind,omitempty"`
}

// IsEmpty reports whether the descriptor can never resolve to a contact.
func (t TagDescriptor) IsEmpty() bool {
	return strings.TrimSpace(t.ID) == "" && strings.TrimSpace(t.Name) == ""
}

// ContactID is the identifier the wallet engine issues for a contact.
type ContactID string

// RequestMaterials is what the wallet engine returns for a payment request.
// An empty Invoice means only an address was issued.
type RequestMaterials struct {
	Address    string      `json:"address"`
	Invoice    string      `json:"invoice,omitempty"`
	BTCAmount  string      `json:"btc_amount,omitempty"`
	Amount     Sats        `json:"amount,omitempty"`
	ContactIDs []ContactID `json:"contact_ids,omitempty"`
	CreatedAt  time.Time   `json:"created_at,omitempty"`
}

func (m *RequestMaterials) HasInvoice() bool {
	return m != nil && m.Invoice != ""
}

// Invoice is the lightning invoice status reported by the engine.
type Invoice struct {
	Bolt11      string     `json:"bolt11"`
	PaymentHash string     `json:"payment_hash,omitempty"`
	AmountSats  *Sats      `json:"amount_sats,omitempty"`
	FeesPaid    *Sats      `json:"fees_paid,omitempty"`
	Paid        bool       `json:"paid"`
	Description string     `json:"description,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ConfirmationTime is set once a transaction is mined.
type ConfirmationTime struct {
	Height    uint32 `json:"height"`
	Timestamp uint64 `json:"timestamp"`
}

// OnChainTx is a transaction that touched a watched address.
type OnChainTx struct {
	TxID             string            `json:"txid"`
	Received         Sats              `json:"received"`
	Sent             Sats              `json:"sent"`
	ConfirmationTime *ConfirmationTime `json:"confirmation_time,omitempty"`
}

// Confirmed reports whether the transaction has left the mempool.
func (tx *OnChainTx) Confirmed() bool {
	return tx != nil && tx.ConfirmationTime != nil
}

// Severity of a user-facing notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a message the presentation layer should surface.
type Notification struct {
	Severity Severity  `json:"severity"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Blocking reports whether the notification reports a failed submission.
func (n Notification) Blocking() bool {
	return n.Severity == SeverityError
}

// ReceiveError carries a stable code next to the underlying cause
type ReceiveError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *ReceiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

// NewError builds a ReceiveError with the given code.
func NewError(code, message string, err error) *ReceiveError {
	return &ReceiveError{Code: code, Message: message, Err: err}
}

// IsCode reports whether any error in err's chain is a ReceiveError with code.
func IsCode(err error, code string) bool {
	var re *ReceiveError
	if !errors.As(err, &re) {
		return false
	}
	if re.Code == code {
		return true
	}
	return IsCode(re.Err, code)
}

// Common error codes
const (
	ErrTagResolution     = "TAG_RESOLUTION_FAILED"
	ErrUnifiedRequest    = "UNIFIED_REQUEST_FAILED"
	ErrFallbackRequest   = "FALLBACK_REQUEST_FAILED"
	ErrPollLookup        = "POLL_LOOKUP_FAILED"
	ErrInvalidAmount     = "INVALID_AMOUNT"
	ErrInvalidState      = "INVALID_STATE"
	ErrUnsupportedFlavor = "UNSUPPORTED_FLAVOR"
	ErrInvalidMaterials  = "INVALID_MATERIALS"
	ErrConfigError       = "CONFIG_ERROR"
	ErrNetworkError      = "NETWORK_ERROR"
)
