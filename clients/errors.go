package clients

import (
	"errors"
	"fmt"
)

const (
	// -----------------------------
	// ENGINE ERROR CODES
	// -----------------------------
	ErrCodeInsufficientLiquidity = "insufficient_liquidity"
	ErrCodeChannelUnavailable    = "channel_unavailable"
	ErrCodeNotFound              = "not_found"
	ErrCodeWalletLocked          = "wallet_locked"
	ErrCodeUnexpected            = "unexpected_engine_error"
)

// EngineError is an error reported by the wallet engine.
type EngineError struct {
	Method  string `json:"method"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s failed (%s): %s", e.Method, e.Code, e.Message)
}

// IsLightningUnavailable reports whether err means the engine cannot issue
// an invoice right now.
func IsLightningUnavailable(err error) bool {
	var ee *EngineError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Code == ErrCodeInsufficientLiquidity || ee.Code == ErrCodeChannelUnavailable
}

// FriendlyMessage turns an engine error into text fit for a notification.
func FriendlyMessage(err error) string {
	var ee *EngineError
	if !errors.As(err, &ee) {
		if err == nil {
			return ""
		}
		return err.Error()
	}

	switch ee.Code {
	case ErrCodeInsufficientLiquidity:
		return "Lightning receive is unavailable: not enough inbound liquidity"
	case ErrCodeChannelUnavailable:
		return "Lightning receive is unavailable: no usable channel"
	case ErrCodeWalletLocked:
		return "The wallet is locked"
	default:
		return ee.Message
	}
}
