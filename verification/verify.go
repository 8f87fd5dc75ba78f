package verification

import (
	"fmt"

	"github.com/vitwit/receive/types"
	"github.com/vitwit/receive/utils"
)

// Verifier checks that materials returned by the wallet engine are usable
// on the configured network before they are shown to a payer.
type Verifier struct {
	// Disabled turns every check into a no-op.
	Disabled bool
}

// NewVerifier creates a verifier. disabled mirrors Config.SkipMaterialVerification.
func NewVerifier(disabled bool) *Verifier {
	return &Verifier{Disabled: disabled}
}

// VerifyUnified verifies materials produced by the unified path
func (v *Verifier) VerifyUnified(network types.Network, amount types.Sats, m *types.RequestMaterials) error {
	if v == nil || v.Disabled {
		return nil
	}

	if err := v.VerifyAddress(network, m); err != nil {
		return err
	}

	if err := utils.ValidateInvoiceForNetwork(m.Invoice, network); err != nil {
		return invalid("invalid invoice", err)
	}

	if m.BTCAmount != "" {
		sats, err := utils.BTCStringToSats(m.BTCAmount)
		if err != nil {
			return invalid("invalid display amount", err)
		}
		if sats != amount {
			return invalid(
				"display amount mismatch",
				fmt.Errorf("engine returned %s btc (%d sats), requested %d sats", m.BTCAmount, sats, amount),
			)
		}
	}

	return nil
}

// VerifyAddress verifies the on-chain part of the materials
func (v *Verifier) VerifyAddress(network types.Network, m *types.RequestMaterials) error {
	if v == nil || v.Disabled {
		return nil
	}

	if m == nil {
		return invalid("engine returned no materials", nil)
	}

	if err := utils.ValidateAddressForNetwork(m.Address, network); err != nil {
		return invalid("invalid address", err)
	}

	return nil
}

func invalid(message string, err error) error {
	return &types.ReceiveError{
		Code:    types.ErrInvalidMaterials,
		Message: message,
		Err:     err,
	}
}
