package present

import "github.com/vitwit/receive/types"

// FeeKind classifies an LSP fee for disclosure
type FeeKind string

const (
	FeeNone    FeeKind = ""
	FeeSetup   FeeKind = "setup_fee"
	FeeService FeeKind = "service_fee"
)

// FeeNotice is a fee disclosure for the payer or receiver.
type FeeNotice struct {
	Kind FeeKind    `json:"kind"`
	Fee  types.Sats `json:"fee"`
	// Conditional is true while the fee only applies if paid over lightning.
	Conditional bool `json:"conditional"`
}

func (n FeeNotice) Empty() bool {
	return n.Kind == FeeNone
}

// PendingFeeNotice is shown next to an unpaid request. Only fees above
// threshold are disclosed, and only for flavors that can be paid over
// lightning.
func PendingFeeNotice(fee types.Sats, flavor types.ReceiveFlavor, threshold types.Sats) FeeNotice {
	if fee <= threshold || !flavor.RequiresInvoice() {
		return FeeNotice{}
	}
	return FeeNotice{
		Kind:        FeeSetup,
		Fee:         fee,
		Conditional: flavor == types.FlavorUnified,
	}
}

// SettledFeeNotice explains the fee charged on a completed lightning receive.
func SettledFeeNotice(fee types.Sats, threshold types.Sats) FeeNotice {
	switch {
	case fee > threshold:
		return FeeNotice{Kind: FeeSetup, Fee: fee}
	case fee > 0:
		return FeeNotice{Kind: FeeService, Fee: fee}
	default:
		return FeeNotice{}
	}
}
