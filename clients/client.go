package clients

import (
	"context"

	"github.com/vitwit/receive/types"
)

// WalletClient is the wallet engine surface the receive flow depends on.
// Lookups return a nil result when there is nothing to report.
type WalletClient interface {
	CreateContact(ctx context.Context, name string) (types.ContactID, error)
	CreateUnifiedRequest(ctx context.Context, amount types.Sats, contacts []types.ContactID) (*types.RequestMaterials, error)
	CreateAddressRequest(ctx context.Context, contacts []types.ContactID) (*types.RequestMaterials, error)
	GetInvoiceStatus(ctx context.Context, invoice string) (*types.Invoice, error)
	CheckAddressForTx(ctx context.Context, address string) (*types.OnChainTx, error)
	GetNetwork(ctx context.Context) (types.Network, error)
}
