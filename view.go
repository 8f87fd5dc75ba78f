package receive

import (
	"github.com/vitwit/receive/present"
	"github.com/vitwit/receive/types"
	"github.com/vitwit/receive/utils"
)

// ViewModel is a snapshot of the session for the presentation layer.
type ViewModel struct {
	SessionID  string                `json:"session_id"`
	State      types.ReceiveState    `json:"state"`
	AmountText string                `json:"amount_text"`
	CanSubmit  bool                  `json:"can_submit"`
	Tags       []types.TagDescriptor `json:"tags,omitempty"`
	Loading    bool                  `json:"loading"`
	Network    types.Network         `json:"network"`

	Flavor            types.ReceiveFlavor     `json:"flavor"`
	SelectableFlavors []types.ReceiveFlavor   `json:"selectable_flavors,omitempty"`
	Materials         *types.RequestMaterials `json:"materials,omitempty"`
	URI               string                  `json:"uri,omitempty"`
	// Receive is the string to encode as a QR code. Empty outside show.
	Receive string `json:"receive,omitempty"`

	Paid        types.PaidState   `json:"paid,omitempty"`
	Invoice     *types.Invoice    `json:"invoice,omitempty"`
	Transaction *types.OnChainTx  `json:"transaction,omitempty"`
	LspFee      types.Sats        `json:"lsp_fee"`
	FeeNotice   present.FeeNotice `json:"fee_notice"`
	ExplorerURL string            `json:"explorer_url,omitempty"`

	Notifications []types.Notification `json:"notifications,omitempty"`
}

// View returns a copy of the current session.
func (c *Controller) View() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	v := ViewModel{
		SessionID:     s.id,
		State:         s.state,
		AmountText:    s.amountText,
		CanSubmit:     c.canSubmitLocked(),
		Tags:          append([]types.TagDescriptor(nil), s.tags...),
		Loading:       s.loading,
		Network:       c.network,
		Flavor:        s.flavor,
		URI:           s.uri,
		Paid:          s.paid,
		LspFee:        s.lspFee,
		Notifications: append([]types.Notification(nil), s.notifications...),
	}

	if s.materials != nil {
		m := *s.materials
		m.ContactIDs = append([]types.ContactID(nil), s.materials.ContactIDs...)
		v.Materials = &m
		v.SelectableFlavors = present.SelectableFlavors(s.materials)
	}
	if s.invoice != nil {
		inv := *s.invoice
		v.Invoice = &inv
	}
	if s.tx != nil {
		tx := *s.tx
		v.Transaction = &tx
	}

	switch s.state {
	case types.StateShow:
		v.Receive = present.Receive(s.flavor, s.materials, s.uri)
		v.FeeNotice = present.PendingFeeNotice(s.lspFee, s.flavor, c.feeThreshold)
	case types.StatePaid:
		switch s.paid {
		case types.LightningPaid:
			v.FeeNotice = present.SettledFeeNotice(s.lspFee, c.feeThreshold)
		case types.OnchainPaid:
			if s.tx != nil {
				v.ExplorerURL = utils.TxExplorerURL(c.network, s.tx.TxID, c.explorerBase)
			}
		}
	}

	return v
}
