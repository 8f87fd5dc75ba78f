package clients

import (
	"context"
	"fmt"
	"sync"

	"github.com/vitwit/receive/types"
	"github.com/vitwit/receive/utils"
)

// Operation names accepted by MemoryWallet.FailNext and CallCount.
const (
	OpCreateContact        = "create_contact"
	OpCreateUnifiedRequest = "create_unified_request"
	OpCreateAddressRequest = "create_address_request"
	OpGetInvoiceStatus     = "get_invoice_status"
	OpCheckAddressForTx    = "check_address_for_tx"
	OpGetNetwork           = "get_network"
)

// MemoryWallet is an in-memory wallet engine for demos and tests. Addresses
// and invoices are handed out from queues set by the caller, and payments
// are simulated with SettleInvoice and Deposit.
type MemoryWallet struct {
	mu sync.Mutex

	network   types.Network
	addresses []string
	invoices  []string

	contacts      map[types.ContactID]string
	nextContact   int
	invoiceStatus map[string]*types.Invoice
	addressTx     map[string]*types.OnChainTx
	omitBTCAmount bool

	failures map[string][]error
	sticky   map[string]error
	calls    map[string]int
}

var _ WalletClient = (*MemoryWallet)(nil)

// NewMemoryWallet creates an engine for network. Each request consumes one
// address from addresses and each unified request one invoice from invoices.
func NewMemoryWallet(network types.Network, addresses, invoices []string) *MemoryWallet {
	return &MemoryWallet{
		network:       network,
		addresses:     append([]string(nil), addresses...),
		invoices:      append([]string(nil), invoices...),
		contacts:      make(map[types.ContactID]string),
		invoiceStatus: make(map[string]*types.Invoice),
		addressTx:     make(map[string]*types.OnChainTx),
		failures:      make(map[string][]error),
		sticky:        make(map[string]error),
		calls:         make(map[string]int),
	}
}

// FailNext makes the next call to op return err. Calls queue up.
func (w *MemoryWallet) FailNext(op string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[op] = append(w.failures[op], err)
}

// FailAlways makes every call to op return err until cleared with nil.
func (w *MemoryWallet) FailAlways(op string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err == nil {
		delete(w.sticky, op)
		return
	}
	w.sticky[op] = err
}

// OmitBTCAmount stops unified requests from carrying a display amount.
func (w *MemoryWallet) OmitBTCAmount(omit bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.omitBTCAmount = omit
}

// CallCount returns how often op was invoked.
func (w *MemoryWallet) CallCount(op string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[op]
}

// Contacts returns a copy of the contacts created so far.
func (w *MemoryWallet) Contacts() map[types.ContactID]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[types.ContactID]string, len(w.contacts))
	for id, name := range w.contacts {
		out[id] = name
	}
	return out
}

// SetFeesPaid records an LSP fee on an issued invoice without paying it.
func (w *MemoryWallet) SetFeesPaid(invoice string, fee types.Sats) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	inv, ok := w.invoiceStatus[invoice]
	if !ok {
		return fmt.Errorf("unknown invoice %s", invoice)
	}
	inv.FeesPaid = &fee
	return nil
}

// SettleInvoice marks an issued invoice as paid.
func (w *MemoryWallet) SettleInvoice(invoice string, fee *types.Sats) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	inv, ok := w.invoiceStatus[invoice]
	if !ok {
		return fmt.Errorf("unknown invoice %s", invoice)
	}
	inv.Paid = true
	if fee != nil {
		f := *fee
		inv.FeesPaid = &f
	}
	return nil
}

// Deposit records an on-chain transaction paying address.
func (w *MemoryWallet) Deposit(address string, tx types.OnChainTx) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := tx
	w.addressTx[address] = &t
}

func (w *MemoryWallet) CreateContact(_ context.Context, name string) (types.ContactID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(OpCreateContact); err != nil {
		return "", err
	}
	w.nextContact++
	id := types.ContactID(fmt.Sprintf("contact-%d", w.nextContact))
	w.contacts[id] = name
	return id, nil
}

func (w *MemoryWallet) CreateUnifiedRequest(_ context.Context, amount types.Sats, contacts []types.ContactID) (*types.RequestMaterials, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(OpCreateUnifiedRequest); err != nil {
		return nil, err
	}
	if len(w.invoices) == 0 {
		return nil, &EngineError{Method: OpCreateUnifiedRequest, Code: ErrCodeChannelUnavailable, Message: "no invoice available"}
	}
	address, err := w.popAddress(OpCreateUnifiedRequest)
	if err != nil {
		return nil, err
	}
	invoice := w.invoices[0]
	w.invoices = w.invoices[1:]

	amt := amount
	w.invoiceStatus[invoice] = &types.Invoice{Bolt11: invoice, AmountSats: &amt}

	m := &types.RequestMaterials{
		Address:    address,
		Invoice:    invoice,
		Amount:     amount,
		ContactIDs: append([]types.ContactID(nil), contacts...),
	}
	if !w.omitBTCAmount {
		m.BTCAmount = utils.SatsToBTCString(amount)
	}
	return m, nil
}

func (w *MemoryWallet) CreateAddressRequest(_ context.Context, contacts []types.ContactID) (*types.RequestMaterials, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(OpCreateAddressRequest); err != nil {
		return nil, err
	}
	address, err := w.popAddress(OpCreateAddressRequest)
	if err != nil {
		return nil, err
	}
	return &types.RequestMaterials{
		Address:    address,
		ContactIDs: append([]types.ContactID(nil), contacts...),
	}, nil
}

func (w *MemoryWallet) GetInvoiceStatus(_ context.Context, invoice string) (*types.Invoice, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(OpGetInvoiceStatus); err != nil {
		return nil, err
	}
	inv, ok := w.invoiceStatus[invoice]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (w *MemoryWallet) CheckAddressForTx(_ context.Context, address string) (*types.OnChainTx, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(OpCheckAddressForTx); err != nil {
		return nil, err
	}
	tx, ok := w.addressTx[address]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (w *MemoryWallet) GetNetwork(context.Context) (types.Network, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enter(OpGetNetwork); err != nil {
		return "", err
	}
	return w.network, nil
}

// enter counts the call and returns any injected failure. Callers hold mu.
func (w *MemoryWallet) enter(op string) error {
	w.calls[op]++
	if err, ok := w.sticky[op]; ok {
		return err
	}
	if queued := w.failures[op]; len(queued) > 0 {
		w.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}

func (w *MemoryWallet) popAddress(op string) (string, error) {
	if len(w.addresses) == 0 {
		return "", &EngineError{Method: op, Code: ErrCodeUnexpected, Message: "address pool exhausted"}
	}
	address := w.addresses[0]
	w.addresses = w.addresses[1:]
	return address, nil
}
