package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/receive/clients"
	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/types"
)

const (
	address = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	invoice = "lnbc50u1pjexample"
	txid    = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
)

func unifiedWallet(t *testing.T) (*clients.MemoryWallet, *types.RequestMaterials) {
	t.Helper()
	w := clients.NewMemoryWallet(types.NetworkBitcoin, []string{address}, []string{invoice})
	m, err := w.CreateUnifiedRequest(context.Background(), 5000, nil)
	require.NoError(t, err)
	return w, m
}

func TestPoller_CheckNothingYet(t *testing.T) {
	w, m := unifiedWallet(t)
	p := NewPoller(w, time.Second)

	obs := p.Check(context.Background(), m)
	assert.False(t, obs.Settled())
	assert.Nil(t, obs.LspFee)
	assert.Equal(t, 1, w.CallCount(clients.OpGetInvoiceStatus))
	assert.Equal(t, 1, w.CallCount(clients.OpCheckAddressForTx))

	assert.Equal(t, Observation{}, p.Check(context.Background(), nil))
}

func TestPoller_LightningWinsAndSkipsAddress(t *testing.T) {
	w, m := unifiedWallet(t)
	p := NewPoller(w, time.Second)

	fee := types.Sats(50)
	require.NoError(t, w.SettleInvoice(invoice, &fee))
	w.Deposit(address, types.OnChainTx{TxID: txid, Received: 5000})

	obs := p.Check(context.Background(), m)
	assert.Equal(t, types.LightningPaid, obs.Paid)
	require.NotNil(t, obs.LspFee)
	assert.Equal(t, types.Sats(50), *obs.LspFee)
	require.NotNil(t, obs.Invoice)
	assert.Nil(t, obs.Transaction)
	assert.Zero(t, w.CallCount(clients.OpCheckAddressForTx))
}

func TestPoller_FeeBeforePayment(t *testing.T) {
	w, m := unifiedWallet(t)
	p := NewPoller(w, time.Second)
	require.NoError(t, w.SetFeesPaid(invoice, 2500))

	obs := p.Check(context.Background(), m)
	assert.False(t, obs.Settled())
	require.NotNil(t, obs.LspFee)
	assert.Equal(t, types.Sats(2500), *obs.LspFee)
}

func TestPoller_Onchain(t *testing.T) {
	w, m := unifiedWallet(t)
	p := NewPoller(w, time.Second)
	w.Deposit(address, types.OnChainTx{TxID: txid, Received: 5000})

	obs := p.Check(context.Background(), m)
	assert.Equal(t, types.OnchainPaid, obs.Paid)
	require.NotNil(t, obs.Transaction)
	assert.Equal(t, txid, obs.Transaction.TxID)

	addressOnly := &types.RequestMaterials{Address: address}
	obs = p.Check(context.Background(), addressOnly)
	assert.Equal(t, types.OnchainPaid, obs.Paid)
}

func TestPoller_LookupErrorsAreSwallowed(t *testing.T) {
	w, m := unifiedWallet(t)
	rec := metrics.NewMemoryRecorder()
	p := NewPoller(w, time.Second, WithMetrics(rec))

	w.FailNext(clients.OpGetInvoiceStatus, errors.New("timeout"))
	w.Deposit(address, types.OnChainTx{TxID: txid})

	obs := p.Check(context.Background(), m)
	assert.Equal(t, types.OnchainPaid, obs.Paid)
	assert.Equal(t, 1, rec.Count(metrics.EventPollLookupError, "lightning"))

	w.FailAlways(clients.OpCheckAddressForTx, errors.New("timeout"))
	obs = p.Check(context.Background(), &types.RequestMaterials{Address: address})
	assert.False(t, obs.Settled())
	assert.Equal(t, 1, rec.Count(metrics.EventPollLookupError, "onchain"))
}

func TestPoller_RunUntilSettled(t *testing.T) {
	w, m := unifiedWallet(t)
	p := NewPoller(w, time.Second)

	var (
		mu   sync.Mutex
		seen []Observation
	)
	go func() {
		assert.Eventually(t, func() bool {
			return w.CallCount(clients.OpGetInvoiceStatus) >= 2
		}, time.Second, time.Millisecond)
		_ = w.SettleInvoice(invoice, nil)
	}()

	obs, ok := p.Run(context.Background(), m, 5*time.Millisecond, func(o Observation) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, o)
	})
	require.True(t, ok)
	assert.Equal(t, types.LightningPaid, obs.Paid)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Settled())
}

func TestPoller_RunChecksBeforeFirstTick(t *testing.T) {
	w, m := unifiedWallet(t)
	p := NewPoller(w, time.Second)
	w.Deposit(address, types.OnChainTx{TxID: txid, Received: 5000})

	done := make(chan struct{})
	go func() {
		defer close(done)
		obs, ok := p.Run(context.Background(), m, time.Hour, nil)
		assert.True(t, ok)
		assert.Equal(t, types.OnchainPaid, obs.Paid)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller waited for the first tick")
	}
	assert.Equal(t, 1, w.CallCount(clients.OpCheckAddressForTx))
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	w, m := unifiedWallet(t)
	p := NewPoller(w, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := p.Run(ctx, m, 5*time.Millisecond, nil)
		assert.False(t, ok)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestNewPoller_NilClient(t *testing.T) {
	assert.Panics(t, func() { NewPoller(nil, time.Second) })
}
