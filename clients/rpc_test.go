package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/receive/types"
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      int64             `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// fakeEngine answers JSON-RPC calls from a per-method handler.
type fakeEngine struct {
	mu       sync.Mutex
	requests []rpcRequest
	auth     []string
	handlers map[string]func(params []json.RawMessage) (any, map[string]any)
}

func newFakeEngine(t *testing.T) (*fakeEngine, *httptest.Server) {
	t.Helper()
	fe := &fakeEngine{handlers: make(map[string]func([]json.RawMessage) (any, map[string]any))}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fe.mu.Lock()
		fe.requests = append(fe.requests, req)
		fe.auth = append(fe.auth, r.Header.Get("Authorization"))
		handler := fe.handlers[req.Method]
		fe.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if handler == nil {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		} else {
			result, rpcErr := handler(req.Params)
			if rpcErr != nil {
				resp["error"] = rpcErr
			} else {
				resp["result"] = result
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return fe, srv
}

func (fe *fakeEngine) last() rpcRequest {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.requests[len(fe.requests)-1]
}

func TestNewRPCWalletClient_RequiresURL(t *testing.T) {
	_, err := NewRPCWalletClient("  ")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrConfigError))
}

func TestRPCWalletClient_CreateUnifiedRequest(t *testing.T) {
	fe, srv := newFakeEngine(t)
	fe.handlers["create_bip21"] = func([]json.RawMessage) (any, map[string]any) {
		return map[string]string{
			"address":    "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			"invoice":    "lnbc50u1pjexample",
			"btc_amount": "0.00005",
		}, nil
	}

	client, err := NewRPCWalletClient(srv.URL, WithAuthToken("secret"))
	require.NoError(t, err)

	m, err := client.CreateUnifiedRequest(context.Background(), 5000, []types.ContactID{"contact-1"})
	require.NoError(t, err)
	assert.Equal(t, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", m.Address)
	assert.Equal(t, "lnbc50u1pjexample", m.Invoice)
	assert.Equal(t, "0.00005", m.BTCAmount)
	assert.Equal(t, types.Sats(5000), m.Amount)

	req := fe.last()
	assert.Equal(t, "2.0", req.JSONRPC)
	require.Len(t, req.Params, 2)
	assert.JSONEq(t, `5000`, string(req.Params[0]))
	assert.JSONEq(t, `["contact-1"]`, string(req.Params[1]))
	assert.Equal(t, "Bearer secret", fe.auth[0])
}

func TestRPCWalletClient_CreateContact(t *testing.T) {
	fe, srv := newFakeEngine(t)
	fe.handlers["create_new_contact"] = func(params []json.RawMessage) (any, map[string]any) {
		return "contact-42", nil
	}

	client, err := NewRPCWalletClient(srv.URL)
	require.NoError(t, err)

	id, err := client.CreateContact(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, types.ContactID("contact-42"), id)
	assert.JSONEq(t, `{"name":"alice"}`, string(fe.last().Params[0]))
	assert.Empty(t, fe.auth[0])
}

func TestRPCWalletClient_EngineError(t *testing.T) {
	fe, srv := newFakeEngine(t)
	fe.handlers["create_bip21"] = func([]json.RawMessage) (any, map[string]any) {
		return nil, map[string]any{
			"code":    -32000,
			"message": "no inbound liquidity",
			"data":    map[string]string{"reason": ErrCodeInsufficientLiquidity},
		}
	}

	client, err := NewRPCWalletClient(srv.URL)
	require.NoError(t, err)

	_, err = client.CreateUnifiedRequest(context.Background(), 100, nil)
	require.Error(t, err)

	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "create_bip21", ee.Method)
	assert.Equal(t, ErrCodeInsufficientLiquidity, ee.Code)
	assert.True(t, IsLightningUnavailable(err))

	_, err = client.GetNetwork(context.Background())
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "-32601", ee.Code)
}

func TestRPCWalletClient_Lookups(t *testing.T) {
	fe, srv := newFakeEngine(t)
	fe.handlers["get_invoice"] = func([]json.RawMessage) (any, map[string]any) {
		return map[string]any{"bolt11": "lnbc1pjexample", "paid": true, "fees_paid": 50}, nil
	}
	fe.handlers["check_address"] = func([]json.RawMessage) (any, map[string]any) {
		return nil, nil
	}
	fe.handlers["get_network"] = func([]json.RawMessage) (any, map[string]any) {
		return "signet", nil
	}
	fe.handlers["get_new_address"] = func([]json.RawMessage) (any, map[string]any) {
		return map[string]string{"address": "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"}, nil
	}

	client, err := NewRPCWalletClient(srv.URL, WithRateLimit(100, 10))
	require.NoError(t, err)
	ctx := context.Background()

	inv, err := client.GetInvoiceStatus(ctx, "lnbc1pjexample")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.True(t, inv.Paid)
	require.NotNil(t, inv.FeesPaid)
	assert.Equal(t, types.Sats(50), *inv.FeesPaid)

	tx, err := client.CheckAddressForTx(ctx, "bc1q")
	require.NoError(t, err)
	assert.Nil(t, tx)

	network, err := client.GetNetwork(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.NetworkSignet, network)

	m, err := client.CreateAddressRequest(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", m.Address)
	assert.Empty(t, m.Invoice)
	assert.JSONEq(t, `[]`, string(fe.last().Params[0]))
}

func TestRPCWalletClient_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewRPCWalletClient(srv.URL)
	require.NoError(t, err)

	_, err = client.GetNetwork(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}
