package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vitwit/receive/types"
)

// RPCWalletClient talks JSON-RPC 2.0 over HTTP to a wallet engine. It is safe
// for concurrent use.
type RPCWalletClient struct {
	baseURL   string
	authToken string
	http      *http.Client
	limiter   *rate.Limiter
	nextID    atomic.Int64
}

var _ WalletClient = (*RPCWalletClient)(nil)

type RPCOption func(*RPCWalletClient)

func WithAuthToken(token string) RPCOption {
	return func(c *RPCWalletClient) {
		c.authToken = token
	}
}

func WithHTTPClient(h *http.Client) RPCOption {
	return func(c *RPCWalletClient) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRateLimit caps outgoing calls per second. A zero rps disables the cap.
func WithRateLimit(rps float64, burst int) RPCOption {
	return func(c *RPCWalletClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewRPCWalletClient constructs a new RPC client.
func NewRPCWalletClient(baseURL string, opts ...RPCOption) (*RPCWalletClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, &types.ReceiveError{
			Code:    types.ErrConfigError,
			Message: "engine rpc url is required",
		}
	}

	c := &RPCWalletClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewRPCWalletClientFromConfig builds a client from the engine section of a
// receive config.
func NewRPCWalletClientFromConfig(cfg types.EngineConfig) (*RPCWalletClient, error) {
	return NewRPCWalletClient(cfg.RPCURL,
		WithAuthToken(cfg.AuthToken),
		WithRateLimit(cfg.RateLimit, cfg.Burst),
	)
}

func (c *RPCWalletClient) CreateContact(ctx context.Context, name string) (types.ContactID, error) {
	params := []interface{}{map[string]string{"name": name}}
	var id string
	if err := c.call(ctx, "create_new_contact", params, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", &EngineError{Method: "create_new_contact", Code: ErrCodeUnexpected, Message: "empty contact id"}
	}
	return types.ContactID(id), nil
}

type bip21Result struct {
	Address   string `json:"address"`
	Invoice   string `json:"invoice"`
	BTCAmount string `json:"btc_amount"`
}

func (c *RPCWalletClient) CreateUnifiedRequest(ctx context.Context, amount types.Sats, contacts []types.ContactID) (*types.RequestMaterials, error) {
	params := []interface{}{uint64(amount), contactStrings(contacts)}
	var result bip21Result
	if err := c.call(ctx, "create_bip21", params, &result); err != nil {
		return nil, err
	}
	return &types.RequestMaterials{
		Address:    result.Address,
		Invoice:    result.Invoice,
		BTCAmount:  result.BTCAmount,
		Amount:     amount,
		ContactIDs: contacts,
	}, nil
}

func (c *RPCWalletClient) CreateAddressRequest(ctx context.Context, contacts []types.ContactID) (*types.RequestMaterials, error) {
	params := []interface{}{contactStrings(contacts)}
	var result bip21Result
	if err := c.call(ctx, "get_new_address", params, &result); err != nil {
		return nil, err
	}
	return &types.RequestMaterials{
		Address:    result.Address,
		ContactIDs: contacts,
	}, nil
}

func (c *RPCWalletClient) GetInvoiceStatus(ctx context.Context, invoice string) (*types.Invoice, error) {
	var result *types.Invoice
	if err := c.call(ctx, "get_invoice", []interface{}{invoice}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *RPCWalletClient) CheckAddressForTx(ctx context.Context, address string) (*types.OnChainTx, error) {
	var result *types.OnChainTx
	if err := c.call(ctx, "check_address", []interface{}{address}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *RPCWalletClient) GetNetwork(ctx context.Context) (types.Network, error) {
	var result string
	if err := c.call(ctx, "get_network", []interface{}{}, &result); err != nil {
		return "", err
	}
	return types.ParseNetwork(result)
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Reason string `json:"reason"`
	} `json:"data"`
}

func (c *RPCWalletClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("engine rpc %s: rate limit wait: %w", method, err)
		}
	}

	id := c.nextID.Add(1)
	bodyStruct := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	buf, err := json.Marshal(bodyStruct)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.authToken) != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("engine rpc %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine rpc %s failed: status=%d", method, resp.StatusCode)
	}

	var rpcResp struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      int64           `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("engine rpc %s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		code := rpcResp.Error.Data.Reason
		if code == "" {
			code = strconv.Itoa(rpcResp.Error.Code)
		}
		return &EngineError{Method: method, Code: code, Message: rpcResp.Error.Message}
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("engine rpc %s: decode result: %w", method, err)
	}
	return nil
}

func contactStrings(ids []types.ContactID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
