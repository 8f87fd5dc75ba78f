package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vitwit/receive/types"
)

const bip21Scheme = "bitcoin:"

// BuildBIP21URI builds a unified payment URI of the form
// bitcoin:<address>?amount=<btc>&lightning=<invoice>. Empty parameters are
// left out; with none the bare URI is returned.
func BuildBIP21URI(address, btcAmount, invoice string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("address is required for a bip21 uri")
	}

	params := url.Values{}
	if btcAmount != "" {
		params.Set("amount", btcAmount)
	}
	if invoice != "" {
		params.Set("lightning", invoice)
	}

	if len(params) == 0 {
		return bip21Scheme + address, nil
	}
	// Encode sorts keys, which yields amount before lightning.
	return bip21Scheme + address + "?" + params.Encode(), nil
}

// UnifiedURI builds the URI for materials produced by the unified path.
// When the engine did not supply a display amount it is derived from sats.
func UnifiedURI(m *types.RequestMaterials) (string, error) {
	if m == nil {
		return "", fmt.Errorf("request materials are nil")
	}

	btc := m.BTCAmount
	if btc == "" && m.Amount > 0 {
		btc = SatsToBTCString(m.Amount)
	}

	return BuildBIP21URI(m.Address, btc, m.Invoice)
}

// BIP21 is a decoded unified payment URI
type BIP21 struct {
	Address   string
	BTCAmount string
	Invoice   string
}

// ParseBIP21URI decodes a URI produced by BuildBIP21URI.
func ParseBIP21URI(uri string) (*BIP21, error) {
	if !strings.HasPrefix(strings.ToLower(uri), bip21Scheme) {
		return nil, fmt.Errorf("not a bitcoin uri: %s", uri)
	}

	rest := uri[len(bip21Scheme):]
	address, rawQuery, _ := strings.Cut(rest, "?")
	if address == "" {
		return nil, fmt.Errorf("bitcoin uri has no address")
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid bitcoin uri query: %w", err)
	}

	return &BIP21{
		Address:   address,
		BTCAmount: query.Get("amount"),
		Invoice:   query.Get("lightning"),
	}, nil
}
