package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/shopspring/decimal"
	"github.com/vitwit/receive/types"
)

var satsPattern = regexp.MustCompile(`^[0-9]+$`)

// satsExponent converts sats to BTC.
const satsExponent = -8

// ParseAmount parses the amount text typed by the user into sats
func ParseAmount(text string) (types.Sats, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, &types.ReceiveError{
			Code:    types.ErrInvalidAmount,
			Message: "amount cannot be empty",
		}
	}

	if !satsPattern.MatchString(trimmed) {
		return 0, &types.ReceiveError{
			Code:    types.ErrInvalidAmount,
			Message: fmt.Sprintf("amount must be a whole number of sats: %q", text),
		}
	}

	v, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, &types.ReceiveError{
			Code:    types.ErrInvalidAmount,
			Message: "amount out of range",
			Err:     err,
		}
	}

	if v > uint64(btcutil.MaxSatoshi) {
		return 0, &types.ReceiveError{
			Code:    types.ErrInvalidAmount,
			Message: fmt.Sprintf("amount exceeds %d sats", int64(btcutil.MaxSatoshi)),
		}
	}

	return types.Sats(v), nil
}

// IsValidAmount reports whether the text would be accepted by ParseAmount
func IsValidAmount(text string) bool {
	_, err := ParseAmount(text)
	return err == nil
}

// SatsToBTCString formats sats as a BTC decimal without trailing zeros.
func SatsToBTCString(amount types.Sats) string {
	return decimal.New(int64(amount), satsExponent).String()
}

// BTCStringToSats converts a decimal BTC amount back to sats. Fractions
// below one sat are rejected.
func BTCStringToSats(btc string) (types.Sats, error) {
	dec, err := decimal.NewFromString(strings.TrimSpace(btc))
	if err != nil {
		return 0, fmt.Errorf("invalid btc amount format: %w", err)
	}

	if dec.IsNegative() {
		return 0, fmt.Errorf("btc amount cannot be negative")
	}

	sats := dec.Shift(-satsExponent)
	if !sats.Equal(sats.Truncate(0)) {
		return 0, fmt.Errorf("btc amount %s has sub-satoshi precision", btc)
	}

	return types.Sats(sats.IntPart()), nil
}

// ValidateAddressForNetwork checks that an on-chain address decodes and
// belongs to the given network. With NetworkUnknown any known network is
// accepted.
func ValidateAddressForNetwork(address string, network types.Network) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if network == types.NetworkUnknown {
		for _, n := range types.KnownNetworks {
			if ValidateAddressForNetwork(address, n) == nil {
				return nil
			}
		}
		return fmt.Errorf("invalid bitcoin address: %s", address)
	}

	params := network.ChainParams()
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return fmt.Errorf("invalid bitcoin address: %w", err)
	}

	if !addr.IsForNet(params) {
		return fmt.Errorf("address %s is not for network %s", address, network)
	}

	return nil
}

// ValidateInvoiceForNetwork checks the bolt11 prefix of an invoice. The
// invoice body is opaque to this package.
func ValidateInvoiceForNetwork(invoice string, network types.Network) error {
	if invoice == "" {
		return fmt.Errorf("invoice cannot be empty")
	}

	lower := strings.ToLower(invoice)
	if network == types.NetworkUnknown {
		if !strings.HasPrefix(lower, "ln") {
			return fmt.Errorf("invoice does not carry a bolt11 prefix")
		}
		return nil
	}

	prefix := network.InvoicePrefix()
	if !strings.HasPrefix(lower, prefix) {
		return fmt.Errorf("invoice does not carry the %s prefix", prefix)
	}

	// lnbcrt is a prefix extension of lnbc
	if network == types.NetworkBitcoin && strings.HasPrefix(lower, types.NetworkRegtest.InvoicePrefix()) {
		return fmt.Errorf("regtest invoice used on %s", network)
	}

	return nil
}

// ValidateTransactionHash checks that a txid is a 32 byte hex hash.
func ValidateTransactionHash(txid string) error {
	if txid == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	if len(txid) != chainhash.MaxHashStringSize {
		return fmt.Errorf("transaction hash must be %d characters long", chainhash.MaxHashStringSize)
	}

	if _, err := chainhash.NewHashFromStr(txid); err != nil {
		return fmt.Errorf("invalid transaction hash: %w", err)
	}

	return nil
}
