package types

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network is the bitcoin network reported by the wallet engine
type Network string

const (
	// NetworkUnknown marks a network the engine has not confirmed.
	NetworkUnknown Network = ""

	NetworkBitcoin Network = "bitcoin"
	NetworkTestnet Network = "testnet"
	NetworkSignet  Network = "signet"
	NetworkRegtest Network = "regtest"
)

// ParseNetwork accepts the engine's network names plus the common aliases.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "bitcoin", "mainnet", "main":
		return NetworkBitcoin, nil
	case "testnet", "testnet3", "test":
		return NetworkTestnet, nil
	case "signet":
		return NetworkSignet, nil
	case "regtest", "regression":
		return NetworkRegtest, nil
	default:
		return "", &ReceiveError{
			Code:    ErrNetworkError,
			Message: fmt.Sprintf("unsupported network: %s", s),
		}
	}
}

// KnownNetworks lists every network an engine can report.
var KnownNetworks = []Network{NetworkBitcoin, NetworkTestnet, NetworkSignet, NetworkRegtest}

// ChainParams returns the btcd parameters used to decode addresses.
func (n Network) ChainParams() *chaincfg.Params {
	switch n {
	case NetworkTestnet:
		return &chaincfg.TestNet3Params
	case NetworkSignet:
		return &chaincfg.SigNetParams
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// InvoicePrefix is the bolt11 human readable prefix for the network.
func (n Network) InvoicePrefix() string {
	switch n {
	case NetworkTestnet:
		return "lntb"
	case NetworkSignet:
		return "lntbs"
	case NetworkRegtest:
		return "lnbcrt"
	default:
		return "lnbc"
	}
}

func (n Network) IsTestnet() bool {
	return n == NetworkTestnet || n == NetworkSignet || n == NetworkRegtest
}

func (n Network) String() string {
	return string(n)
}
