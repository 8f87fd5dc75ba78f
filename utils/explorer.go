package utils

import (
	"strings"

	"github.com/vitwit/receive/types"
)

var defaultExplorers = map[types.Network]string{
	types.NetworkBitcoin: "https://mempool.space/tx/",
	types.NetworkTestnet: "https://mempool.space/testnet/tx/",
	types.NetworkSignet:  "https://mutinynet.com/tx/",
	types.NetworkRegtest: "http://localhost:3003/tx/",
}

// TxExplorerURL links a transaction on a block explorer. overrideBase, when
// set, replaces the per-network default. Invalid txids give "".
func TxExplorerURL(network types.Network, txid, overrideBase string) string {
	if ValidateTransactionHash(txid) != nil {
		return ""
	}

	base := overrideBase
	if base == "" {
		base = defaultExplorers[network]
	}
	if base == "" {
		base = defaultExplorers[types.NetworkBitcoin]
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return base + txid
}
