package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/receive/types"
)

func TestBuildBIP21URI(t *testing.T) {
	uri, err := BuildBIP21URI(mainnetAddress, "0.00005", "lnbc50u1pjexample")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin:"+mainnetAddress+"?amount=0.00005&lightning=lnbc50u1pjexample", uri)

	uri, err = BuildBIP21URI(mainnetAddress, "", "lnbc50u1pjexample")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin:"+mainnetAddress+"?lightning=lnbc50u1pjexample", uri)

	uri, err = BuildBIP21URI(mainnetAddress, "", "")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin:"+mainnetAddress, uri)

	_, err = BuildBIP21URI("", "0.1", "")
	assert.Error(t, err)
}

func TestUnifiedURI_DerivesAmount(t *testing.T) {
	uri, err := UnifiedURI(&types.RequestMaterials{
		Address: mainnetAddress,
		Invoice: "lnbc1pjexample",
		Amount:  5000,
	})
	require.NoError(t, err)
	assert.Equal(t, "bitcoin:"+mainnetAddress+"?amount=0.00005&lightning=lnbc1pjexample", uri)

	_, err = UnifiedURI(nil)
	assert.Error(t, err)
}

func TestParseBIP21URI(t *testing.T) {
	uri, err := BuildBIP21URI(mainnetAddress, "0.00005", "lnbc50u1pjexample")
	require.NoError(t, err)

	parsed, err := ParseBIP21URI(uri)
	require.NoError(t, err)
	assert.Equal(t, mainnetAddress, parsed.Address)
	assert.Equal(t, "0.00005", parsed.BTCAmount)
	assert.Equal(t, "lnbc50u1pjexample", parsed.Invoice)

	parsed, err = ParseBIP21URI("BITCOIN:" + mainnetAddress)
	require.NoError(t, err)
	assert.Equal(t, mainnetAddress, parsed.Address)
	assert.Empty(t, parsed.Invoice)

	_, err = ParseBIP21URI("lightning:lnbc1")
	assert.Error(t, err)
	_, err = ParseBIP21URI("bitcoin:?amount=1")
	assert.Error(t, err)
}

func TestTxExplorerURL(t *testing.T) {
	assert.Equal(t, "https://mempool.space/tx/"+genesisTxID, TxExplorerURL(types.NetworkBitcoin, genesisTxID, ""))
	assert.Equal(t, "https://mempool.space/testnet/tx/"+genesisTxID, TxExplorerURL(types.NetworkTestnet, genesisTxID, ""))
	assert.Equal(t, "https://mutinynet.com/tx/"+genesisTxID, TxExplorerURL(types.NetworkSignet, genesisTxID, ""))
	assert.Equal(t, "https://explorer.example/tx/"+genesisTxID, TxExplorerURL(types.NetworkBitcoin, genesisTxID, "https://explorer.example/tx"))
	assert.Empty(t, TxExplorerURL(types.NetworkBitcoin, "bad", ""))
}
