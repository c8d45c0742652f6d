package chain

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registeredLog(t *testing.T, regABI abi.ABI, registry, ipID common.Address, tokenID int64) *types.Log {
	t.Helper()
	ev := regABI.Events["IPRegistered"]
	data, err := ev.Inputs.NonIndexed().Pack(ipID, "capture", "ipfs://x", big.NewInt(1700000000))
	require.NoError(t, err)
	return &types.Log{
		Address: registry,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(big.NewInt(1315)),
			common.BytesToHash(common.HexToAddress(alice).Bytes()),
			common.BigToHash(big.NewInt(tokenID)),
		},
		Data: data,
	}
}

func TestParseRegistered(t *testing.T) {
	regABI, err := abi.JSON(strings.NewReader(ipAssetRegistryABI))
	require.NoError(t, err)
	registry := common.HexToAddress("0x77319B4031e6eF1250907aa00018B8B1c67a244b")
	ipID := common.HexToAddress("0x3333333333333333333333333333333333333333")

	other := registeredLog(t, regABI, common.HexToAddress(alice), ipID, 9)
	lg := registeredLog(t, regABI, registry, ipID, 42)

	reg := parseRegistered(regABI, registry, []*types.Log{other, lg})
	assert.Equal(t, ipID.Hex(), reg.IPID)
	assert.Equal(t, "42", reg.TokenID)
}

func TestParseRegisteredNoEvent(t *testing.T) {
	regABI, err := abi.JSON(strings.NewReader(ipAssetRegistryABI))
	require.NoError(t, err)
	reg := parseRegistered(regABI, common.Address{}, nil)
	assert.Empty(t, reg.IPID)
	assert.Empty(t, reg.TokenID)
}

func TestABIsParse(t *testing.T) {
	for _, def := range []string{erc721ABI, registrationWorkflowsABI, ipAssetRegistryABI, licensingModuleABI} {
		_, err := abi.JSON(strings.NewReader(def))
		assert.NoError(t, err)
	}
}

func TestMintTuplePacks(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(registrationWorkflowsABI))
	require.NoError(t, err)
	_, err = parsed.Pack("mintAndRegisterIp",
		common.HexToAddress(alice), common.HexToAddress(alice),
		IPMetadata{IpMetadataURI: "ipfs://a", NftMetadataURI: "ipfs://b"}, true)
	assert.NoError(t, err)
}

func TestIsRevert(t *testing.T) {
	assert.True(t, isRevert(errors.New("execution reverted: Token does not exist")))
	assert.False(t, isRevert(errors.New("connection refused")))
}
