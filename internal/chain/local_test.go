package chain

import (
	"context"
	"testing"

	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "0x1111111111111111111111111111111111111111"

func TestLocalMintAndRegister(t *testing.T) {
	c := NewLocalChain(1315, "")
	ctx := context.Background()

	reg, err := c.MintAndRegister(ctx, MintRequest{
		Recipient: alice,
		Metadata:  IPMetadata{IpMetadataURI: "ipfs://meta", NftMetadataURI: "ipfs://nft"},
	})
	require.NoError(t, err)
	assert.Equal(t, "0", reg.TokenID)
	assert.True(t, IsAddress(reg.IPID))
	assert.Len(t, reg.TxHash, 66)

	uri, err := c.TokenURI(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://nft", uri)

	owner, err := c.OwnerOf(ctx, 0)
	require.NoError(t, err)
	assert.True(t, SameAddress(alice, owner))

	ipID, err := c.IPID(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, reg.IPID, ipID)

	n, err := c.BalanceOf(ctx, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestLocalMintDefaultsToSigner(t *testing.T) {
	c := NewLocalChain(1315, alice)
	reg, err := c.MintAndRegister(context.Background(), MintRequest{
		Metadata: IPMetadata{NftMetadataURI: "ipfs://nft"},
	})
	require.NoError(t, err)

	owner, err := c.OwnerOf(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, SameAddress(alice, owner))
	assert.Equal(t, "0", reg.TokenID)
}

func TestLocalMintRejectsEmptyURI(t *testing.T) {
	c := NewLocalChain(1315, "")
	_, err := c.MintAndRegister(context.Background(), MintRequest{Recipient: alice})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = c.MintAndRegister(context.Background(), MintRequest{
		Recipient: "not-an-address",
		Metadata:  IPMetadata{NftMetadataURI: "ipfs://nft"},
	})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestLocalTxHashesDiffer(t *testing.T) {
	c := NewLocalChain(1315, "")
	req := MintRequest{Metadata: IPMetadata{NftMetadataURI: "ipfs://same"}}
	a, err := c.MintAndRegister(context.Background(), req)
	require.NoError(t, err)
	b, err := c.MintAndRegister(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, a.TxHash, b.TxHash)
	assert.NotEqual(t, a.IPID, b.IPID)
}

func TestLocalAttachLicense(t *testing.T) {
	c := NewLocalChain(1315, "")
	ctx := context.Background()
	reg, err := c.MintAndRegister(ctx, MintRequest{Metadata: IPMetadata{NftMetadataURI: "ipfs://nft"}})
	require.NoError(t, err)

	tx, err := c.AttachLicense(ctx, reg.IPID, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, tx)
	assert.Equal(t, []uint64{1}, c.Licenses(reg.IPID))

	_, err = c.AttachLicense(ctx, reg.IPID, 1)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = c.AttachLicense(ctx, "0x2222222222222222222222222222222222222222", 1)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestLocalReadsOfMissingToken(t *testing.T) {
	c := NewLocalChain(1315, "")
	_, err := c.OwnerOf(context.Background(), 7)
	assert.Error(t, err)
	_, err = c.IPID(context.Background(), 7)
	assert.Error(t, err)

	_, err = c.BalanceOf(context.Background(), "nope")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestDeriveIPIDStable(t *testing.T) {
	a := DeriveIPID(1315, LocalContract, 3)
	assert.Equal(t, a, DeriveIPID(1315, LocalContract, 3))
	assert.NotEqual(t, a, DeriveIPID(1316, LocalContract, 3))
	assert.NotEqual(t, a, DeriveIPID(1315, LocalContract, 4))
	assert.True(t, IsAddress(a))
}
