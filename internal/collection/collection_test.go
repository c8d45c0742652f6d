package collection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deployer = "0x00000000000000000000000000000000000000d0"
	user1    = "0x1111111111111111111111111111111111111111"
	user2    = "0x2222222222222222222222222222222222222222"
)

func TestDeployment(t *testing.T) {
	c := New(deployer)
	assert.Equal(t, "ChainCapture", c.Name())
	assert.Equal(t, "CCAP", c.Symbol())
	assert.Equal(t, deployer, c.Owner())
	assert.Equal(t, uint64(0), c.CurrentTokenID())
}

func TestMint(t *testing.T) {
	const testURI = "ipfs://QmTest123"

	t.Run("first mint gets token 0", func(t *testing.T) {
		c := New(deployer)
		id, err := c.Mint(user1, testURI)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), id)

		owner, err := c.OwnerOf(0)
		require.NoError(t, err)
		assert.Equal(t, user1, owner)

		uri, err := c.TokenURI(0)
		require.NoError(t, err)
		assert.Equal(t, testURI, uri)
		assert.Equal(t, uint64(1), c.CurrentTokenID())
	})

	t.Run("counter increments", func(t *testing.T) {
		c := New(deployer)
		_, err := c.Mint(user1, testURI)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), c.CurrentTokenID())
		_, err = c.Mint(user1, "ipfs://QmTest456")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), c.CurrentTokenID())
	})

	t.Run("creator tracked", func(t *testing.T) {
		c := New(deployer)
		_, err := c.Mint(user1, testURI)
		require.NoError(t, err)
		creator, err := c.CreatorOf(0)
		require.NoError(t, err)
		assert.Equal(t, user1, creator)
	})

	t.Run("emits MediaMinted", func(t *testing.T) {
		c := New(deployer)
		_, err := c.Mint(user1, testURI)
		require.NoError(t, err)
		events := c.Events()
		require.Len(t, events, 1)
		assert.Equal(t, uint64(0), events[0].TokenID)
		assert.Equal(t, user1, events[0].Creator)
		assert.Equal(t, testURI, events[0].TokenURI)
		assert.False(t, events[0].Timestamp.IsZero())
	})

	t.Run("empty uri rejected", func(t *testing.T) {
		c := New(deployer)
		_, err := c.Mint(user1, "")
		assert.ErrorIs(t, err, ErrEmptyURI)
		assert.EqualError(t, err, "Token URI cannot be empty")
		assert.Equal(t, uint64(0), c.CurrentTokenID())
	})

	t.Run("zero address rejected", func(t *testing.T) {
		c := New(deployer)
		_, err := c.Mint("0x0000000000000000000000000000000000000000", testURI)
		assert.ErrorIs(t, err, ErrZeroAddress)
	})
}

func TestMintBatch(t *testing.T) {
	t.Run("mints sequential ids to one owner", func(t *testing.T) {
		c := New(deployer)
		uris := []string{"ipfs://QmTest1", "ipfs://QmTest2", "ipfs://QmTest3"}
		ids, err := c.MintBatch(user1, uris)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 2}, ids)
		assert.Equal(t, uint64(3), c.BalanceOf(user1))
		for i, uri := range uris {
			owner, err := c.OwnerOf(uint64(i))
			require.NoError(t, err)
			assert.Equal(t, user1, owner)
			got, err := c.TokenURI(uint64(i))
			require.NoError(t, err)
			assert.Equal(t, uri, got)
		}
	})

	t.Run("one empty uri rejects the batch", func(t *testing.T) {
		c := New(deployer)
		_, err := c.MintBatch(user1, []string{"ipfs://QmTest1", ""})
		assert.ErrorIs(t, err, ErrEmptyURI)
		assert.Equal(t, uint64(0), c.CurrentTokenID())
		assert.Equal(t, uint64(0), c.BalanceOf(user1))
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, err := New(deployer).MintBatch(user1, nil)
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})
}

func TestCreatorTracking(t *testing.T) {
	c := New(deployer)
	_, err := c.Mint(user1, "ipfs://QmTest1")
	require.NoError(t, err)
	_, err = c.Mint(user2, "ipfs://QmTest2")
	require.NoError(t, err)

	creator0, _ := c.CreatorOf(0)
	creator1, _ := c.CreatorOf(1)
	assert.Equal(t, user1, creator0)
	assert.Equal(t, user2, creator1)

	_, err = c.CreatorOf(999)
	assert.EqualError(t, err, "Token does not exist")
}

func TestTransfer_KeepsCreator(t *testing.T) {
	c := New(deployer)
	_, err := c.Mint(user1, "ipfs://QmTest1")
	require.NoError(t, err)

	require.NoError(t, c.Transfer(user1, user2, 0))

	owner, _ := c.OwnerOf(0)
	creator, _ := c.CreatorOf(0)
	assert.Equal(t, user2, owner)
	assert.Equal(t, user1, creator)
	assert.Equal(t, uint64(0), c.BalanceOf(user1))
	assert.Equal(t, uint64(1), c.BalanceOf(user2))

	assert.ErrorIs(t, c.Transfer(user1, user2, 0), ErrNotTokenOwner)
	assert.ErrorIs(t, c.Transfer(user2, user1, 42), ErrTokenNotExist)
}

func TestBalanceOf_CaseInsensitive(t *testing.T) {
	c := New(deployer)
	mixed := "0xAbCdEf0000000000000000000000000000000001"
	_, err := c.Mint(mixed, "ipfs://QmTest1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.BalanceOf("0xabcdef0000000000000000000000000000000001"))
}

func TestMint_Concurrent(t *testing.T) {
	c := New(deployer)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Mint(user1, "ipfs://QmConcurrent")
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), c.CurrentTokenID())
	assert.Equal(t, uint64(50), c.BalanceOf(user1))
}
