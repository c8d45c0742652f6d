// Package chain talks to the IP registration protocol: minting and
// registering through the SPG workflow contract, and the read calls used by
// the ownership scan. RPCChain is the real network; LocalChain runs the same
// contract semantics in process.
package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/emarc99/chaincapture/internal/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// IPMetadata is the tuple passed to the workflow contract. Field names follow
// the ABI component names.
type IPMetadata struct {
	IpMetadataURI   string
	IpMetadataHash  [32]byte
	NftMetadataURI  string
	NftMetadataHash [32]byte
}

type MintRequest struct {
	Recipient string
	Metadata  IPMetadata
}

type Minter interface {
	// MintAndRegister mints one token on the SPG collection and registers it
	// as an IP asset in a single transaction.
	MintAndRegister(ctx context.Context, req MintRequest) (*models.Registration, error)
	AttachLicense(ctx context.Context, ipID string, licenseTermsID uint64) (string, error)
	// Signer is the account paying for transactions and the default recipient.
	Signer() string
	Contract() string
}

type TokenReader interface {
	BalanceOf(ctx context.Context, owner string) (uint64, error)
	OwnerOf(ctx context.Context, tokenID uint64) (string, error)
	TokenURI(ctx context.Context, tokenID uint64) (string, error)
	IPID(ctx context.Context, tokenID uint64) (string, error)
	Contract() string
}

type Backend interface {
	Minter
	TokenReader
}

func IsAddress(s string) bool {
	return common.IsHexAddress(s)
}

// Checksum returns the EIP-55 form of a hex address. Archive keys use it so
// lookups do not depend on the caller's casing.
func Checksum(s string) string {
	return common.HexToAddress(s).Hex()
}

func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// DeriveIPID computes a stable account address for (chain, contract, token).
// Used where no registry is available to ask.
func DeriveIPID(chainID int64, contract string, tokenID uint64) string {
	h := crypto.Keccak256(
		common.LeftPadBytes(big.NewInt(chainID).Bytes(), 32),
		common.HexToAddress(contract).Bytes(),
		common.LeftPadBytes(new(big.Int).SetUint64(tokenID).Bytes(), 32),
	)
	return common.BytesToAddress(h[12:]).Hex()
}
