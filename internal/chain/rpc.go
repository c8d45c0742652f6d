package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

type RPCOptions struct {
	URL                   string
	ChainID               int64
	PrivateKey            string
	SPGNFTContract        string
	RegistrationWorkflows string
	IPAssetRegistry       string
	LicensingModule       string
	PILTemplate           string
	TxTimeout             time.Duration
	ReadRetry             time.Duration
}

type RPCChain struct {
	client    *ethclient.Client
	log       *zap.SugaredLogger
	chainID   *big.Int
	key       *ecdsa.PrivateKey
	signer    common.Address
	spg       common.Address
	template  common.Address
	nft       *bind.BoundContract
	workflows *bind.BoundContract
	registry  *bind.BoundContract
	licensing *bind.BoundContract
	regABI    abi.ABI
	regAddr   common.Address
	txTimeout time.Duration
	readRetry time.Duration
}

func DialRPC(ctx context.Context, o RPCOptions, log *zap.SugaredLogger) (*RPCChain, error) {
	if o.SPGNFTContract == "" || !common.IsHexAddress(o.SPGNFTContract) {
		return nil, fmt.Errorf("spg nft contract: %w", utils.ErrNotConfigured)
	}
	client, err := ethclient.DialContext(ctx, o.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", o.URL, err)
	}

	c := &RPCChain{
		client:    client,
		log:       log,
		chainID:   big.NewInt(o.ChainID),
		spg:       common.HexToAddress(o.SPGNFTContract),
		template:  common.HexToAddress(o.PILTemplate),
		regAddr:   common.HexToAddress(o.IPAssetRegistry),
		txTimeout: o.TxTimeout,
		readRetry: o.ReadRetry,
	}
	if o.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(o.PrivateKey, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.key = key
		c.signer = crypto.PubkeyToAddress(key.PublicKey)
	}

	bound := []struct {
		dst  **bind.BoundContract
		def  string
		addr common.Address
	}{
		{&c.nft, erc721ABI, c.spg},
		{&c.workflows, registrationWorkflowsABI, common.HexToAddress(o.RegistrationWorkflows)},
		{&c.registry, ipAssetRegistryABI, c.regAddr},
		{&c.licensing, licensingModuleABI, common.HexToAddress(o.LicensingModule)},
	}
	for _, b := range bound {
		parsed, err := abi.JSON(strings.NewReader(b.def))
		if err != nil {
			client.Close()
			return nil, err
		}
		*b.dst = bind.NewBoundContract(b.addr, parsed, client, client, client)
	}
	c.regABI, _ = abi.JSON(strings.NewReader(ipAssetRegistryABI))
	return c, nil
}

func (c *RPCChain) Close() { c.client.Close() }

func (c *RPCChain) Signer() string {
	if c.key == nil {
		return ""
	}
	return c.signer.Hex()
}

func (c *RPCChain) Contract() string { return c.spg.Hex() }

// RemoteChainID asks the node which chain it serves.
func (c *RPCChain) RemoteChainID(ctx context.Context) (*big.Int, error) {
	return c.client.ChainID(ctx)
}

func (c *RPCChain) MintAndRegister(ctx context.Context, req MintRequest) (*models.Registration, error) {
	auth, err := c.transactor(ctx)
	if err != nil {
		return nil, err
	}
	recipient := c.signer
	if req.Recipient != "" {
		recipient = common.HexToAddress(req.Recipient)
	}

	tx, err := c.workflows.Transact(auth, "mintAndRegisterIp", c.spg, recipient, req.Metadata, true)
	if err != nil {
		return nil, fmt.Errorf("send mintAndRegisterIp: %w", err)
	}
	c.log.Infow("registration submitted", "tx", tx.Hash().Hex(), "recipient", recipient.Hex())

	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return nil, err
	}
	reg := c.parseRegistered(receipt)
	reg.TxHash = tx.Hash().Hex()
	return reg, nil
}

func (c *RPCChain) AttachLicense(ctx context.Context, ipID string, licenseTermsID uint64) (string, error) {
	if !common.IsHexAddress(ipID) {
		return "", fmt.Errorf("%w: ipId is not an address", utils.ErrInvalidInput)
	}
	auth, err := c.transactor(ctx)
	if err != nil {
		return "", err
	}
	tx, err := c.licensing.Transact(auth, "attachLicenseTerms",
		common.HexToAddress(ipID), c.template, new(big.Int).SetUint64(licenseTermsID))
	if err != nil {
		return "", fmt.Errorf("send attachLicenseTerms: %w", err)
	}
	if _, err := c.waitMined(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (c *RPCChain) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, fmt.Errorf("wallet private key: %w", utils.ErrNotConfigured)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	auth.Context = ctx
	return auth, nil
}

func (c *RPCChain) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if c.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.txTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

// parseRegistered pulls ipId and tokenId out of the registry's IPRegistered
// log. Missing values are left empty for the caller to reject.
func (c *RPCChain) parseRegistered(receipt *types.Receipt) *models.Registration {
	return parseRegistered(c.regABI, c.regAddr, receipt.Logs)
}

func parseRegistered(regABI abi.ABI, registry common.Address, logs []*types.Log) *models.Registration {
	reg := &models.Registration{}
	ev, ok := regABI.Events["IPRegistered"]
	if !ok {
		return reg
	}
	for _, lg := range logs {
		if lg.Address != registry || len(lg.Topics) != 4 || lg.Topics[0] != ev.ID {
			continue
		}
		fields := map[string]any{}
		if err := regABI.UnpackIntoMap(fields, "IPRegistered", lg.Data); err != nil {
			continue
		}
		if id, ok := fields["ipId"].(common.Address); ok {
			reg.IPID = id.Hex()
		}
		reg.TokenID = new(big.Int).SetBytes(lg.Topics[3].Bytes()).String()
		break
	}
	return reg
}

func (c *RPCChain) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	if !common.IsHexAddress(owner) {
		return 0, fmt.Errorf("%w: invalid wallet address", utils.ErrInvalidInput)
	}
	out, err := c.call(ctx, c.nft, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (c *RPCChain) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	out, err := c.call(ctx, c.nft, "ownerOf", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return "", err
	}
	return out[0].(common.Address).Hex(), nil
}

func (c *RPCChain) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	out, err := c.call(ctx, c.nft, "tokenURI", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (c *RPCChain) IPID(ctx context.Context, tokenID uint64) (string, error) {
	out, err := c.call(ctx, c.registry, "ipId", c.chainID, c.spg, new(big.Int).SetUint64(tokenID))
	if err != nil {
		return "", err
	}
	return out[0].(common.Address).Hex(), nil
}

// call runs a view function. Transport failures are retried with backoff;
// a revert is final.
func (c *RPCChain) call(ctx context.Context, contract *bind.BoundContract, method string, args ...any) ([]any, error) {
	var out []any
	op := func() error {
		out = nil
		err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
		if err != nil && isRevert(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = c.readRetry
	if c.readRetry <= 0 {
		b.MaxElapsedTime = time.Nanosecond
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

func isRevert(err error) bool {
	var de rpc.DataError
	if errors.As(err, &de) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "execution reverted") || errors.Is(err, bind.ErrNoCode)
}
