// Package collection models the ChainCapture ERC-721 collection: sequential
// token ids, per-token URIs, and an immutable creator record. It backs the
// local chain used in development and tests.
package collection

import (
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	Name   = "ChainCapture"
	Symbol = "CCAP"

	zeroAddress = "0x0000000000000000000000000000000000000000"
)

// Revert reasons of the deployed contract.
var (
	ErrEmptyURI      = errors.New("Token URI cannot be empty")
	ErrTokenNotExist = errors.New("Token does not exist")
	ErrNotTokenOwner = errors.New("transfer caller is not owner")
	ErrZeroAddress   = errors.New("invalid zero address")
	ErrEmptyBatch    = errors.New("no token URIs supplied")
)

// MediaMinted mirrors the event the contract emits on every mint.
type MediaMinted struct {
	TokenID   uint64
	Creator   string
	TokenURI  string
	Timestamp time.Time
}

type token struct {
	owner   string
	creator string
	uri     string
}

type Collection struct {
	mu       sync.RWMutex
	owner    string
	next     uint64
	tokens   map[uint64]*token
	balances map[string]uint64
	events   []MediaMinted
	now      func() time.Time
}

// New deploys a collection owned by deployer.
func New(deployer string) *Collection {
	return &Collection{
		owner:    deployer,
		tokens:   make(map[uint64]*token),
		balances: make(map[string]uint64),
		now:      time.Now,
	}
}

func (c *Collection) Name() string   { return Name }
func (c *Collection) Symbol() string { return Symbol }
func (c *Collection) Owner() string  { return c.owner }

// Mint assigns the next token id to "to" and records "to" as its creator.
func (c *Collection) Mint(to, uri string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := checkMint(to, uri); err != nil {
		return 0, err
	}
	return c.mintLocked(to, uri), nil
}

// MintBatch mints one token per uri, in order, all owned by "to". The batch
// is all-or-nothing: one empty uri rejects the whole call.
func (c *Collection) MintBatch(to string, uris []string) ([]uint64, error) {
	if len(uris) == 0 {
		return nil, ErrEmptyBatch
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, uri := range uris {
		if err := checkMint(to, uri); err != nil {
			return nil, err
		}
	}
	ids := make([]uint64, 0, len(uris))
	for _, uri := range uris {
		ids = append(ids, c.mintLocked(to, uri))
	}
	return ids, nil
}

func (c *Collection) mintLocked(to, uri string) uint64 {
	id := c.next
	c.next++
	c.tokens[id] = &token{owner: to, creator: to, uri: uri}
	c.balances[key(to)]++
	c.events = append(c.events, MediaMinted{TokenID: id, Creator: to, TokenURI: uri, Timestamp: c.now().UTC()})
	return id
}

func checkMint(to, uri string) error {
	if uri == "" {
		return ErrEmptyURI
	}
	if isZero(to) {
		return ErrZeroAddress
	}
	return nil
}

// Transfer moves a token; the creator record is untouched.
func (c *Collection) Transfer(from, to string, id uint64) error {
	if isZero(to) {
		return ErrZeroAddress
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[id]
	if !ok {
		return ErrTokenNotExist
	}
	if key(t.owner) != key(from) {
		return ErrNotTokenOwner
	}
	c.balances[key(from)]--
	c.balances[key(to)]++
	t.owner = to
	return nil
}

func (c *Collection) OwnerOf(id uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tokens[id]
	if !ok {
		return "", ErrTokenNotExist
	}
	return t.owner, nil
}

func (c *Collection) TokenURI(id uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tokens[id]
	if !ok {
		return "", ErrTokenNotExist
	}
	return t.uri, nil
}

func (c *Collection) CreatorOf(id uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tokens[id]
	if !ok {
		return "", ErrTokenNotExist
	}
	return t.creator, nil
}

func (c *Collection) BalanceOf(addr string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balances[key(addr)]
}

// CurrentTokenID is the id the next mint will receive.
func (c *Collection) CurrentTokenID() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.next
}

func (c *Collection) Events() []MediaMinted {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MediaMinted, len(c.events))
	copy(out, c.events)
	return out
}

// addresses compare case-insensitively, as checksummed and lower-case hex
// forms name the same account
func key(addr string) string {
	return strings.ToLower(addr)
}

func isZero(addr string) bool {
	return addr == "" || key(addr) == zeroAddress
}
