package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"coursecert/internal/platform/config"
)

// signer holds the issuer key material and serializes transaction submission.
// The node assigns nonces from pending state; concurrent submissions from the
// same key race on the nonce, so writes go out one at a time.
type signer struct {
	mu      sync.Mutex
	opts    *bind.TransactOpts
	address common.Address
}

func newSigner(cfg config.LedgerConfig) (*signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse ledger signing key: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("build transactor for chain %d: %w", cfg.ChainID, err)
	}
	return &signer{
		opts:    opts,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// transact runs fn with per-call transact options under the submission lock.
func (s *signer) transact(ctx context.Context, fn func(opts *bind.TransactOpts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := *s.opts
	opts.Context = ctx
	return fn(&opts)
}
