package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"coursecert/internal/canonical"
	"coursecert/internal/platform/config"
	"coursecert/internal/platform/tracer"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

// EVMClient is the production contract client over an Ethereum JSON-RPC node.
type EVMClient struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	abi      abi.ABI
	signer   *signer

	// miningWait bounds how long a write waits for its transaction to mine.
	// On expiry the transaction is still in flight; callers get the tx hash
	// and a timeout error so they can record a pending issuance.
	miningWait time.Duration

	tracer tracer.Tracer
	logger *slog.Logger
}

// EVMOption configures the EVM client.
type EVMOption func(*EVMClient)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) EVMOption {
	return func(c *EVMClient) { c.logger = logger }
}

// WithTracer configures a tracer.
func WithTracer(t tracer.Tracer) EVMOption {
	return func(c *EVMClient) { c.tracer = t }
}

// NewEVM dials the node and binds the certificate contract.
func NewEVM(cfg config.LedgerConfig, opts ...EVMOption) (*EVMClient, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger node: %w", err)
	}

	parsed, err := parseContractABI()
	if err != nil {
		return nil, err
	}

	sg, err := newSigner(cfg)
	if err != nil {
		return nil, err
	}

	addr := common.HexToAddress(cfg.ContractAddress)
	c := &EVMClient{
		eth:        eth,
		contract:   bind.NewBoundContract(addr, parsed, eth, eth, eth),
		abi:        parsed,
		signer:     sg,
		miningWait: cfg.MiningWait,
		tracer:     tracer.NewNoop(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssueCertificate submits the issuance transaction and waits (bounded) for it
// to mine. A timeout still returns the transaction hash so the caller can
// record a pending issuance for the reconciler.
func (c *EVMClient) IssueCertificate(ctx context.Context, req IssueRequest) (IssueReceipt, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLedgerIssue)
	var err error
	defer func() { span.End(err) }()

	if !common.IsHexAddress(req.StudentWallet) {
		err = dErrors.New(dErrors.CodeInvalidInput, "student wallet is not a valid address")
		return IssueReceipt{}, err
	}

	expiresAt := big.NewInt(0)
	if req.ExpiresAt != nil {
		expiresAt = big.NewInt(req.ExpiresAt.Unix())
	}

	var tx *types.Transaction
	err = c.signer.transact(ctx, func(opts *bind.TransactOpts) error {
		var txErr error
		tx, txErr = c.contract.Transact(opts, "issueCertificate",
			common.HexToAddress(req.StudentWallet),
			req.StudentName,
			req.StudentID.String(),
			req.CourseName,
			req.CourseID.String(),
			[32]byte(req.ProjectsHash),
			req.ContentURI,
			expiresAt,
		)
		return txErr
	})
	if err != nil {
		err = classify(err, "submit issuance transaction")
		return IssueReceipt{}, err
	}
	span.SetAttributes(tracer.String(tracer.AttrTxHash, tx.Hash().Hex()))

	waitCtx, cancel := context.WithTimeout(ctx, c.miningWait)
	defer cancel()
	receipt, waitErr := bind.WaitMined(waitCtx, c.eth, tx)
	if waitErr != nil {
		c.logger.Warn("issuance transaction not mined within wait window",
			"tx_hash", tx.Hash().Hex(), "wait", c.miningWait)
		err = classify(waitErr, "waiting for issuance transaction to mine")
		return IssueReceipt{TxHash: tx.Hash().Hex()}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		err = dErrors.New(dErrors.CodeLedgerReverted, "issuance transaction reverted")
		return IssueReceipt{TxHash: tx.Hash().Hex()}, err
	}

	tokenID, parseErr := c.tokenIDFromLogs(receipt.Logs)
	if parseErr != nil {
		err = dErrors.Wrap(parseErr, dErrors.CodeInternal, "issuance mined but token ID missing from logs")
		return IssueReceipt{TxHash: tx.Hash().Hex()}, err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrTokenID, tokenID))

	return IssueReceipt{TokenID: tokenID, TxHash: tx.Hash().Hex()}, nil
}

// RevokeCertificate marks the token revoked on the contract.
func (c *EVMClient) RevokeCertificate(ctx context.Context, tokenID int64, reason string) (string, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLedgerRevoke, tracer.Int64(tracer.AttrTokenID, tokenID))
	var err error
	defer func() { span.End(err) }()

	var tx *types.Transaction
	err = c.signer.transact(ctx, func(opts *bind.TransactOpts) error {
		var txErr error
		tx, txErr = c.contract.Transact(opts, "revokeCertificate", big.NewInt(tokenID), reason)
		return txErr
	})
	if err != nil {
		err = classify(err, "submit revocation transaction")
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.miningWait)
	defer cancel()
	receipt, waitErr := bind.WaitMined(waitCtx, c.eth, tx)
	if waitErr != nil {
		err = classify(waitErr, "waiting for revocation transaction to mine")
		return tx.Hash().Hex(), err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		err = dErrors.New(dErrors.CodeLedgerReverted, "revocation transaction reverted")
		return tx.Hash().Hex(), err
	}
	return tx.Hash().Hex(), nil
}

// VerifyCertificate asks the contract whether the token exists, is valid, and
// whether it has been revoked.
func (c *EVMClient) VerifyCertificate(ctx context.Context, tokenID int64) (VerifyStatus, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLedgerVerify, tracer.Int64(tracer.AttrTokenID, tokenID))
	var err error
	defer func() { span.End(err) }()

	var out []any
	err = c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "verifyCertificate", big.NewInt(tokenID))
	if err != nil {
		err = classify(err, "verify certificate on ledger")
		return VerifyStatus{}, err
	}
	return VerifyStatus{
		Exists:  out[0].(bool),
		Valid:   out[1].(bool),
		Revoked: out[2].(bool),
	}, nil
}

// GetCertificate reads the full on-ledger record for the token.
func (c *EVMClient) GetCertificate(ctx context.Context, tokenID int64) (Certificate, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLedgerGet, tracer.Int64(tracer.AttrTokenID, tokenID))
	var err error
	defer func() { span.End(err) }()

	var out []any
	err = c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCertificate", big.NewInt(tokenID))
	if err != nil {
		classified := classify(err, "read certificate from ledger")
		// The getter reverts for unknown tokens.
		if dErrors.HasCode(classified, dErrors.CodeLedgerReverted) {
			err = dErrors.New(dErrors.CodeNotFound, "certificate not found on ledger")
		} else {
			err = classified
		}
		return Certificate{}, err
	}

	cert := Certificate{
		TokenID:       tokenID,
		StudentWallet: out[0].(common.Address).Hex(),
		StudentName:   out[1].(string),
		StudentID:     out[2].(string),
		CourseName:    out[3].(string),
		CourseID:      out[4].(string),
		ProjectsHash:  canonical.Commitment(out[5].([32]byte)),
		ContentURI:    out[6].(string),
		IssuedAt:      time.Unix(out[7].(*big.Int).Int64(), 0).UTC(),
		Revoked:       out[9].(bool),
	}
	if expiry := out[8].(*big.Int).Int64(); expiry > 0 {
		t := time.Unix(expiry, 0).UTC()
		cert.ExpiresAt = &t
	}
	return cert, nil
}

// VerifyProjects checks a locally recomputed commitment against the one
// anchored for the token.
func (c *EVMClient) VerifyProjects(ctx context.Context, tokenID int64, hash canonical.Commitment) (bool, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLedgerProjects, tracer.Int64(tracer.AttrTokenID, tokenID))
	var err error
	defer func() { span.End(err) }()

	var out []any
	err = c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "verifyProjects", big.NewInt(tokenID), [32]byte(hash))
	if err != nil {
		err = classify(err, "verify project commitment on ledger")
		return false, err
	}
	return out[0].(bool), nil
}

// StudentCertificates lists token IDs held by a wallet.
func (c *EVMClient) StudentCertificates(ctx context.Context, wallet string) ([]int64, error) {
	if !common.IsHexAddress(wallet) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student wallet is not a valid address")
	}

	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getStudentCertificates", common.HexToAddress(wallet))
	if err != nil {
		return nil, classify(err, "list student certificates on ledger")
	}
	return toTokenIDs(out[0].([]*big.Int)), nil
}

// CourseCertificates lists token IDs issued for a course.
func (c *EVMClient) CourseCertificates(ctx context.Context, courseID id.CourseID) ([]int64, error) {
	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCourseCertificates", courseID.String())
	if err != nil {
		return nil, classify(err, "list course certificates on ledger")
	}
	return toTokenIDs(out[0].([]*big.Int)), nil
}

// TransactionOutcome checks whether a previously submitted transaction has
// mined, and with what result. An unmined transaction is not an error.
func (c *EVMClient) TransactionOutcome(ctx context.Context, txHash string) (TxOutcome, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return TxOutcome{Mined: false}, nil
		}
		return TxOutcome{}, classify(err, "fetch transaction receipt")
	}

	out := TxOutcome{Mined: true, Success: receipt.Status == types.ReceiptStatusSuccessful}
	if out.Success {
		tokenID, parseErr := c.tokenIDFromLogs(receipt.Logs)
		if parseErr != nil {
			// A successful issuance receipt without the event means the ABI and
			// the deployed contract disagree. Promoting the record with a zero
			// token ID would poison the mirror, so surface it.
			return TxOutcome{}, dErrors.Wrap(parseErr, dErrors.CodeInternal, "mined receipt is missing the issuance event")
		}
		out.TokenID = tokenID
	}
	return out, nil
}

// Health reports whether the node answers.
func (c *EVMClient) Health(ctx context.Context) error {
	if _, err := c.eth.BlockNumber(ctx); err != nil {
		return fmt.Errorf("ledger node unreachable: %w", err)
	}
	return nil
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	c.eth.Close()
}

// tokenIDFromLogs extracts the minted token ID from the CertificateIssued
// event. The token ID is the first indexed topic.
func (c *EVMClient) tokenIDFromLogs(logs []*types.Log) (int64, error) {
	issuedID := c.abi.Events[eventCertificateIssued].ID
	for _, lg := range logs {
		if len(lg.Topics) >= 2 && lg.Topics[0] == issuedID {
			return new(big.Int).SetBytes(lg.Topics[1].Bytes()).Int64(), nil
		}
	}
	return 0, fmt.Errorf("no %s event in receipt logs", eventCertificateIssued)
}

func toTokenIDs(raw []*big.Int) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, v.Int64())
	}
	return ids
}

var _ Client = (*EVMClient)(nil)
