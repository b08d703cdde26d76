package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"coursecert/internal/canonical"
	"coursecert/internal/platform/redis"
	"coursecert/internal/platform/tracer"
	id "coursecert/pkg/domain"
)

// CachedClient fronts ledger reads with a short-TTL redis cache. Ledger state
// changes only on issue and revoke, so a brief cache absorbs the bulk of
// public verification traffic without risking stale revocations for long.
// Writes pass through and invalidate the affected token.
type CachedClient struct {
	inner  Client
	rdb    *redis.Client
	ttl    time.Duration
	tracer tracer.Tracer
	logger *slog.Logger
}

// NewCached wraps a client with a redis read cache. When rdb is nil (cache not
// configured) the inner client is returned unwrapped.
func NewCached(inner Client, rdb *redis.Client, ttl time.Duration, logger *slog.Logger, tr tracer.Tracer) Client {
	if rdb == nil {
		return inner
	}
	if tr == nil {
		tr = tracer.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{inner: inner, rdb: rdb, ttl: ttl, tracer: tr, logger: logger}
}

func verifyKey(tokenID int64) string {
	return fmt.Sprintf("ledger:verify:%d", tokenID)
}

func certKey(tokenID int64) string {
	return fmt.Sprintf("ledger:cert:%d", tokenID)
}

// IssueCertificate passes through; a fresh token has no cache entries.
func (c *CachedClient) IssueCertificate(ctx context.Context, req IssueRequest) (IssueReceipt, error) {
	return c.inner.IssueCertificate(ctx, req)
}

// RevokeCertificate passes through and drops cached state for the token so the
// revocation is visible on the next read.
func (c *CachedClient) RevokeCertificate(ctx context.Context, tokenID int64, reason string) (string, error) {
	txHash, err := c.inner.RevokeCertificate(ctx, tokenID, reason)
	if err == nil {
		c.invalidate(ctx, tokenID)
	}
	return txHash, err
}

// VerifyCertificate serves from cache when possible.
func (c *CachedClient) VerifyCertificate(ctx context.Context, tokenID int64) (VerifyStatus, error) {
	key := verifyKey(tokenID)
	var cached VerifyStatus
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	status, err := c.inner.VerifyCertificate(ctx, tokenID)
	if err != nil {
		return VerifyStatus{}, err
	}
	c.store(ctx, key, status)
	return status, nil
}

// GetCertificate serves from cache when possible.
func (c *CachedClient) GetCertificate(ctx context.Context, tokenID int64) (Certificate, error) {
	key := certKey(tokenID)
	var cached Certificate
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	cert, err := c.inner.GetCertificate(ctx, tokenID)
	if err != nil {
		return Certificate{}, err
	}
	c.store(ctx, key, cert)
	return cert, nil
}

// VerifyProjects is a pure comparison against immutable anchored state; it is
// cheap enough to pass through uncached.
func (c *CachedClient) VerifyProjects(ctx context.Context, tokenID int64, hash canonical.Commitment) (bool, error) {
	return c.inner.VerifyProjects(ctx, tokenID, hash)
}

func (c *CachedClient) StudentCertificates(ctx context.Context, wallet string) ([]int64, error) {
	return c.inner.StudentCertificates(ctx, wallet)
}

func (c *CachedClient) CourseCertificates(ctx context.Context, courseID id.CourseID) ([]int64, error) {
	return c.inner.CourseCertificates(ctx, courseID)
}

func (c *CachedClient) TransactionOutcome(ctx context.Context, txHash string) (TxOutcome, error) {
	return c.inner.TransactionOutcome(ctx, txHash)
}

// lookup reports whether the key was served from cache. Cache errors degrade
// to a miss.
func (c *CachedClient) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn("ledger cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("ledger cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *CachedClient) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("ledger cache write failed", "key", key, "error", err)
	}
}

func (c *CachedClient) invalidate(ctx context.Context, tokenID int64) {
	if err := c.rdb.Del(ctx, verifyKey(tokenID), certKey(tokenID)).Err(); err != nil {
		c.logger.Warn("ledger cache invalidation failed", "token_id", tokenID, "error", err)
	}
}

var _ Client = (*CachedClient)(nil)
