// Package contentstore publishes certificate documents to a content-addressable
// network (IPFS). Publication must complete and be confirmed before any ledger
// write references the returned URI: a ledger record pointing at non-existent
// content is a permanent dangling reference.
package contentstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"

	"coursecert/internal/metadata"
	"coursecert/internal/platform/config"
	"coursecert/internal/platform/tracer"
	dErrors "coursecert/pkg/domain-errors"
	"coursecert/pkg/platform/circuit"
)

// ContentRef identifies a published document.
type ContentRef struct {
	// CID is the content identifier (the hash of the document bytes).
	CID string
	// URI is the canonical ipfs:// URI recorded on the ledger.
	URI string
	// GatewayURL is the HTTP gateway translation for display.
	GatewayURL string
}

// Publisher persists certificate documents to the content-addressable store.
type Publisher interface {
	Publish(ctx context.Context, doc metadata.Document) (ContentRef, error)
}

// addResponse is the IPFS /api/v0/add response body.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// IPFSPublisher publishes documents through the IPFS HTTP API.
type IPFSPublisher struct {
	client     *resty.Client
	gatewayURL string
	breaker    *circuit.Breaker
	tracer     tracer.Tracer
	logger     *slog.Logger
}

// Option configures the IPFS publisher.
type Option func(*IPFSPublisher)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *IPFSPublisher) { p.logger = logger }
}

// WithTracer configures a tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(p *IPFSPublisher) { p.tracer = t }
}

// WithBreaker overrides the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *IPFSPublisher) { p.breaker = b }
}

// NewIPFS creates a publisher against an IPFS node HTTP API.
func NewIPFS(cfg config.ContentConfig, opts ...Option) *IPFSPublisher {
	p := &IPFSPublisher{
		client: resty.New().
			SetBaseURL(cfg.APIURL).
			SetTimeout(cfg.Timeout),
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		breaker:    circuit.New("ipfs"),
		tracer:     tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish adds the encoded document to IPFS with pinning and CIDv1 addressing.
// The returned CID is the hash of the document's own bytes, distinct from the
// submission-set commitment hash.
func (p *IPFSPublisher) Publish(ctx context.Context, doc metadata.Document) (ContentRef, error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanContentPublish)
	var err error
	defer func() { span.End(err) }()

	if !p.breaker.Allow() {
		err = dErrors.New(dErrors.CodeContentPublish, "content store circuit open")
		return ContentRef{}, err
	}

	raw, encodeErr := doc.Encode()
	if encodeErr != nil {
		err = dErrors.Wrap(encodeErr, dErrors.CodeInternal, "failed to encode certificate document")
		return ContentRef{}, err
	}

	var out addResponse
	resp, callErr := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"cid-version": "1",
			"pin":         "true",
		}).
		SetFileReader("file", "certificate.json", bytes.NewReader(raw)).
		SetResult(&out).
		Post("/api/v0/add")
	if callErr != nil {
		p.recordBreaker(p.breaker.RecordFailure())
		err = dErrors.Wrap(callErr, dErrors.CodeContentPublish, "content store unreachable")
		return ContentRef{}, err
	}
	if resp.IsError() {
		p.recordBreaker(p.breaker.RecordFailure())
		err = dErrors.New(dErrors.CodeContentPublish, fmt.Sprintf("content store returned status %d", resp.StatusCode()))
		return ContentRef{}, err
	}
	if out.Hash == "" {
		p.recordBreaker(p.breaker.RecordFailure())
		err = dErrors.New(dErrors.CodeContentPublish, "content store returned no content identifier")
		return ContentRef{}, err
	}
	p.recordBreaker(p.breaker.RecordSuccess())

	ref := ContentRef{
		CID:        out.Hash,
		URI:        "ipfs://" + out.Hash,
		GatewayURL: p.gatewayURL + "/" + out.Hash,
	}
	span.SetAttributes(tracer.String(tracer.AttrCID, ref.CID))
	return ref, nil
}

// GatewayURL translates a stored ipfs:// URI into an HTTP gateway URL for display.
func (p *IPFSPublisher) GatewayURL(uri string) string {
	return p.gatewayURL + "/" + strings.TrimPrefix(uri, "ipfs://")
}

// Health reports whether the IPFS API answers version requests.
func (p *IPFSPublisher) Health(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Post("/api/v0/version")
	if err != nil {
		return fmt.Errorf("ipfs api unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ipfs api returned status %d", resp.StatusCode())
	}
	return nil
}

func (p *IPFSPublisher) recordBreaker(change circuit.StateChange) {
	if p.logger == nil {
		return
	}
	switch {
	case change.Opened:
		p.logger.Warn("content store circuit opened", "breaker", p.breaker.Name())
	case change.Closed:
		p.logger.Info("content store circuit closed", "breaker", p.breaker.Name())
	}
}

var _ Publisher = (*IPFSPublisher)(nil)
