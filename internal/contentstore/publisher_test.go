package contentstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecert/internal/metadata"
	"coursecert/internal/platform/config"
	dErrors "coursecert/pkg/domain-errors"
	"coursecert/pkg/platform/circuit"
)

func testConfig(apiURL string) config.ContentConfig {
	return config.ContentConfig{
		APIURL:     apiURL,
		GatewayURL: "https://gateway.test/ipfs",
		Timeout:    2 * time.Second,
	}
}

func TestPublishReturnsContentRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v0/add", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("cid-version"))
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Name": "certificate.json",
			"Hash": "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
			"Size": "512",
		})
	}))
	defer srv.Close()

	p := NewIPFS(testConfig(srv.URL))
	ref, err := p.Publish(context.Background(), metadata.Document{Name: "Go - Certificate of Completion"})
	require.NoError(t, err)

	assert.Equal(t, "ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", ref.URI)
	assert.Equal(t, "https://gateway.test/ipfs/bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", ref.GatewayURL)
}

func TestPublishUnreachableStoreIsContentPublishError(t *testing.T) {
	p := NewIPFS(testConfig("http://127.0.0.1:1"))

	_, err := p.Publish(context.Background(), metadata.Document{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeContentPublish))
}

func TestPublishServerErrorIsContentPublishError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewIPFS(testConfig(srv.URL))
	_, err := p.Publish(context.Background(), metadata.Document{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeContentPublish))
}

func TestPublishOpenBreakerShortCircuits(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	frozen := time.Now()
	p := NewIPFS(testConfig(srv.URL), WithBreaker(circuit.New("ipfs",
		circuit.WithFailureThreshold(1),
		circuit.WithProbeInterval(time.Hour),
		circuit.WithClock(func() time.Time { return frozen }),
	)))

	// First call fails and opens the breaker; the second is the single allowed
	// probe. After that, calls are rejected without reaching the store.
	_, err := p.Publish(context.Background(), metadata.Document{})
	require.Error(t, err)
	_, err = p.Publish(context.Background(), metadata.Document{})
	require.Error(t, err)
	callsAfterProbe := calls

	_, err = p.Publish(context.Background(), metadata.Document{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeContentPublish))
	assert.Equal(t, callsAfterProbe, calls, "open breaker must not reach the store")
}

func TestGatewayURLTranslation(t *testing.T) {
	p := NewIPFS(testConfig("http://localhost:5001"))
	assert.Equal(t, "https://gateway.test/ipfs/abc123", p.GatewayURL("ipfs://abc123"))
}
