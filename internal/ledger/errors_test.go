package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "coursecert/pkg/domain-errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want dErrors.Code
	}{
		{
			name: "deadline exceeded is timeout",
			err:  context.DeadlineExceeded,
			want: dErrors.CodeTimeout,
		},
		{
			name: "execution reverted is terminal",
			err:  errors.New("execution reverted: certificate already issued"),
			want: dErrors.CodeLedgerReverted,
		},
		{
			name: "access control revert is unauthorized",
			err:  errors.New("execution reverted: Ownable: caller is not the owner"),
			want: dErrors.CodeLedgerUnauthorized,
		},
		{
			name: "connection refused is transient",
			err:  errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"),
			want: dErrors.CodeLedgerTransient,
		},
		{
			name: "nonce race is transient",
			err:  errors.New("nonce too low"),
			want: dErrors.CodeLedgerTransient,
		},
		{
			name: "unfunded wallet is terminal",
			err:  errors.New("insufficient funds for gas * price + value"),
			want: dErrors.CodeLedgerFunds,
		},
		{
			name: "unknown node errors default transient",
			err:  errors.New("something unexpected from the node"),
			want: dErrors.CodeLedgerTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "op failed")
			assert.True(t, dErrors.HasCode(got, tt.want), "got %v, want code %s", got, tt.want)
		})
	}
}

func TestClassifyNilPassesThrough(t *testing.T) {
	assert.NoError(t, classify(nil, "op"))
}

func TestRetryabilityFollowsClassification(t *testing.T) {
	transient := classify(errors.New("connection reset by peer"), "op")
	reverted := classify(errors.New("execution reverted"), "op")
	unfunded := classify(errors.New("insufficient funds for transfer"), "op")

	assert.True(t, dErrors.IsRetryable(transient))
	assert.False(t, dErrors.IsRetryable(reverted), "reverted transactions must never be retried")
	assert.False(t, dErrors.IsRetryable(unfunded), "an unfunded wallet cannot be retried into solvency")
}
