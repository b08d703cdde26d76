package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesOriginalCode(t *testing.T) {
	inner := New(CodeLedgerReverted, "execution reverted")
	wrapped := Wrap(inner, CodeInternal, "issuance failed")

	assert.True(t, HasCode(wrapped, CodeLedgerReverted))
	assert.False(t, HasCode(wrapped, CodeInternal))
	assert.Equal(t, "issuance failed", wrapped.Error())
}

func TestWrapForeignError(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	wrapped := Wrap(inner, CodeLedgerTransient, "ledger unreachable")

	assert.True(t, HasCode(wrapped, CodeLedgerTransient))
	assert.ErrorIs(t, wrapped, inner)
}

func TestDetailsRoundTrip(t *testing.T) {
	err := NewWithDetails(CodeIneligible, "missing required projects", []string{"Capstone", "Final Exam"})

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"Capstone", "Final Exam"}, Details(err))

	wrapped := Wrap(err, CodeInternal, "eligibility check failed")
	assert.Equal(t, []string{"Capstone", "Final Exam"}, Details(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeLedgerTransient, "timeout awaiting receipt")))
	assert.True(t, IsRetryable(New(CodeTimeout, "deadline exceeded")))
	assert.False(t, IsRetryable(New(CodeLedgerReverted, "execution reverted")))
	assert.False(t, IsRetryable(New(CodeLedgerUnauthorized, "not contract owner")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}
