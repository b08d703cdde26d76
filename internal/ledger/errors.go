package ledger

import (
	"context"
	"errors"
	"net"
	"strings"

	dErrors "coursecert/pkg/domain-errors"
)

// revertedMarkers appear in node error strings for transactions the contract
// itself rejected. These are terminal: resubmitting the same transaction will
// revert again.
var revertedMarkers = []string{
	"execution reverted",
	"always failing transaction",
	"gas required exceeds allowance",
}

// unauthorizedMarkers come from the contract's access control. The signing key
// is not the contract owner; retrying cannot help.
var unauthorizedMarkers = []string{
	"caller is not the owner",
	"ownable",
	"not authorized",
}

// fundsMarkers mean the signing wallet cannot pay for the transaction. This is
// terminal until an operator funds the wallet; retrying only burns requests.
var fundsMarkers = []string{
	"insufficient funds",
	"insufficient balance",
}

// transientMarkers cover node-side conditions that clear on their own.
var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"timed out",
	"too many requests",
	"nonce too low",
	"replacement transaction underpriced",
	"transaction underpriced",
}

// classify maps a raw node error onto the domain error taxonomy. Callers use
// the resulting code to decide between retrying, recording a pending
// transaction, and failing permanently.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}

	lower := strings.ToLower(err.Error())
	for _, marker := range unauthorizedMarkers {
		if strings.Contains(lower, marker) {
			return dErrors.Wrap(err, dErrors.CodeLedgerUnauthorized, msg)
		}
	}
	for _, marker := range revertedMarkers {
		if strings.Contains(lower, marker) {
			return dErrors.Wrap(err, dErrors.CodeLedgerReverted, msg)
		}
	}
	for _, marker := range fundsMarkers {
		if strings.Contains(lower, marker) {
			return dErrors.Wrap(err, dErrors.CodeLedgerFunds, msg)
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return dErrors.Wrap(err, dErrors.CodeLedgerTransient, msg)
		}
	}

	// Unknown node errors default to transient so the reconciler gets a chance
	// to resolve them rather than marking the issuance failed outright.
	return dErrors.Wrap(err, dErrors.CodeLedgerTransient, msg)
}
