// Package ledger is the boundary to the Solana RPC endpoint. The chain is
// treated as an opaque executor: submit a signed transaction, get back a
// signature, nothing else.
package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/intent"
)

// Client executes intents against the ledger. Execution is at most once per
// call; callers must never resubmit after an ambiguous failure.
type Client interface {
	// Execute signs and submits the intent, returning the transaction
	// signature.
	Execute(ctx context.Context, in intent.Intent) (string, error)
	// MintDecimals reads the declared precision of a mint. The ledger is
	// authoritative for decimals; the off-chain record is not consulted.
	MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}
