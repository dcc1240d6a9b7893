package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/intent"
)

// RPCClient submits transactions through a Solana JSON-RPC endpoint, signing
// with the service wallet. One instance is shared process-wide.
type RPCClient struct {
	rpc    *rpc.Client
	wallet solana.PrivateKey
}

func NewRPC(endpoint string, wallet solana.PrivateKey) *RPCClient {
	return &RPCClient{rpc: rpc.New(endpoint), wallet: wallet}
}

// Payer is the wallet public key used to fund transactions.
func (c *RPCClient) Payer() solana.PublicKey { return c.wallet.PublicKey() }

func (c *RPCClient) Execute(ctx context.Context, in intent.Intent) (string, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{in.Instruction()},
		recent.Value.Blockhash,
		solana.TransactionPayer(c.wallet.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.wallet.PublicKey()) {
			return &c.wallet
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return sig.String(), nil
}

func (c *RPCClient) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	supply, err := c.rpc.GetTokenSupply(ctx, mint, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("get token supply for %s: %w", mint, err)
	}
	if supply == nil || supply.Value == nil {
		return 0, fmt.Errorf("empty token supply response for %s", mint)
	}
	return supply.Value.Decimals, nil
}
