// Package registry orchestrates agent creation and unit issuance across the
// ledger and the off-chain index. The ordering contract is fixed: the ledger
// submission always happens before the index write, so the index can lag
// behind the chain but never reference a transaction that does not exist.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/domain"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/intent"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/ledger"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/pkg/pda"
)

// Index is the slice of the off-chain store the orchestrators need.
// Uniqueness and atomicity are the store's responsibility, which keeps the
// request path free of in-process locks.
type Index interface {
	InsertAgent(ctx context.Context, a domain.Agent) (inserted bool, err error)
	FindAgent(ctx context.Context, agentID string) (domain.Agent, error)
	AppendIssuance(ctx context.Context, ev domain.IssuanceEvent) (inserted bool, err error)
	EnqueueMintRepair(ctx context.Context, ev domain.IssuanceEvent) error
}

// Registry owns the create-agent protocol.
type Registry struct {
	idx       Index
	ledger    ledger.Client
	programID solana.PublicKey
	payer     solana.PublicKey
	log       *slog.Logger
}

func New(idx Index, lc ledger.Client, programID, payer solana.PublicKey, log *slog.Logger) *Registry {
	return &Registry{idx: idx, ledger: lc, programID: programID, payer: payer, log: log}
}

// CreateRequest is a create-agent call after JSON decoding, before
// validation.
type CreateRequest struct {
	AgentID  string
	Name     string
	Symbol   string
	URI      string
	Decimals *uint8
}

// CreateAgent runs the protocol: validate, derive, duplicate-check, submit,
// index. A failure after ledger success surfaces with the tx id attached so
// the insert can be repaired without a second submission.
func (r *Registry) CreateAgent(ctx context.Context, req CreateRequest) (domain.Agent, error) {
	if err := validateCreate(req); err != nil {
		return domain.Agent{}, err
	}
	decimals := domain.DefaultDecimals
	if req.Decimals != nil {
		decimals = *req.Decimals
	}

	derived, err := pda.ForAgent(r.programID, req.AgentID)
	if err != nil {
		return domain.Agent{}, domain.NewRejectedInput("derive addresses for %q: %v", req.AgentID, err)
	}

	// Cheap pre-check only; the unique constraint below is the real guard.
	if _, err := r.idx.FindAgent(ctx, req.AgentID); err == nil {
		return domain.Agent{}, domain.NewConflict(req.AgentID)
	} else if !domain.IsKind(err, domain.KindNotFound) {
		return domain.Agent{}, fmt.Errorf("duplicate pre-check for %q: %w", req.AgentID, err)
	}

	in, err := intent.BuildCreate(intent.CreateParams{
		ProgramID: r.programID,
		Payer:     r.payer,
		AgentID:   req.AgentID,
		Name:      req.Name,
		Symbol:    req.Symbol,
		URI:       req.URI,
		Derived:   derived,
	})
	if err != nil {
		return domain.Agent{}, domain.NewRejectedInput("%v", err)
	}

	txID, err := r.ledger.Execute(ctx, in)
	if err != nil {
		// Nothing was persisted anywhere; plain failure.
		return domain.Agent{}, domain.NewLedgerFailed(err)
	}

	agent := domain.Agent{
		AgentID:             req.AgentID,
		Name:                req.Name,
		Symbol:              req.Symbol,
		URI:                 req.URI,
		Decimals:            decimals,
		MintAddress:         derived.Mint.String(),
		AgentAccountAddress: derived.AgentAccount.String(),
		MetadataAddress:     derived.Metadata.String(),
		CreationTxID:        txID,
		CreatorWallet:       r.payer.String(),
		CreatedAt:           time.Now().UTC(),
	}
	inserted, err := r.idx.InsertAgent(ctx, agent)
	if err != nil {
		r.log.Error("agent created on ledger but index insert failed",
			"agent_id", req.AgentID, "tx_id", txID, "error", err)
		return domain.Agent{}, domain.NewIndexFailed(txID, err)
	}
	if !inserted {
		// A concurrent create won the insert race after our pre-check.
		r.log.Warn("concurrent agent insert won the race",
			"agent_id", req.AgentID, "tx_id", txID)
		return domain.Agent{}, domain.NewIndexFailed(txID, fmt.Errorf("agent %q inserted concurrently", req.AgentID))
	}

	r.log.Info("agent created", "agent_id", req.AgentID, "tx_id", txID, "mint", agent.MintAddress)
	return agent, nil
}

func validateCreate(req CreateRequest) error {
	if req.AgentID == "" {
		return domain.NewRejectedInput("agentId is required")
	}
	if len(req.AgentID) > domain.MaxAgentIDLen {
		return domain.NewRejectedInput("agentId exceeds %d bytes", domain.MaxAgentIDLen)
	}
	if req.Name == "" || req.Symbol == "" || req.URI == "" {
		return domain.NewRejectedInput("name, symbol and uri are required")
	}
	return nil
}
