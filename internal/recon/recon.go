// Package recon repairs the off-chain index after a ledger mutation
// committed but the matching index write did not. Repairs are idempotent:
// agent ids and tx ids are unique keys, so re-running a repair never
// duplicates state and never touches the ledger.
package recon

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/domain"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/registry"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/pkg/pda"
)

// Index is the store slice the reconciler drives.
type Index interface {
	InsertAgent(ctx context.Context, a domain.Agent) (bool, error)
	AppendIssuance(ctx context.Context, ev domain.IssuanceEvent) (bool, error)
	PendingMintRepairs(ctx context.Context, limit int) ([]domain.IssuanceEvent, error)
	DeleteMintRepair(ctx context.Context, txID string) error
}

const drainBatch = 50

type Reconciler struct {
	idx       Index
	programID solana.PublicKey
	payer     solana.PublicKey
	log       *slog.Logger
}

func New(idx Index, programID, payer solana.PublicKey, log *slog.Logger) *Reconciler {
	return &Reconciler{idx: idx, programID: programID, payer: payer, log: log}
}

// RepairCreate re-attempts the index insert for an agent whose creation
// transaction already committed. Addresses re-derive from the id, so the
// operator only supplies the original request plus the tx id.
func (r *Reconciler) RepairCreate(ctx context.Context, req registry.CreateRequest, txID string) (domain.Agent, error) {
	derived, err := pda.ForAgent(r.programID, req.AgentID)
	if err != nil {
		return domain.Agent{}, domain.NewRejectedInput("derive addresses for %q: %v", req.AgentID, err)
	}
	decimals := domain.DefaultDecimals
	if req.Decimals != nil {
		decimals = *req.Decimals
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
		return domain.Agent{}, err
	}
	if inserted {
		r.log.Info("repaired agent record", "agent_id", req.AgentID, "tx_id", txID)
	}
	return agent, nil
}

// RepairMint re-attempts an issuance append keyed by its tx id. Reports
// whether this call recorded the event; false means it was already there.
func (r *Reconciler) RepairMint(ctx context.Context, ev domain.IssuanceEvent) (bool, error) {
	inserted, err := r.idx.AppendIssuance(ctx, ev)
	if err != nil {
		return false, err
	}
	if err := r.idx.DeleteMintRepair(ctx, ev.TxID); err != nil {
		r.log.Warn("repaired mint but failed to clear queue entry", "tx_id", ev.TxID, "error", err)
	}
	if inserted {
		r.log.Info("repaired issuance event", "agent_id", ev.AgentID, "tx_id", ev.TxID)
	}
	return inserted, nil
}

// Run drains the repair queue on a fixed interval until the context is
// cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *Reconciler) drainOnce(ctx context.Context) {
	pending, err := r.idx.PendingMintRepairs(ctx, drainBatch)
	if err != nil {
		r.log.Error("failed to read repair queue", "error", err)
		return
	}
	for _, ev := range pending {
		if _, err := r.RepairMint(ctx, ev); err != nil {
			// Leave it queued; the agent record may not exist yet.
			r.log.Warn("mint repair still failing", "tx_id", ev.TxID, "error", err)
		}
	}
}
