package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/domain"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/intent"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/ledger"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/pkg/pda"
)

// Issuance owns the mint-units protocol. Addresses re-derive from the agent
// id, so minting does not require the off-chain record to exist; if the
// record is momentarily missing the append fails and reconciliation catches
// up later. That is a policy choice, not an oversight.
type Issuance struct {
	idx       Index
	ledger    ledger.Client
	programID solana.PublicKey
	payer     solana.PublicKey
	log       *slog.Logger
}

func NewIssuance(idx Index, lc ledger.Client, programID, payer solana.PublicKey, log *slog.Logger) *Issuance {
	return &Issuance{idx: idx, ledger: lc, programID: programID, payer: payer, log: log}
}

// MintRequest carries the human-unit amount as a decimal string; scaling to
// base units happens only after decimals are resolved from the ledger.
type MintRequest struct {
	AgentID   string
	Amount    string
	Recipient string
}

// MintResult reports a successful issuance.
type MintResult struct {
	AgentID    string
	TxID       string
	AmountBase uint64
	Decimals   uint8
	Recipient  string
}

// MintUnits runs the protocol: validate, re-derive, resolve decimals from
// the ledger, submit, append the issuance event. All input checks precede
// the first network call.
func (s *Issuance) MintUnits(ctx context.Context, req MintRequest) (MintResult, error) {
	if req.AgentID == "" {
		return MintResult{}, domain.NewRejectedInput("agentId is required")
	}
	if len(req.AgentID) > domain.MaxAgentIDLen {
		return MintResult{}, domain.NewRejectedInput("agentId exceeds %d bytes", domain.MaxAgentIDLen)
	}
	if err := intent.CheckAmount(req.Amount); err != nil {
		return MintResult{}, domain.NewRejectedInput("%v", err)
	}
	recipient, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		return MintResult{}, domain.NewRejectedInput("invalid recipient address: %v", err)
	}

	derived, err := pda.ForAgent(s.programID, req.AgentID)
	if err != nil {
		return MintResult{}, domain.NewRejectedInput("derive addresses for %q: %v", req.AgentID, err)
	}

	decimals, err := s.ledger.MintDecimals(ctx, derived.Mint)
	if err != nil {
		return MintResult{}, domain.NewDecimalsUnresolvable(derived.Mint.String(), err)
	}
	amountBase, err := intent.ScaleAmount(req.Amount, decimals)
	if err != nil {
		return MintResult{}, domain.NewRejectedInput("%v", err)
	}

	in, err := intent.BuildMint(intent.MintParams{
		ProgramID: s.programID,
		Payer:     s.payer,
		AgentID:   req.AgentID,
		Amount:    amountBase,
		Recipient: recipient,
		Derived:   derived,
	})
	if err != nil {
		return MintResult{}, domain.NewRejectedInput("%v", err)
	}

	txID, err := s.ledger.Execute(ctx, in)
	if err != nil {
		return MintResult{}, domain.NewLedgerFailed(err)
	}

	ev := domain.IssuanceEvent{
		TxID:      txID,
		AgentID:   req.AgentID,
		Amount:    amountBase,
		Recipient: req.Recipient,
		Timestamp: time.Now().UTC(),
	}
	if _, err := s.idx.AppendIssuance(ctx, ev); err != nil {
		// The mint is on chain and must not be resubmitted. Park the event
		// for the reconciler; enqueue failure is logged, never masks the
		// original error.
		if qErr := s.idx.EnqueueMintRepair(ctx, ev); qErr != nil {
			s.log.Error("failed to enqueue mint repair",
				"agent_id", req.AgentID, "tx_id", txID, "error", qErr)
		}
		s.log.Error("units minted on ledger but event append failed",
			"agent_id", req.AgentID, "tx_id", txID, "error", err)
		return MintResult{}, domain.NewEventAppendFailed(txID, err)
	}

	s.log.Info("units minted", "agent_id", req.AgentID, "tx_id", txID,
		"amount_base", amountBase, "recipient", req.Recipient)
	return MintResult{
		AgentID:    req.AgentID,
		TxID:       txID,
		AmountBase: amountBase,
		Decimals:   decimals,
		Recipient:  req.Recipient,
	}, nil
}
