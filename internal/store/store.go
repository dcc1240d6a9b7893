// Package store is the off-chain agent index on Postgres. Uniqueness of
// agent ids and issuance tx ids is enforced by the schema, which is what
// makes repairs idempotent across concurrent service instances.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/domain"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// InsertAgent inserts the record unless the agent id is already taken.
// Reports whether this call inserted the row, so a lost race after a
// successful ledger submission is distinguishable from plain success.
func (s *Store) InsertAgent(ctx context.Context, a domain.Agent) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
INSERT INTO agents(agent_id,name,symbol,uri,decimals,mint_address,agent_account_address,metadata_address,creation_tx_id,creator_wallet,total_issued)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0)
ON CONFLICT (agent_id) DO NOTHING
`, a.AgentID, a.Name, a.Symbol, a.URI, int16(a.Decimals), a.MintAddress, a.AgentAccountAddress, a.MetadataAddress, a.CreationTxID, a.CreatorWallet)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FindAgent loads one agent with its full issuance history.
func (s *Store) FindAgent(ctx context.Context, agentID string) (domain.Agent, error) {
	var a domain.Agent
	var decimals int16
	var totalIssued int64
	err := s.DB.QueryRow(ctx, `
SELECT agent_id,name,symbol,uri,decimals,mint_address,agent_account_address,metadata_address,creation_tx_id,creator_wallet,total_issued,created_at
FROM agents WHERE agent_id=$1
`, agentID).Scan(&a.AgentID, &a.Name, &a.Symbol, &a.URI, &decimals, &a.MintAddress, &a.AgentAccountAddress, &a.MetadataAddress, &a.CreationTxID, &a.CreatorWallet, &totalIssued, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Agent{}, domain.NewNotFound(agentID)
		}
		return domain.Agent{}, err
	}
	a.Decimals = uint8(decimals)
	a.TotalIssued = uint64(totalIssued)

	rows, err := s.DB.Query(ctx, `
SELECT tx_id,agent_id,amount,recipient,created_at
FROM issuance_events WHERE agent_id=$1 ORDER BY created_at, tx_id
`, agentID)
	if err != nil {
		return domain.Agent{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ev domain.IssuanceEvent
		var amount int64
		if err := rows.Scan(&ev.TxID, &ev.AgentID, &amount, &ev.Recipient, &ev.Timestamp); err != nil {
			return domain.Agent{}, err
		}
		ev.Amount = uint64(amount)
		a.IssuanceHistory = append(a.IssuanceHistory, ev)
	}
	return a, rows.Err()
}

// AppendIssuance records a mint and bumps the accumulator in one
// transaction. The tx id is the idempotency key: replaying an already
// recorded event is a no-op with inserted=false.
func (s *Store) AppendIssuance(ctx context.Context, ev domain.IssuanceEvent) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
INSERT INTO issuance_events(tx_id,agent_id,amount,recipient)
VALUES($1,$2,$3,$4)
ON CONFLICT (tx_id) DO NOTHING
`, ev.TxID, ev.AgentID, int64(ev.Amount), ev.Recipient)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	tag, err = tx.Exec(ctx, `
UPDATE agents SET total_issued = total_issued + $1 WHERE agent_id=$2
`, int64(ev.Amount), ev.AgentID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, domain.NewNotFound(ev.AgentID)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListAgents returns a page of agents, newest first, without histories.
func (s *Store) ListAgents(ctx context.Context, limit, offset int) ([]domain.Agent, error) {
	rows, err := s.DB.Query(ctx, `
SELECT agent_id,name,symbol,uri,decimals,mint_address,agent_account_address,metadata_address,creation_tx_id,creator_wallet,total_issued,created_at
FROM agents ORDER BY created_at DESC LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]domain.Agent, 0, limit)
	for rows.Next() {
		var a domain.Agent
		var decimals int16
		var totalIssued int64
		if err := rows.Scan(&a.AgentID, &a.Name, &a.Symbol, &a.URI, &decimals, &a.MintAddress, &a.AgentAccountAddress, &a.MetadataAddress, &a.CreationTxID, &a.CreatorWallet, &totalIssued, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Decimals = uint8(decimals)
		a.TotalIssued = uint64(totalIssued)
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *Store) CountAgents(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT count(*) FROM agents`).Scan(&n)
	return n, err
}

// EnqueueMintRepair parks an issuance whose event append failed so the
// reconciler can retry it out of band.
func (s *Store) EnqueueMintRepair(ctx context.Context, ev domain.IssuanceEvent) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO mint_repairs(tx_id,agent_id,amount,recipient)
VALUES($1,$2,$3,$4)
ON CONFLICT (tx_id) DO NOTHING
`, ev.TxID, ev.AgentID, int64(ev.Amount), ev.Recipient)
	return err
}

func (s *Store) PendingMintRepairs(ctx context.Context, limit int) ([]domain.IssuanceEvent, error) {
	rows, err := s.DB.Query(ctx, `
SELECT tx_id,agent_id,amount,recipient,queued_at
FROM mint_repairs ORDER BY queued_at LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []domain.IssuanceEvent
	for rows.Next() {
		var ev domain.IssuanceEvent
		var amount int64
		if err := rows.Scan(&ev.TxID, &ev.AgentID, &amount, &ev.Recipient, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Amount = uint64(amount)
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}

func (s *Store) DeleteMintRepair(ctx context.Context, txID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM mint_repairs WHERE tx_id=$1`, txID)
	return err
}

// Get returns a stored response for a repeated Idempotency-Key, so
// client-side timeout retries cannot double-submit a ledger transaction.
func (s *Store) Get(ctx context.Context, scope, key, endpoint string) (int, []byte, bool, error) {
	var status int
	var body []byte
	err := s.DB.QueryRow(ctx, `
SELECT response_status,response_body
FROM idempotency_records
WHERE scope=$1 AND idempotency_key=$2 AND endpoint=$3
`, scope, key, endpoint).Scan(&status, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, false, nil
		}
		return 0, nil, false, err
	}
	return status, body, true, nil
}

// Save stores a terminal response for replay. First writer wins.
func (s *Store) Save(ctx context.Context, scope, key, endpoint string, status int, body []byte) error {
	if key == "" {
		return fmt.Errorf("idempotency key is required")
	}
	_, err := s.DB.Exec(ctx, `
INSERT INTO idempotency_records(scope,idempotency_key,endpoint,response_status,response_body)
VALUES($1,$2,$3,$4,$5::jsonb)
ON CONFLICT (scope,idempotency_key,endpoint) DO NOTHING
`, scope, key, endpoint, status, string(body))
	return err
}
