package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/domain"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/intent"
)

var (
	testProgramID = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	testPayer     = solana.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")
	testRecipient = "SysvarC1ock11111111111111111111111111111111"
)

type fakeIndex struct {
	agents      map[string]domain.Agent
	events      map[string]domain.IssuanceEvent
	repairs     map[string]domain.IssuanceEvent
	insertErr   error
	appendErr   error
	findErr     error
	enqueueErr  error
	insertCalls int
	appendCalls int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		agents:  map[string]domain.Agent{},
		events:  map[string]domain.IssuanceEvent{},
		repairs: map[string]domain.IssuanceEvent{},
	}
}

func (f *fakeIndex) InsertAgent(ctx context.Context, a domain.Agent) (bool, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if _, ok := f.agents[a.AgentID]; ok {
		return false, nil
	}
	f.agents[a.AgentID] = a
	return true, nil
}

func (f *fakeIndex) FindAgent(ctx context.Context, agentID string) (domain.Agent, error) {
	if f.findErr != nil {
		return domain.Agent{}, f.findErr
	}
	a, ok := f.agents[agentID]
	if !ok {
		return domain.Agent{}, domain.NewNotFound(agentID)
	}
	return a, nil
}

func (f *fakeIndex) AppendIssuance(ctx context.Context, ev domain.IssuanceEvent) (bool, error) {
	f.appendCalls++
	if f.appendErr != nil {
		return false, f.appendErr
	}
	if _, ok := f.events[ev.TxID]; ok {
		return false, nil
	}
	a, ok := f.agents[ev.AgentID]
	if !ok {
		return false, domain.NewNotFound(ev.AgentID)
	}
	f.events[ev.TxID] = ev
	a.TotalIssued += ev.Amount
	a.IssuanceHistory = append(a.IssuanceHistory, ev)
	f.agents[ev.AgentID] = a
	return true, nil
}

func (f *fakeIndex) EnqueueMintRepair(ctx context.Context, ev domain.IssuanceEvent) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.repairs[ev.TxID] = ev
	return nil
}

type fakeLedger struct {
	executeCalls  int
	decimalsCalls int
	executeErr    error
	decimalsErr   error
	decimals      uint8
	lastIntent    intent.Intent
}

func (f *fakeLedger) Execute(ctx context.Context, in intent.Intent) (string, error) {
	f.executeCalls++
	f.lastIntent = in
	if f.executeErr != nil {
		return "", f.executeErr
	}
	return fmt.Sprintf("sig-%d", f.executeCalls), nil
}

func (f *fakeLedger) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	f.decimalsCalls++
	if f.decimalsErr != nil {
		return 0, f.decimalsErr
	}
	return f.decimals, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func createReq() CreateRequest {
	return CreateRequest{AgentID: "a1", Name: "Agent One", Symbol: "A1", URI: "https://x/1.json"}
}

func TestCreateAgentHappyPath(t *testing.T) {
	idx := newFakeIndex()
	lc := &fakeLedger{decimals: 9}
	r := New(idx, lc, testProgramID, testPayer, discard())

	agent, err := r.CreateAgent(context.Background(), createReq())
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if agent.CreationTxID != "sig-1" {
		t.Fatalf("tx id = %q", agent.CreationTxID)
	}
	if agent.Decimals != 9 {
		t.Fatalf("expected default decimals 9, got %d", agent.Decimals)
	}
	if agent.MintAddress == "" || agent.AgentAccountAddress == "" || agent.MetadataAddress == "" {
		t.Fatalf("derived addresses missing: %+v", agent)
	}
	if _, ok := idx.agents["a1"]; !ok {
		t.Fatalf("agent not indexed")
	}
}

func TestCreateAgentConflictSkipsLedger(t *testing.T) {
	idx := newFakeIndex()
	idx.agents["a1"] = domain.Agent{AgentID: "a1"}
	lc := &fakeLedger{}
	r := New(idx, lc, testProgramID, testPayer, discard())

	_, err := r.CreateAgent(context.Background(), createReq())
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if lc.executeCalls != 0 {
		t.Fatalf("ledger must not be called on conflict")
	}
}

func TestCreateAgentLedgerFailureLeavesNoRecord(t *testing.T) {
	idx := newFakeIndex()
	lc := &fakeLedger{executeErr: errors.New("rpc timeout")}
	r := New(idx, lc, testProgramID, testPayer, discard())

	_, err := r.CreateAgent(context.Background(), createReq())
	if !domain.IsKind(err, domain.KindLedgerFailed) {
		t.Fatalf("expected LedgerFailed, got %v", err)
	}
	if idx.insertCalls != 0 || len(idx.agents) != 0 {
		t.Fatalf("no index write may happen after a ledger failure")
	}
}

func TestCreateAgentIndexFailureCarriesTxID(t *testing.T) {
	idx := newFakeIndex()
	idx.insertErr = errors.New("index unreachable")
	lc := &fakeLedger{}
	r := New(idx, lc, testProgramID, testPayer, discard())

	_, err := r.CreateAgent(context.Background(), createReq())
	if !domain.IsKind(err, domain.KindIndexFailed) {
		t.Fatalf("expected IndexFailed, got %v", err)
	}
	if domain.TxIDOf(err) != "sig-1" {
		t.Fatalf("error must carry the ledger tx id, got %q", domain.TxIDOf(err))
	}
}

func TestCreateAgentLostInsertRace(t *testing.T) {
	idx := newFakeIndex()
	lc := &fakeLedger{}
	r := New(idx, lc, testProgramID, testPayer, discard())

	// Simulate a concurrent create committing between pre-check and insert.
	idx.findErr = domain.NewNotFound("a1")
	idx.agents["a1"] = domain.Agent{AgentID: "a1"}

	_, err := r.CreateAgent(context.Background(), createReq())
	if !domain.IsKind(err, domain.KindIndexFailed) {
		t.Fatalf("expected IndexFailed, got %v", err)
	}
	if domain.TxIDOf(err) == "" {
		t.Fatalf("lost race must still expose the tx id")
	}
	if len(idx.agents) != 1 {
		t.Fatalf("index must hold exactly one record, got %d", len(idx.agents))
	}
}

func TestCreateAgentRejectsBadInput(t *testing.T) {
	idx := newFakeIndex()
	lc := &fakeLedger{}
	r := New(idx, lc, testProgramID, testPayer, discard())

	for name, req := range map[string]CreateRequest{
		"empty id":     {Name: "n", Symbol: "s", URI: "u"},
		"missing name": {AgentID: "a1", Symbol: "s", URI: "u"},
		"oversize id":  {AgentID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Name: "n", Symbol: "s", URI: "u"},
	} {
		_, err := r.CreateAgent(context.Background(), req)
		if !domain.IsKind(err, domain.KindRejectedInput) {
			t.Errorf("%s: expected RejectedInput, got %v", name, err)
		}
	}
	if lc.executeCalls != 0 {
		t.Fatalf("ledger must not be called for rejected input")
	}
}

func seedAgent(idx *fakeIndex) {
	idx.agents["a1"] = domain.Agent{AgentID: "a1", Decimals: 9}
}

func TestMintUnitsAccumulates(t *testing.T) {
	idx := newFakeIndex()
	seedAgent(idx)
	lc := &fakeLedger{decimals: 9}
	s := NewIssuance(idx, lc, testProgramID, testPayer, discard())

	for _, amount := range []string{"50", "25"} {
		if _, err := s.MintUnits(context.Background(), MintRequest{
			AgentID: "a1", Amount: amount, Recipient: testRecipient,
		}); err != nil {
			t.Fatalf("MintUnits(%s): %v", amount, err)
		}
	}

	a := idx.agents["a1"]
	if a.TotalIssued != 75_000_000_000 {
		t.Fatalf("total issued = %d, want 75e9 base units", a.TotalIssued)
	}
	if len(a.IssuanceHistory) != 2 {
		t.Fatalf("expected 2 issuance events, got %d", len(a.IssuanceHistory))
	}
	if a.IssuanceHistory[0].Amount != 50_000_000_000 || a.IssuanceHistory[1].Amount != 25_000_000_000 {
		t.Fatalf("events out of order: %+v", a.IssuanceHistory)
	}
}

func TestMintUnitsRejectsNonPositiveBeforeNetwork(t *testing.T) {
	idx := newFakeIndex()
	seedAgent(idx)
	lc := &fakeLedger{decimals: 9}
	s := NewIssuance(idx, lc, testProgramID, testPayer, discard())

	for _, amount := range []string{"0", "-5", "", "abc"} {
		_, err := s.MintUnits(context.Background(), MintRequest{
			AgentID: "a1", Amount: amount, Recipient: testRecipient,
		})
		if !domain.IsKind(err, domain.KindRejectedInput) {
			t.Errorf("amount %q: expected RejectedInput, got %v", amount, err)
		}
	}
	if lc.executeCalls != 0 || lc.decimalsCalls != 0 {
		t.Fatalf("no network call may precede amount validation")
	}
}

func TestMintUnitsDecimalsUnresolvable(t *testing.T) {
	idx := newFakeIndex()
	seedAgent(idx)
	lc := &fakeLedger{decimalsErr: errors.New("account not found")}
	s := NewIssuance(idx, lc, testProgramID, testPayer, discard())

	_, err := s.MintUnits(context.Background(), MintRequest{
		AgentID: "a1", Amount: "50", Recipient: testRecipient,
	})
	if !domain.IsKind(err, domain.KindDecimalsUnresolvable) {
		t.Fatalf("expected DecimalsUnresolvable, got %v", err)
	}
	if lc.executeCalls != 0 {
		t.Fatalf("nothing may be submitted when decimals are unresolvable")
	}
}

func TestMintUnitsLedgerFailureAppendsNothing(t *testing.T) {
	idx := newFakeIndex()
	seedAgent(idx)
	lc := &fakeLedger{decimals: 9, executeErr: errors.New("blockhash expired")}
	s := NewIssuance(idx, lc, testProgramID, testPayer, discard())

	_, err := s.MintUnits(context.Background(), MintRequest{
		AgentID: "a1", Amount: "50", Recipient: testRecipient,
	})
	if !domain.IsKind(err, domain.KindLedgerFailed) {
		t.Fatalf("expected LedgerFailed, got %v", err)
	}
	if idx.appendCalls != 0 {
		t.Fatalf("no event append may happen after a ledger failure")
	}
}

func TestMintUnitsAppendFailureEnqueuesRepair(t *testing.T) {
	idx := newFakeIndex()
	seedAgent(idx)
	idx.appendErr = errors.New("index unreachable")
	lc := &fakeLedger{decimals: 9}
	s := NewIssuance(idx, lc, testProgramID, testPayer, discard())

	_, err := s.MintUnits(context.Background(), MintRequest{
		AgentID: "a1", Amount: "50", Recipient: testRecipient,
	})
	if !domain.IsKind(err, domain.KindEventAppendFailed) {
		t.Fatalf("expected EventAppendFailed, got %v", err)
	}
	txID := domain.TxIDOf(err)
	if txID == "" {
		t.Fatalf("error must carry the ledger tx id")
	}
	if _, ok := idx.repairs[txID]; !ok {
		t.Fatalf("failed append must be queued for reconciliation")
	}
}

func TestMintUnitsMissingAgentStillMints(t *testing.T) {
	// Deliberate policy: the ledger accepts the mint even when the off-chain
	// record is momentarily missing; the append fails and reconciliation
	// catches up once the record exists.
	idx := newFakeIndex()
	lc := &fakeLedger{decimals: 9}
	s := NewIssuance(idx, lc, testProgramID, testPayer, discard())

	_, err := s.MintUnits(context.Background(), MintRequest{
		AgentID: "ghost", Amount: "1", Recipient: testRecipient,
	})
	if !domain.IsKind(err, domain.KindEventAppendFailed) {
		t.Fatalf("expected EventAppendFailed, got %v", err)
	}
	if lc.executeCalls != 1 {
		t.Fatalf("mint must reach the ledger without an off-chain record")
	}
	if len(idx.repairs) != 1 {
		t.Fatalf("orphaned mint must be queued for repair")
	}
}
