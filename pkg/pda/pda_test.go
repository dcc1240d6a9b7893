package pda

import (
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
)

var testProgramID = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

func TestForAgentDeterministic(t *testing.T) {
	a, err := ForAgent(testProgramID, "agent-1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := ForAgent(testProgramID, "agent-1")
	if err != nil {
		t.Fatalf("derive again: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical derivation, got %+v vs %+v", a, b)
	}
}

func TestForAgentDistinctIDs(t *testing.T) {
	a, err := ForAgent(testProgramID, "agent-1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := ForAgent(testProgramID, "agent-2")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a.AgentAccount.Equals(b.AgentAccount) {
		t.Fatalf("agent accounts collide")
	}
	if a.Mint.Equals(b.Mint) {
		t.Fatalf("mints collide")
	}
	if a.Metadata.Equals(b.Metadata) {
		t.Fatalf("metadata addresses collide")
	}
}

func TestMetadataDomainIsDistinct(t *testing.T) {
	// The metadata address lives under the token-metadata program, so it
	// must not equal anything derived under the issuing program.
	d, err := ForAgent(testProgramID, "agent-1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if d.Metadata.Equals(d.AgentAccount) || d.Metadata.Equals(d.Mint) {
		t.Fatalf("metadata address collided with issuing-program addresses")
	}
}

func TestForAgentSeedTooLong(t *testing.T) {
	_, err := ForAgent(testProgramID, strings.Repeat("x", 33))
	if err == nil {
		t.Fatalf("expected error for seed longer than 32 bytes")
	}
}
