// Package pda derives the program addresses for an agent from its id.
// Derivation is pure: the same agent id always maps to the same addresses,
// so no lookup table is needed to locate an asset on chain.
package pda

import (
	"github.com/gagliardetto/solana-go"
)

// TokenMetadataProgramID is the Metaplex token-metadata program. Metadata
// addresses are derived under this program, not under the issuing program.
var TokenMetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// Derived bundles the three addresses owned by one agent.
type Derived struct {
	AgentAccount solana.PublicKey
	Mint         solana.PublicKey
	Metadata     solana.PublicKey
}

// Agent derives the program-owned agent account address.
func Agent(programID solana.PublicKey, agentID string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte("agent"), []byte(agentID)}, programID)
	return addr, err
}

// Mint derives the token mint address for an agent.
func Mint(programID solana.PublicKey, agentID string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte("mint"), []byte(agentID)}, programID)
	return addr, err
}

// Metadata derives the metadata account for a mint under the token-metadata
// program's own derivation domain.
func Metadata(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), TokenMetadataProgramID.Bytes(), mint.Bytes()},
		TokenMetadataProgramID,
	)
	return addr, err
}

// ForAgent derives all three addresses for an agent id. Fails only when the
// id exceeds the ledger's maximum seed length.
func ForAgent(programID solana.PublicKey, agentID string) (Derived, error) {
	agent, err := Agent(programID, agentID)
	if err != nil {
		return Derived{}, err
	}
	mint, err := Mint(programID, agentID)
	if err != nil {
		return Derived{}, err
	}
	meta, err := Metadata(mint)
	if err != nil {
		return Derived{}, err
	}
	return Derived{AgentAccount: agent, Mint: mint, Metadata: meta}, nil
}
