// Package intent builds unsigned ledger operations: an ordered account list
// with roles plus the Anchor-encoded instruction payload. No I/O happens
// here; a builder fails only on malformed input.
package intent

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/domain"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/pkg/pda"
)

// Role describes how an account participates in an instruction.
type Role uint8

const (
	RolePayer    Role = iota // writable and signing
	RoleWritable             // writable, not signing
	RoleReadonly
)

// Account is one entry of an intent's ordered account list.
type Account struct {
	Key  solana.PublicKey
	Role Role
}

// Intent is a fully specified, unsigned ledger operation.
type Intent struct {
	ProgramID solana.PublicKey
	Accounts  []Account
	Data      []byte
}

// Instruction converts the intent into a submittable instruction.
func (in Intent) Instruction() solana.Instruction {
	metas := make(solana.AccountMetaSlice, 0, len(in.Accounts))
	for _, a := range in.Accounts {
		metas = append(metas, solana.NewAccountMeta(a.Key, a.Role != RoleReadonly, a.Role == RolePayer))
	}
	return solana.NewInstruction(in.ProgramID, metas, in.Data)
}

// anchorDiscriminator is the 8-byte method selector Anchor programs expect.
func anchorDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

type createArgs struct {
	AgentID string
	Name    string
	Symbol  string
	URI     string
}

type mintArgs struct {
	AgentID string
	Amount  uint64
}

func encodeAnchor(method string, args any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(anchorDiscriminator(method))
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("encode %s args: %w", method, err)
	}
	return buf.Bytes(), nil
}

// CreateParams feeds BuildCreate. Addresses come pre-derived so the builder
// stays free of derivation concerns.
type CreateParams struct {
	ProgramID solana.PublicKey
	Payer     solana.PublicKey
	AgentID   string
	Name      string
	Symbol    string
	URI       string
	Derived   pda.Derived
}

// BuildCreate assembles the create-agent intent. Account order matches the
// on-chain program's expected layout.
func BuildCreate(p CreateParams) (Intent, error) {
	if err := validateAgentID(p.AgentID); err != nil {
		return Intent{}, err
	}
	if p.Name == "" || p.Symbol == "" || p.URI == "" {
		return Intent{}, fmt.Errorf("name, symbol and uri are required")
	}
	data, err := encodeAnchor("create_agent", createArgs{
		AgentID: p.AgentID, Name: p.Name, Symbol: p.Symbol, URI: p.URI,
	})
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		ProgramID: p.ProgramID,
		Accounts: []Account{
			{p.Derived.Metadata, RoleWritable},
			{p.Payer, RolePayer},
			{p.Derived.AgentAccount, RoleWritable},
			{p.Derived.Mint, RoleWritable},
			{solana.SysVarRentPubkey, RoleReadonly},
			{solana.SystemProgramID, RoleReadonly},
			{solana.TokenProgramID, RoleReadonly},
			{pda.TokenMetadataProgramID, RoleReadonly},
		},
		Data: data,
	}, nil
}

// MintParams feeds BuildMint. Amount is already scaled to base units.
type MintParams struct {
	ProgramID solana.PublicKey
	Payer     solana.PublicKey
	AgentID   string
	Amount    uint64
	Recipient solana.PublicKey
	Derived   pda.Derived
}

// BuildMint assembles the mint-units intent. The destination token account
// is the recipient's associated token account for the agent's mint.
func BuildMint(p MintParams) (Intent, error) {
	if err := validateAgentID(p.AgentID); err != nil {
		return Intent{}, err
	}
	if p.Amount == 0 {
		return Intent{}, fmt.Errorf("amount must be positive")
	}
	if p.Recipient.IsZero() {
		return Intent{}, fmt.Errorf("recipient is required")
	}
	destination, _, err := solana.FindAssociatedTokenAddress(p.Recipient, p.Derived.Mint)
	if err != nil {
		return Intent{}, fmt.Errorf("derive destination token account: %w", err)
	}
	data, err := encodeAnchor("mint_to_agent", mintArgs{AgentID: p.AgentID, Amount: p.Amount})
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		ProgramID: p.ProgramID,
		Accounts: []Account{
			{p.Payer, RolePayer},
			{p.Derived.AgentAccount, RoleWritable},
			{p.Derived.Mint, RoleWritable},
			{p.Recipient, RoleReadonly},
			{destination, RoleWritable},
			{solana.TokenProgramID, RoleReadonly},
			{solana.SPLAssociatedTokenAccountProgramID, RoleReadonly},
			{solana.SystemProgramID, RoleReadonly},
		},
		Data: data,
	}, nil
}

func validateAgentID(agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agent id is required")
	}
	if len(agentID) > domain.MaxAgentIDLen {
		return fmt.Errorf("agent id exceeds %d bytes", domain.MaxAgentIDLen)
	}
	return nil
}
