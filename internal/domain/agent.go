package domain

import (
	"strconv"
	"strings"
	"time"
)

// MaxAgentIDLen is the longest agent id the on-chain program accepts as a
// derivation seed.
const MaxAgentIDLen = 32

// DefaultDecimals is applied when a create request omits decimals.
const DefaultDecimals uint8 = 9

// Agent is one issuable asset class, mirrored off-chain. Addresses and
// decimals are fixed at creation; TotalIssued only grows.
type Agent struct {
	AgentID             string          `json:"agentId"`
	Name                string          `json:"name"`
	Symbol              string          `json:"symbol"`
	URI                 string          `json:"uri"`
	Decimals            uint8           `json:"decimals"`
	MintAddress         string          `json:"mintAddress"`
	AgentAccountAddress string          `json:"agentAccountAddress"`
	MetadataAddress     string          `json:"metadataAddress"`
	CreationTxID        string          `json:"creationTxId"`
	CreatorWallet       string          `json:"creatorWallet"`
	TotalIssued         uint64          `json:"totalIssuedBase"`
	CreatedAt           time.Time       `json:"createdAt"`
	IssuanceHistory     []IssuanceEvent `json:"issuanceHistory,omitempty"`
}

// IssuanceEvent records one successful mint. Amount is in base units
// (already scaled by 10^decimals); TxID doubles as the idempotency key
// for repairs.
type IssuanceEvent struct {
	TxID      string    `json:"txId"`
	AgentID   string    `json:"agentId"`
	Amount    uint64    `json:"amountBase"`
	Recipient string    `json:"recipient"`
	Timestamp time.Time `json:"timestamp"`
}

// FormatAmount renders a base-unit amount as a human decimal string.
func FormatAmount(base uint64, decimals uint8) string {
	digits := strconv.FormatUint(base, 10)
	if pad := int(decimals) + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	cut := len(digits) - int(decimals)
	whole := digits[:cut]
	frac := strings.TrimRight(digits[cut:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
