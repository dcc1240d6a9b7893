// Package api is the thin HTTP surface. Handlers decode, delegate to the
// orchestrators and map taxonomy kinds to status codes; no consistency
// logic lives here.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/domain"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/idempotency"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/recon"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/registry"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/pkg/httpx"
)

// Reader is the read-only slice of the index used by the GET endpoints.
type Reader interface {
	FindAgent(ctx context.Context, agentID string) (domain.Agent, error)
	ListAgents(ctx context.Context, limit, offset int) ([]domain.Agent, error)
	CountAgents(ctx context.Context) (int, error)
}

type Handler struct {
	registry *registry.Registry
	issuance *registry.Issuance
	recon    *recon.Reconciler
	reader   Reader
	idem     idempotency.Store // nil disables Idempotency-Key replay
	cluster  string
	log      *slog.Logger
}

func NewHandler(reg *registry.Registry, iss *registry.Issuance, rc *recon.Reconciler, reader Reader, idem idempotency.Store, cluster string, log *slog.Logger) *Handler {
	return &Handler{registry: reg, issuance: iss, recon: rc, reader: reader, idem: idem, cluster: cluster, log: log}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Post("/agents", h.handleCreateAgent)
	r.Get("/agents", h.handleListAgents)
	r.Get("/agents/{agentId}", h.handleGetAgent)
	r.Post("/agents/{agentId}/mint", h.handleMint)
	r.Post("/admin/repairs/agents", h.handleRepairCreate)
	r.Post("/admin/repairs/mints", h.handleRepairMint)
	return r
}

type createBody struct {
	AgentID  string `json:"agentId"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	URI      string `json:"uri"`
	Decimals *uint8 `json:"decimals,omitempty"`
}

func (h *Handler) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := httpx.ReadJSON(w, r, &body); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if h.replayed(r.Context(), w, body.AgentID, key, "create_agent") {
		return
	}

	agent, err := h.registry.CreateAgent(r.Context(), registry.CreateRequest{
		AgentID:  body.AgentID,
		Name:     body.Name,
		Symbol:   body.Symbol,
		URI:      body.URI,
		Decimals: body.Decimals,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, body.AgentID, key, "create_agent", err)
		return
	}
	h.respond(r.Context(), w, body.AgentID, key, "create_agent", 201, map[string]any{
		"request_id":          httpx.NewRequestID(),
		"agentId":             agent.AgentID,
		"txId":                agent.CreationTxID,
		"mintAddress":         agent.MintAddress,
		"agentAccountAddress": agent.AgentAccountAddress,
		"metadataAddress":     agent.MetadataAddress,
		"explorerUrl":         h.explorerURL(agent.CreationTxID),
	})
}

type mintBody struct {
	Amount    json.Number `json:"amount"`
	Recipient string      `json:"recipient"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	var body mintBody
	if err := httpx.ReadJSON(w, r, &body); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if h.replayed(r.Context(), w, agentID, key, "mint_units") {
		return
	}

	res, err := h.issuance.MintUnits(r.Context(), registry.MintRequest{
		AgentID:   agentID,
		Amount:    body.Amount.String(),
		Recipient: body.Recipient,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, agentID, key, "mint_units", err)
		return
	}
	h.respond(r.Context(), w, agentID, key, "mint_units", 201, map[string]any{
		"request_id":  httpx.NewRequestID(),
		"agentId":     res.AgentID,
		"amount":      domain.FormatAmount(res.AmountBase, res.Decimals),
		"amountBase":  res.AmountBase,
		"recipient":   res.Recipient,
		"txId":        res.TxID,
		"explorerUrl": h.explorerURL(res.TxID),
	})
}

func (h *Handler) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.reader.FindAgent(r.Context(), chi.URLParam(r, "agentId"))
	if err != nil {
		h.writeDomainError(r.Context(), w, "", "", "", err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id":  httpx.NewRequestID(),
		"agent":       agent,
		"totalIssued": domain.FormatAmount(agent.TotalIssued, agent.Decimals),
	})
}

func (h *Handler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	agents, err := h.reader.ListAgents(r.Context(), limit, (page-1)*limit)
	if err != nil {
		httpx.WriteError(w, 500, "INDEX_ERROR", err.Error(), nil)
		return
	}
	total, err := h.reader.CountAgents(r.Context())
	if err != nil {
		httpx.WriteError(w, 500, "INDEX_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"agents":     agents,
		"pagination": map[string]any{
			"page": page, "limit": limit, "total": total,
			"pages": (total + limit - 1) / limit,
		},
	})
}

type repairCreateBody struct {
	createBody
	TxID string `json:"txId"`
}

func (h *Handler) handleRepairCreate(w http.ResponseWriter, r *http.Request) {
	var body repairCreateBody
	if err := httpx.ReadJSON(w, r, &body); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if body.TxID == "" {
		httpx.WriteError(w, 400, "REJECTED_INPUT", "txId is required", nil)
		return
	}
	agent, err := h.recon.RepairCreate(r.Context(), registry.CreateRequest{
		AgentID:  body.AgentID,
		Name:     body.Name,
		Symbol:   body.Symbol,
		URI:      body.URI,
		Decimals: body.Decimals,
	}, body.TxID)
	if err != nil {
		h.writeDomainError(r.Context(), w, "", "", "", err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"agent":      agent,
	})
}

type repairMintBody struct {
	AgentID    string `json:"agentId"`
	TxID       string `json:"txId"`
	AmountBase uint64 `json:"amountBase"`
	Recipient  string `json:"recipient"`
}

func (h *Handler) handleRepairMint(w http.ResponseWriter, r *http.Request) {
	var body repairMintBody
	if err := httpx.ReadJSON(w, r, &body); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	if body.TxID == "" || body.AgentID == "" || body.AmountBase == 0 {
		httpx.WriteError(w, 400, "REJECTED_INPUT", "agentId, txId and amountBase are required", nil)
		return
	}
	inserted, err := h.recon.RepairMint(r.Context(), domain.IssuanceEvent{
		TxID:      body.TxID,
		AgentID:   body.AgentID,
		Amount:    body.AmountBase,
		Recipient: body.Recipient,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, "", "", "", err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"txId":       body.TxID,
		"applied":    inserted,
	})
}

// replayed writes a stored response for a repeated Idempotency-Key and
// reports whether it did.
func (h *Handler) replayed(ctx context.Context, w http.ResponseWriter, scope, key, endpoint string) bool {
	if h.idem == nil {
		return false
	}
	status, body, found, err := idempotency.Replay(ctx, h.idem, scope, key, endpoint)
	if err != nil {
		h.log.Error("idempotency lookup failed", "scope", scope, "error", err)
		return false
	}
	if !found {
		return false
	}
	httpx.WriteRaw(w, status, body)
	return true
}

// respond writes the success envelope and records it for replay.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, scope, key, endpoint string, status int, v map[string]any) {
	if h.idem != nil && key != "" {
		if encoded, err := json.Marshal(v); err == nil {
			if err := idempotency.Save(ctx, h.idem, scope, key, endpoint, status, encoded); err != nil {
				h.log.Error("idempotency save failed", "scope", scope, "error", err)
			}
		}
	}
	httpx.WriteJSON(w, status, v)
}

func (h *Handler) writeDomainError(ctx context.Context, w http.ResponseWriter, scope, key, endpoint string, err error) {
	kind := domain.KindOf(err)
	status := 500
	code := "INTERNAL"
	switch kind {
	case domain.KindRejectedInput:
		status, code = 400, string(kind)
	case domain.KindConflict:
		status, code = 409, string(kind)
	case domain.KindNotFound:
		status, code = 404, string(kind)
	case domain.KindDecimalsUnresolvable:
		status, code = 422, string(kind)
	case domain.KindLedgerFailed, domain.KindIndexFailed, domain.KindEventAppendFailed:
		status, code = 500, string(kind)
	}
	var details any
	if txID := domain.TxIDOf(err); txID != "" {
		details = map[string]any{"txId": txID, "explorerUrl": h.explorerURL(txID)}
	}
	// Conflicts replay identically, so they are safe to record.
	if h.idem != nil && key != "" && kind == domain.KindConflict {
		body, _ := json.Marshal(map[string]any{
			"request_id": httpx.NewRequestID(),
			"error":      map[string]any{"code": code, "message": err.Error(), "details": details},
		})
		if saveErr := idempotency.Save(ctx, h.idem, scope, key, endpoint, status, body); saveErr != nil {
			h.log.Error("idempotency save failed", "scope", scope, "error", saveErr)
		}
	}
	httpx.WriteError(w, status, code, err.Error(), details)
}

func (h *Handler) explorerURL(txID string) string {
	if h.cluster == "" || h.cluster == "mainnet-beta" {
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", txID)
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", txID, h.cluster)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
