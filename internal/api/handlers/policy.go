package handlers

import (
	"net/http"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/policy"
)

// PolicyHandler exposes the active decision policy
type PolicyHandler struct {
	config   *policy.Config
	snapshot *policy.Snapshot
	rules    []contracts.ConflictRule
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(cfg *policy.Config, snapshot *policy.Snapshot, rules []contracts.ConflictRule) *PolicyHandler {
	return &PolicyHandler{config: cfg, snapshot: snapshot, rules: rules}
}

// PolicyResponse is the active policy plus its provenance
type PolicyResponse struct {
	PolicyID   string                   `json:"policy_id"`
	PolicyHash string                   `json:"policy_hash"`
	Source     string                   `json:"source"`
	LoadedAt   string                   `json:"loaded_at"`
	RuleOrder  []contracts.ConflictRule `json:"rule_order"`
	Policy     *policy.Config           `json:"policy"`
}

// GetPolicy returns the active policy
// GET /api/policy
func (h *PolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	if h.config == nil || h.snapshot == nil {
		respondError(w, http.StatusServiceUnavailable, "policy not loaded")
		return
	}

	respondJSON(w, http.StatusOK, PolicyResponse{
		PolicyID:   h.snapshot.PolicyID,
		PolicyHash: h.snapshot.PolicyHash,
		Source:     h.snapshot.Source,
		LoadedAt:   h.snapshot.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		RuleOrder:  h.rules,
		Policy:     h.config,
	})
}
