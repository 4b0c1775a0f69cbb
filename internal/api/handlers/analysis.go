package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/logger"
)

// Analyzer runs one full analysis of a symbol
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (*contracts.Analysis, error)
}

// Decider combines caller-supplied analyst reports
type Decider interface {
	Decide(symbol string, reports contracts.Reports) (*contracts.CombinedVerdict, error)
}

// AnalysisHandler handles analysis and decision endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	analyzer Analyzer
	decider  Decider
	clock    Clock
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer, decider Decider, clock Clock, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		decider:  decider,
		clock:    clock,
		logger:   log,
	}
}

// AnalyzeRequest represents an analysis request
type AnalyzeRequest struct {
	Symbol string `json:"symbol" validate:"required,max=15"`
}

// Analyze runs a full analysis of the symbol in the body
// POST /api/analyze {"symbol":"AAPL"}
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.clock.respondFailure(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if errs := validateRequest(req); errs != nil {
		h.clock.respondFailure(w, http.StatusBadRequest, "Symbol is required", errs)
		return
	}

	h.analyze(w, r, req.Symbol)
}

// AnalyzeSymbol runs a full analysis of the symbol in the path
// POST /api/analyze/{symbol}
func (h *AnalysisHandler) AnalyzeSymbol(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, mux.Vars(r)["symbol"])
}

func (h *AnalysisHandler) analyze(w http.ResponseWriter, r *http.Request, symbol string) {
	analysis, err := h.analyzer.Analyze(r.Context(), symbol)
	if err != nil {
		h.fail(w, r, symbol, err)
		return
	}

	h.clock.respondDecision(w, analysis)
}

// DecideRequest carries the native outputs of the four analysts
// 누락된 필드는 엔진에서 MissingSignal (422)
type DecideRequest struct {
	Symbol      string   `json:"symbol" validate:"max=15"`
	Fundamental *float64 `json:"fundamental" validate:"omitempty,gte=0,lte=100"`
	Sentiment   *float64 `json:"sentiment" validate:"omitempty,gte=-1,lte=1"`
	Technical   *float64 `json:"technical" validate:"omitempty,gte=0,lte=100"`
	RiskLevel   string   `json:"risk_level" validate:"max=32"`
}

// Reports converts the request into engine input; absent fields stay nil
func (req DecideRequest) Reports() contracts.Reports {
	var reports contracts.Reports
	if req.Fundamental != nil {
		reports.Fundamental = &contracts.AnalystReport{Agent: contracts.AgentFundamental, Score: *req.Fundamental}
	}
	if req.Sentiment != nil {
		reports.Sentiment = &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: *req.Sentiment}
	}
	if req.Technical != nil {
		reports.Technical = &contracts.AnalystReport{Agent: contracts.AgentTechnical, Score: *req.Technical}
	}
	if req.RiskLevel != "" {
		reports.Risk = &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskLevel(req.RiskLevel)}
		if level, err := contracts.ParseRiskLevel(req.RiskLevel); err == nil {
			reports.Risk.RiskLevel = level
		}
	}
	return reports
}

// Decide evaluates caller-supplied analyst outputs without fetching market data
// POST /api/decide
func (h *AnalysisHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.clock.respondFailure(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if errs := validateRequest(req); errs != nil {
		h.clock.respondFailure(w, http.StatusUnprocessableEntity, "validation failed", errs)
		return
	}

	verdict, err := h.decider.Decide(req.Symbol, req.Reports())
	if err != nil {
		h.fail(w, r, req.Symbol, err)
		return
	}

	h.clock.respondDecision(w, verdict)
}

func (h *AnalysisHandler) fail(w http.ResponseWriter, r *http.Request, symbol string, err error) {
	status := StatusFor(err)

	log := logger.FromContext(r.Context(), h.logger).WithError(err).WithFields(map[string]interface{}{
		"symbol": symbol,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		log.Error("Analysis failed")
	} else {
		log.Debug("Analysis rejected")
	}

	h.clock.respondFailure(w, status, publicMessage(status, err), nil)
}
