package contracts

import "context"

// Analyst produces one AnalystReport for a symbol
// ⭐ SSOT: 4개 분석가(Fundamental/Sentiment/Technical/Risk) 공통 인터페이스
type Analyst interface {
	Agent() AgentName
	Analyze(ctx context.Context, symbol string) (*AnalystReport, error)
}
