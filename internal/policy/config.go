package policy

import "time"

// Config is the YAML form of the decision policy
type Config struct {
	Meta            Meta            `yaml:"meta" json:"meta"`
	Weights         Weights         `yaml:"weights" json:"weights"`
	BiasBands       BiasBands       `yaml:"bias_bands" json:"bias_bands"`
	ScoreThresholds ScoreThresholds `yaml:"score_thresholds" json:"score_thresholds"`
	RiskScores      RiskScores      `yaml:"risk_scores" json:"risk_scores"`
	Confidence      Confidence      `yaml:"confidence" json:"confidence"`
	RuleOrder       []string        `yaml:"rule_order" json:"rule_order"` // score_threshold는 항상 마지막 (생략)
}

// Meta 메타 정보
type Meta struct {
	PolicyID    string `yaml:"policy_id" json:"policy_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Weights 에이전트별 가중치 (합 = 1.0)
type Weights struct {
	Fundamental float64 `yaml:"fundamental" json:"fundamental"`
	Sentiment   float64 `yaml:"sentiment" json:"sentiment"`
	Technical   float64 `yaml:"technical" json:"technical"`
	Risk        float64 `yaml:"risk" json:"risk"`
}

// BiasBands 정규화 점수 → Bias 하한 경계
type BiasBands struct {
	Bullish         float64 `yaml:"bullish" json:"bullish"`
	SlightlyBullish float64 `yaml:"slightly_bullish" json:"slightly_bullish"`
	Neutral         float64 `yaml:"neutral" json:"neutral"`
	SlightlyBearish float64 `yaml:"slightly_bearish" json:"slightly_bearish"`
}

type ScoreThresholds struct {
	Buy  float64 `yaml:"buy" json:"buy"`
	Hold float64 `yaml:"hold" json:"hold"`
}

// RiskScores 리스크 레벨 → 정규화 점수
type RiskScores struct {
	VeryLow  float64 `yaml:"very_low" json:"very_low"`
	Low      float64 `yaml:"low" json:"low"`
	Medium   float64 `yaml:"medium" json:"medium"`
	High     float64 `yaml:"high" json:"high"`
	VeryHigh float64 `yaml:"very_high" json:"very_high"`
}

// Confidence 신뢰도 가감점
type Confidence struct {
	Base                  float64 `yaml:"base" json:"base"`
	PerAgreeingAgent      float64 `yaml:"per_agreeing_agent" json:"per_agreeing_agent"`
	MaxAgreementBonus     float64 `yaml:"max_agreement_bonus" json:"max_agreement_bonus"`
	RiskOverridePenalty   float64 `yaml:"risk_override_penalty" json:"risk_override_penalty"`
	MixedSignalsPenalty   float64 `yaml:"mixed_signals_penalty" json:"mixed_signals_penalty"`
	TightDispersion       float64 `yaml:"tight_dispersion" json:"tight_dispersion"`
	TightDispersionBonus  float64 `yaml:"tight_dispersion_bonus" json:"tight_dispersion_bonus"`
	WideDispersion        float64 `yaml:"wide_dispersion" json:"wide_dispersion"`
	WideDispersionPenalty float64 `yaml:"wide_dispersion_penalty" json:"wide_dispersion_penalty"`
	Floor                 float64 `yaml:"floor" json:"floor"`
	Ceiling               float64 `yaml:"ceiling" json:"ceiling"`
}

// Snapshot 적용 중인 정책 스냅샷 (재현성용)
type Snapshot struct {
	PolicyHash string    `json:"policy_hash"`
	PolicyYAML string    `json:"policy_yaml"`
	PolicyID   string    `json:"policy_id"`
	Source     string    `json:"source"` // 파일 경로 또는 "builtin"
	LoadedAt   time.Time `json:"loaded_at"`
}
