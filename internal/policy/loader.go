package policy

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/decision"
)

// SourceBuiltin marks a snapshot of the embedded default policy
const SourceBuiltin = "builtin"

//go:embed default_policy.yaml
var defaultYAML []byte

// Load reads YAML file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read policy %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates policy YAML
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the embedded built-in policy
func Default() (*Config, []byte) {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default policy is invalid: %v", err))
	}
	return cfg, defaultYAML
}

// Resolve loads the policy at path, or the built-in default when path is empty
func Resolve(path string) (*Config, *Snapshot, error) {
	var (
		cfg    *Config
		data   []byte
		source = path
		err    error
	)

	if path == "" {
		cfg, data = Default()
		source = SourceBuiltin
	} else if cfg, data, err = Load(path); err != nil {
		return nil, nil, err
	}

	snapshot, err := NewSnapshot(cfg, data, source)
	if err != nil {
		return nil, nil, err
	}
	return cfg, snapshot, nil
}

// Hash generates SHA256 hash of the engine policy (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	return ToPolicy(cfg).Hash()
}

// NewSnapshot creates a snapshot for reproducibility
func NewSnapshot(cfg *Config, yamlData []byte, source string) (*Snapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		PolicyHash: hash,
		PolicyYAML: string(yamlData),
		PolicyID:   cfg.Meta.PolicyID,
		Source:     source,
		LoadedAt:   time.Now(),
	}, nil
}

// ToPolicy converts the YAML form into the immutable engine policy
func ToPolicy(cfg *Config) decision.Policy {
	order := make([]contracts.ConflictRule, len(cfg.RuleOrder))
	for i, r := range cfg.RuleOrder {
		order[i] = contracts.ConflictRule(r)
	}

	return decision.Policy{
		ID:              cfg.Meta.PolicyID,
		Weights:         decision.Weights(cfg.Weights),
		BiasBands:       decision.BiasBands(cfg.BiasBands),
		ScoreThresholds: decision.ScoreThresholds(cfg.ScoreThresholds),
		RiskScores:      decision.RiskScores(cfg.RiskScores),
		Confidence:      decision.ConfidencePolicy(cfg.Confidence),
		RuleOrder:       order,
	}
}

// FromPolicy converts an engine policy back into its YAML form
func FromPolicy(p decision.Policy, version string) *Config {
	order := make([]string, len(p.RuleOrder))
	for i, r := range p.RuleOrder {
		order[i] = string(r)
	}

	return &Config{
		Meta:            Meta{PolicyID: p.ID, Version: version},
		Weights:         Weights(p.Weights),
		BiasBands:       BiasBands(p.BiasBands),
		ScoreThresholds: ScoreThresholds(p.ScoreThresholds),
		RiskScores:      RiskScores(p.RiskScores),
		Confidence:      Confidence(p.Confidence),
		RuleOrder:       order,
	}
}

// Marshal renders the config as YAML
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint returns a short prefix of the hash for logs
func Fingerprint(cfg *Config) string {
	hash, err := Hash(cfg)
	if err != nil || len(hash) < 8 {
		return ""
	}
	return hash[:8]
}
