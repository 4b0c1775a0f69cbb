package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/investiq/internal/decision"
	"github.com/wonny/investiq/internal/policy"
)

// policyCmd represents the policy command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "판단 정책 관리",
	Long: `판단 엔진의 정책(YAML)을 조회하거나 검증합니다.

Subcommands:
  show      - 활성 정책 출력 (POLICY_PATH 또는 내장 기본값)
  validate  - 정책 파일 검증

Example:
  go run ./cmd/investiq policy show
  go run ./cmd/investiq policy validate configs/policy.yaml`,
}

var (
	policyShowCmd = &cobra.Command{
		Use:   "show",
		Short: "활성 정책 출력",
		Args:  cobra.NoArgs,
		RunE:  runPolicyShow,
	}

	policyValidateCmd = &cobra.Command{
		Use:   "validate FILE",
		Short: "정책 파일 검증",
		Args:  cobra.ExactArgs(1),
		RunE:  runPolicyValidate,
	}
)

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyValidateCmd)
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	a, err := newEngineApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, doubleLine)
	fmt.Fprintln(out, "  DECISION POLICY")
	fmt.Fprintln(out, singleLine)
	PrintKeyValue(out, "Policy ID", a.snapshot.PolicyID, 10)
	PrintKeyValue(out, "Hash", a.snapshot.PolicyHash, 10)
	PrintKeyValue(out, "Source", a.snapshot.Source, 10)
	PrintKeyValue(out, "Rules", fmt.Sprint(a.engine.Rules()), 10)
	fmt.Fprintln(out, singleLine)

	data, err := policy.Marshal(a.policy)
	if err != nil {
		return fmt.Errorf("render policy: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, _, err := policy.Load(args[0])
	if err != nil {
		PrintError(out, err.Error())
		return err
	}

	// 엔진 생성까지 성공해야 실제 사용 가능
	if _, err := decision.NewEngine(policy.ToPolicy(cfg), nil); err != nil {
		PrintError(out, err.Error())
		return err
	}

	for _, w := range policy.Warn(cfg) {
		PrintWarning(out, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	hash, err := policy.Hash(cfg)
	if err != nil {
		return err
	}
	PrintSuccess(out, fmt.Sprintf("%s is valid (policy_id=%s, hash=%s)", args[0], cfg.Meta.PolicyID, hash[:12]))
	return nil
}
