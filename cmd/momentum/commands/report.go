package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/reconcile"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [period]",
	Short: "모멘텀 리포트 생성",
	Long: `업종 랭킹 상위/하위 그룹을 조회하고 그룹별 대표 종목의
당일 시세를 결합한 리포트를 출력합니다.

Periods: 1day (default), 1week, 1month, 3months

Example:
  go run ./cmd/momentum report
  go run ./cmd/momentum report 1week --top 3
  go run ./cmd/momentum report 3months --json > report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportJSON bool
	reportTop  int
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the reconciliation result as JSON")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "groups per direction (default RANKING_TOP_N)")
}

func runReport(cmd *cobra.Command, args []string) error {
	periodArg := string(contracts.Period1Day)
	if len(args) == 1 {
		periodArg = args[0]
	}

	period, err := contracts.ParsePeriod(periodArg)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("top") && reportTop <= 0 {
		return fmt.Errorf("--top must be positive, got %d: %w", reportTop, contracts.ErrInvalidArgument)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if reportTop > 0 {
		cfg.Ranking.TopN = reportTop
	}

	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.runner()
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, period)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reportJSON {
		return PrintJSON(out, report.Result)
	}

	PrintReport(out, report)
	if n := reconcile.Unmatched(&report.Result); n > 0 {
		PrintWarning(out, fmt.Sprintf("%d stock(s) not found in either feed (marked *)", n))
	}
	return nil
}
