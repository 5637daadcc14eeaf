package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote [code...]",
	Short: "당일 시세 조회",
	Long: `상장/장외 시세를 병합한 카탈로그에서 종목 시세를 조회합니다.
두 시장에 모두 있는 종목은 상장 시세가 우선합니다.

Example:
  go run ./cmd/momentum quote 2330
  go run ./cmd/momentum quote 2330 3105 8069
  go run ./cmd/momentum quote --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if quoteAll != (len(args) == 0) {
			return fmt.Errorf("give stock codes or --all, not both")
		}
		return nil
	},
	RunE: runQuote,
}

var quoteAll bool

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().BoolVar(&quoteAll, "all", false, "print every quote in catalog order (listed first)")
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	if quoteAll {
		args = snapshot.Merged.Codes()
	}

	out := cmd.OutOrStdout()
	PrintHeader(out, fmt.Sprintf("Quotes · %s (%d)", snapshot.TradingDate, len(args)))
	PrintTableHeader(out, stockColumns, stockWidths)

	missing := 0
	for _, code := range args {
		record, ok := snapshot.Merged.Lookup(code)
		if !ok {
			missing++
			PrintTableRow(out, []string{code, "(not found)", "-", "-", "-", "-"}, stockWidths)
			continue
		}
		PrintTableRow(out, stockRow(record), stockWidths)
	}

	if missing > 0 {
		PrintWarning(out, fmt.Sprintf("%d code(s) not found in either feed", missing))
	}
	return nil
}
