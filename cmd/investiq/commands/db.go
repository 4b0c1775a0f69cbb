package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/investiq/internal/audit"
	"github.com/wonny/investiq/internal/marketdata"
	"github.com/wonny/investiq/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "시장 데이터 스키마 관리",
	Long: `market 스키마를 생성하거나 샘플 데이터를 적재합니다.

Subcommands:
  migrate  - market.daily_prices / fundamentals / news, audit.decisions 테이블 생성
  seed     - 결정적 샘플 데이터 적재 (개발용)

Example:
  go run ./cmd/investiq db migrate
  go run ./cmd/investiq db seed --symbols AAPL,MSFT`,
}

var (
	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "스키마 생성",
		Args:  cobra.NoArgs,
		RunE:  runDBMigrate,
	}

	dbSeedCmd = &cobra.Command{
		Use:   "seed",
		Short: "샘플 데이터 적재",
		Args:  cobra.NoArgs,
		RunE:  runDBSeed,
	}

	seedSymbols string
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbSeedCmd)

	// Flags
	dbSeedCmd.Flags().StringVar(&seedSymbols, "symbols", strings.Join(marketdata.SampleSymbols, ","), "적재할 종목 (쉼표 구분)")
}

func openDB(ctx context.Context) (*database.DB, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, err
	}
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	statements := append(append([]string{}, marketdata.Schema...), audit.Schema...)
	if err := db.EnsureSchema(ctx, statements); err != nil {
		return err
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Schema ready (%d statements)", len(statements)))
	return nil
}

func runDBSeed(cmd *cobra.Command, args []string) error {
	symbols, err := parseSymbols(seedSymbols)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx, marketdata.Schema); err != nil {
		return err
	}

	asOf := time.Now().UTC()
	sample := marketdata.NewSampleRepository(asOf, symbols...)
	repo := marketdata.NewPostgresRepository(db.Pool)
	out := cmd.OutOrStdout()

	for i, symbol := range symbols {
		prices, err := sample.GetPrices(ctx, symbol, asOf.AddDate(-2, 0, 0), asOf)
		if err != nil {
			return err
		}
		if err := repo.SavePrices(ctx, prices); err != nil {
			return fmt.Errorf("seed prices %s: %w", symbol, err)
		}

		fundamentals, err := sample.GetFundamentals(ctx, symbol)
		if err != nil {
			return err
		}
		if err := repo.SaveFundamentals(ctx, fundamentals); err != nil {
			return fmt.Errorf("seed fundamentals %s: %w", symbol, err)
		}

		news, err := sample.GetNews(ctx, symbol, asOf.AddDate(0, -1, 0), 100)
		if err != nil {
			return err
		}
		if err := repo.SaveNews(ctx, news); err != nil {
			return fmt.Errorf("seed news %s: %w", symbol, err)
		}

		fmt.Fprintf(out, "[Seed] %s: %d prices, %d news [%d/%d]\n", symbol, len(prices), len(news), i+1, len(symbols))
	}

	PrintSuccess(out, fmt.Sprintf("Seeded %d symbols", len(symbols)))
	return nil
}
