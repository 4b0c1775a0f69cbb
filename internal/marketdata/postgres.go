package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/investiq/internal/contracts"
)

// PostgresRepository implements contracts.MarketDataRepository
// ⭐ SSOT: 시세/재무/뉴스 조회는 여기서만
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new postgres repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetPrices retrieves daily bars within [from, to], oldest first
func (r *PostgresRepository) GetPrices(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Price, error) {
	query := `
		SELECT symbol, trade_date, open_price, high_price, low_price, close_price, volume
		FROM market.daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var prices []contracts.Price
	for rows.Next() {
		var p contracts.Price
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("prices for %s: %w", symbol, contracts.ErrNoData)
	}
	return prices, nil
}

// GetFundamentals retrieves the latest fundamentals snapshot
func (r *PostgresRepository) GetFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	query := `
		SELECT symbol, revenue_growth, profit_margin, pe_ratio, debt_to_equity, roe, updated_at
		FROM market.fundamentals
		WHERE symbol = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var f contracts.Fundamentals
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&f.Symbol, &f.RevenueGrowth, &f.ProfitMargin, &f.PERatio, &f.DebtToEquity, &f.ROE, &f.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fundamentals for %s: %w", symbol, contracts.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("query fundamentals: %w", err)
	}
	return &f, nil
}

// GetNews retrieves the most recent headlines since the given time, newest first
// 뉴스가 없으면 빈 슬라이스 (에러 아님)
func (r *PostgresRepository) GetNews(ctx context.Context, symbol string, since time.Time, limit int) ([]contracts.NewsItem, error) {
	query := `
		SELECT symbol, title, publisher, published_at, polarity
		FROM market.news
		WHERE symbol = $1 AND published_at >= $2
		ORDER BY published_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, symbol, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.NewsItem, error) {
		var n contracts.NewsItem
		err := row.Scan(&n.Symbol, &n.Title, &n.Publisher, &n.PublishedAt, &n.Polarity)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan news: %w", err)
	}
	return items, nil
}

// SavePrices upserts daily bars in one batch
func (r *PostgresRepository) SavePrices(ctx context.Context, prices []contracts.Price) error {
	if len(prices) == 0 {
		return nil
	}

	query := `
		INSERT INTO market.daily_prices (symbol, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query, p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save prices: %w", err)
	}
	return nil
}

// SaveFundamentals inserts one fundamentals snapshot
func (r *PostgresRepository) SaveFundamentals(ctx context.Context, f *contracts.Fundamentals) error {
	query := `
		INSERT INTO market.fundamentals (symbol, revenue_growth, profit_margin, pe_ratio, debt_to_equity, roe, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, updated_at) DO NOTHING
	`

	updatedAt := f.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, query, f.Symbol, f.RevenueGrowth, f.ProfitMargin, f.PERatio, f.DebtToEquity, f.ROE, updatedAt)
	if err != nil {
		return fmt.Errorf("save fundamentals: %w", err)
	}
	return nil
}

// SaveNews inserts headlines, skipping duplicates
func (r *PostgresRepository) SaveNews(ctx context.Context, items []contracts.NewsItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO market.news (symbol, title, publisher, published_at, polarity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, title, published_at) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, n := range items {
		batch.Queue(query, n.Symbol, n.Title, n.Publisher, n.PublishedAt, n.Polarity)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save news: %w", err)
	}
	return nil
}
