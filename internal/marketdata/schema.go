package marketdata

// Schema is the idempotent DDL of the market data tables
// 뉴스 polarity는 수집 단계에서 계산되어 저장됨
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS market`,
	`CREATE TABLE IF NOT EXISTS market.daily_prices (
		symbol      TEXT           NOT NULL,
		trade_date  DATE           NOT NULL,
		open_price  NUMERIC(18, 4) NOT NULL,
		high_price  NUMERIC(18, 4) NOT NULL,
		low_price   NUMERIC(18, 4) NOT NULL,
		close_price NUMERIC(18, 4) NOT NULL,
		volume      BIGINT         NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS market.fundamentals (
		symbol         TEXT             NOT NULL,
		revenue_growth DOUBLE PRECISION NOT NULL,
		profit_margin  DOUBLE PRECISION NOT NULL,
		pe_ratio       DOUBLE PRECISION NOT NULL,
		debt_to_equity DOUBLE PRECISION NOT NULL,
		roe            DOUBLE PRECISION NOT NULL,
		updated_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, updated_at)
	)`,
	`CREATE TABLE IF NOT EXISTS market.news (
		id           BIGSERIAL PRIMARY KEY,
		symbol       TEXT             NOT NULL,
		title        TEXT             NOT NULL,
		publisher    TEXT             NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ      NOT NULL,
		polarity     DOUBLE PRECISION NOT NULL CHECK (polarity BETWEEN -1 AND 1),
		UNIQUE (symbol, title, published_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_symbol_published ON market.news (symbol, published_at DESC)`,
}
