package marketdata

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/wonny/investiq/internal/contracts"
)

// SampleSymbols are preloaded by NewSampleRepository
var SampleSymbols = []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN"}

// sampleBars is the length of the generated price history (about 14 months)
const sampleBars = 300

var sampleHeadlines = []string{
	"%s beats quarterly earnings expectations",
	"Analysts raise price target on %s",
	"%s faces regulatory scrutiny over data practices",
	"%s announces new product line",
	"Supply chain concerns weigh on %s",
	"%s expands buyback program",
	"Institutional investors trim %s holdings",
	"%s partners with major cloud provider",
}

// NewSampleRepository returns a static repository filled with deterministic sample data
// 같은 symbol/asOf → 항상 같은 데이터 (FNV 시드)
func NewSampleRepository(asOf time.Time, symbols ...string) *StaticRepository {
	if len(symbols) == 0 {
		symbols = SampleSymbols
	}

	repo := NewStaticRepository()
	for _, symbol := range symbols {
		symbol = normalize(symbol)
		rng := rand.New(rand.NewPCG(seedOf(symbol), uint64(asOf.Unix()/86400)))

		repo.PutPrices(symbol, samplePrices(rng, symbol, asOf))
		repo.PutFundamentals(sampleFundamentals(rng, symbol, asOf))
		repo.PutNews(symbol, sampleNews(rng, symbol, asOf))
	}
	return repo
}

func seedOf(symbol string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return h.Sum64()
}

// samplePrices generates a geometric random walk on weekdays, oldest first
func samplePrices(rng *rand.Rand, symbol string, asOf time.Time) []contracts.Price {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	var dates []time.Time
	for len(dates) < sampleBars {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, -1)
	}

	drift := (rng.Float64() - 0.4) * 0.002 // 일간 -0.08% ~ +0.12%
	vol := 0.01 + rng.Float64()*0.025      // 일간 1% ~ 3.5%
	price := 50 + rng.Float64()*400

	prices := make([]contracts.Price, sampleBars)
	for i := sampleBars - 1; i >= 0; i-- {
		open := price
		price *= math.Exp(drift + vol*rng.NormFloat64())
		high := math.Max(open, price) * (1 + rng.Float64()*vol/2)
		low := math.Min(open, price) * (1 - rng.Float64()*vol/2)

		prices[sampleBars-1-i] = contracts.Price{
			Symbol: symbol,
			Date:   dates[i],
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(price),
			Volume: 1_000_000 + rng.Int64N(50_000_000),
		}
	}
	return prices
}

func sampleFundamentals(rng *rand.Rand, symbol string, asOf time.Time) contracts.Fundamentals {
	return contracts.Fundamentals{
		Symbol:        symbol,
		RevenueGrowth: round2(-5 + rng.Float64()*35),
		ProfitMargin:  round2(rng.Float64() * 35),
		PERatio:       round2(8 + rng.Float64()*50),
		DebtToEquity:  round2(rng.Float64() * 2.5),
		ROE:           round2(rng.Float64() * 40),
		UpdatedAt:     asOf.UTC(),
	}
}

// sampleNews generates one headline per day for the last week
func sampleNews(rng *rand.Rand, symbol string, asOf time.Time) []contracts.NewsItem {
	tilt := rng.Float64()*0.6 - 0.3

	items := make([]contracts.NewsItem, 0, 7)
	for d := 0; d < 7; d++ {
		polarity := math.Max(-1, math.Min(1, tilt+rng.NormFloat64()*0.3))
		items = append(items, contracts.NewsItem{
			Symbol:      symbol,
			Title:       fmt.Sprintf(sampleHeadlines[rng.IntN(len(sampleHeadlines))], symbol),
			Publisher:   "Sample Wire",
			PublishedAt: asOf.Add(-time.Duration(d)*24*time.Hour - time.Hour).UTC(),
			Polarity:    round2(polarity),
		})
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
