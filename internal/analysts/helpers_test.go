package analysts

import (
	"time"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/marketdata"
)

var testNow = time.Date(2026, 10, 16, 21, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return testNow }
	return opts
}

// linearPrices returns n daily bars whose close rises by step from start
func linearPrices(n int, start, step float64) []contracts.Price {
	prices := make([]contracts.Price, n)
	first := testNow.AddDate(0, 0, -n)
	for i := range prices {
		c := start + float64(i)*step
		prices[i] = contracts.Price{
			Symbol: "TEST",
			Date:   first.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return prices
}

func repoWithPrices(prices []contracts.Price) *marketdata.StaticRepository {
	repo := marketdata.NewStaticRepository()
	repo.PutPrices("TEST", prices)
	return repo
}
