package metrics

import (
	"context"
	"errors"

	"github.com/wonny/investiq/internal/contracts"
)

// Error kinds used as the "kind" label
const (
	KindMissingSignal = "missing_signal"
	KindInvalidSignal = "invalid_signal"
	KindWeightConfig  = "weight_configuration"
	KindNoData        = "no_data"
	KindInvalidSymbol = "invalid_symbol"
	KindTimeout       = "timeout"
	KindCanceled      = "canceled"
	KindInternal      = "internal"
)

// ErrorKind classifies an error into a low-cardinality label
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, contracts.ErrMissingSignal):
		return KindMissingSignal
	case errors.Is(err, contracts.ErrInvalidSignal):
		return KindInvalidSignal
	case errors.Is(err, contracts.ErrWeightConfiguration):
		return KindWeightConfig
	case errors.Is(err, contracts.ErrNoData):
		return KindNoData
	case errors.Is(err, contracts.ErrInvalidSymbol):
		return KindInvalidSymbol
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindInternal
	}
}
