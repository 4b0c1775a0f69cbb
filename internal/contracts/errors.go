package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// Decision engine error kinds. All are fatal to the current analysis.
var (
	ErrMissingSignal       = errors.New("missing signal")
	ErrInvalidSignal       = errors.New("invalid signal")
	ErrWeightConfiguration = errors.New("weight configuration error")
	ErrNoData              = errors.New("no data")
	ErrInvalidSymbol       = errors.New("invalid symbol")
)

// SignalError carries the kind plus the agents involved
type SignalError struct {
	Kind   error
	Agents []AgentName
	Detail string
}

// NewSignalError creates a SignalError for a single agent
func NewSignalError(kind error, agent AgentName, detail string) *SignalError {
	var agents []AgentName
	if agent != "" {
		agents = []AgentName{agent}
	}
	return &SignalError{Kind: kind, Agents: agents, Detail: detail}
}

func (e *SignalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	if len(e.Agents) > 0 {
		names := make([]string, len(e.Agents))
		for i, a := range e.Agents {
			names[i] = string(a)
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(names, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Unwrap lets errors.Is match the sentinel kind
func (e *SignalError) Unwrap() error {
	return e.Kind
}
