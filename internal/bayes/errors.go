package bayes

import (
	"fmt"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// ConfigurationError reports a malformed network definition. It is raised at
// construction time only; a process must not serve queries after seeing one.
type ConfigurationError struct {
	Node   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("bayes: invalid network: %s", e.Reason)
	}
	return fmt.Sprintf("bayes: invalid network: node %q: %s", e.Node, e.Reason)
}

// MissingFactorError reports an estimate query that omitted a factor.
// All seven factors are required; there is no implicit defaulting.
type MissingFactorError struct {
	Factor domain.Factor
}

func (e *MissingFactorError) Error() string {
	return fmt.Sprintf("bayes: missing factor %q", e.Factor)
}

// InvalidFactorValueError reports a level outside a factor's enumerated set.
type InvalidFactorValueError struct {
	Factor domain.Factor
	Value  domain.Level
}

func (e *InvalidFactorValueError) Error() string {
	return fmt.Sprintf("bayes: invalid level %q for factor %q (valid: %v)",
		e.Value, e.Factor, domain.LevelsFor(e.Factor))
}
