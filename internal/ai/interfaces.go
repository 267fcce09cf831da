package ai

import (
	"context"

	"github.com/aravind45/whynointerviews/internal/types"
)

// ReasoningProvider is the external reasoning capability. Its output is an
// untrusted oracle: callers must validate, bound, and cite every claim
// before trusting it as a diagnosis.
// All methods return token usage information - callers can ignore it if not needed.
type ReasoningProvider interface {
	Diagnose(ctx context.Context, input types.DiagnoseInput) (types.DiagnoseOutput, *TokenUsage, error)
	ExtractClaims(ctx context.Context, input types.ExtractClaimsInput) (types.ExtractClaimsOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
