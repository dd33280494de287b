package recognition

import (
	"context"

	"github.com/postnoti/mailroom-worker/internal/resolve"
)

// Noop is the recognition stub for deployments without an OCR capability.
// It reports "no signal" rather than failing, so the pipeline still
// completes and the operator fills everything in manually.
type Noop struct{}

// NewNoop creates the no-op recognizer.
func NewNoop() *Noop { return &Noop{} }

// Name reports the backend identifier.
func (n *Noop) Name() string { return "none" }

// Recognize returns an empty result and no error.
func (n *Noop) Recognize(ctx context.Context, image []byte, hints []string) (resolve.Recognition, error) {
	return resolve.Recognition{}, nil
}
