package resolve

import (
	"context"
	"strings"

	"github.com/postnoti/mailroom-worker/internal/apperr"
	"github.com/postnoti/mailroom-worker/internal/imaging"
	"github.com/postnoti/mailroom-worker/internal/logging"
)

// Resolver orchestrates one full resolution: normalize, recognize, classify,
// match, gate the sender, package the result. It is stateless; every call
// takes explicit snapshots and returns a fresh result.
type Resolver struct {
	recognizer Recognizer
	normalizer *imaging.Normalizer
	log        *logging.Logger
}

// NewResolver creates a resolution coordinator.
func NewResolver(recognizer Recognizer, normalizer *imaging.Normalizer) *Resolver {
	return &Resolver{
		recognizer: recognizer,
		normalizer: normalizer,
		log:        logging.NewLogger("resolve"),
	}
}

// Resolve runs the pipeline for one photographed mail item.
//
// Recognition reads the original image bytes; the normalized payload exists
// for display and registration only. An empty recognition result is "no
// signal" and still completes with the default category and no match. A
// recognizer error is a hard failure and propagates; the caller decides
// whether the operator retries.
func (r *Resolver) Resolve(ctx context.Context, image []byte, knownSenders []string, roster []TenantProfile) (*ResolutionResult, *imaging.Normalized, error) {
	if err := ValidateRoster(roster); err != nil {
		return nil, nil, err
	}

	normalized := r.normalizer.Normalize(image)

	rec, err := r.recognizer.Recognize(ctx, image, knownSenders)
	if err != nil {
		return nil, nil, apperr.NewRecognitionFailed("", backendName(r.recognizer), err)
	}

	if rec.Text == "" {
		r.log.Info("recognition returned no signal")
		return &ResolutionResult{
			Category:      CategoryGeneral,
			Sender:        "",
			MatchedTenant: nil,
			Text:          "",
		}, normalized, nil
	}

	category := Classify(rec.Text, rec.Sender)
	match := MatchTenant(rec.Text, rec.Sender, roster)

	sender := gateSender(rec.Sender, knownSenders, match)

	matchedID := ""
	if match != nil {
		matchedID = match.ID
	}
	r.log.Info("resolution complete",
		"category", category, "sender", sender, "matchedTenant", matchedID)

	return &ResolutionResult{
		Category:      category,
		Sender:        sender,
		MatchedTenant: match,
		Text:          rec.Text,
	}, normalized, nil
}

// gateSender decides whether the recognized sender is surfaced to the
// operator. Only a sender that overlaps the curated known-sender list in
// either direction is trusted; anything else is blanked so the operator
// confirms manually. A matched tenant's own name and company name are
// stripped out so the recipient is never echoed back as the sender.
func gateSender(sender string, knownSenders []string, match *TenantProfile) string {
	if sender == "" {
		return ""
	}

	trusted := false
	for _, s := range knownSenders {
		if strings.Contains(sender, s) || strings.Contains(s, sender) {
			trusted = true
			break
		}
	}
	if !trusted {
		return ""
	}

	clean := sender
	if match != nil {
		if match.Name != "" {
			clean = strings.TrimSpace(strings.Replace(clean, match.Name, "", 1))
		}
		if match.CompanyName != "" {
			clean = strings.TrimSpace(strings.Replace(clean, match.CompanyName, "", 1))
		}
	}
	return clean
}

// backendName reports the recognizer implementation for error context.
func backendName(r Recognizer) string {
	type named interface{ Name() string }
	if n, ok := r.(named); ok {
		return n.Name()
	}
	return "unknown"
}
