/**
 * Core types for the OCR-to-tenant resolution pipeline.
 *
 * The resolve package turns recognized envelope text into a mail category,
 * a best-guess sender, and a ranked tenant match. It holds no state and
 * touches no storage: rosters and known-sender lists arrive as read-only
 * snapshots per call, results are packaged for the caller.
 */

package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/postnoti/mailroom-worker/internal/apperr"
)

// MailCategory is a closed classification label for a piece of mail.
type MailCategory string

const (
	CategoryTax        MailCategory = "세금/국세"
	CategoryInsurance  MailCategory = "공단/보험"
	CategoryFine       MailCategory = "과태료/경고"
	CategoryBill       MailCategory = "고지서/요금"
	CategoryRegistered MailCategory = "등기/중요"
	CategoryGeneral    MailCategory = "일반"
)

// TenantProfile is an immutable roster snapshot entry for one recipient unit.
// Column names follow the record store schema.
type TenantProfile struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name,omitempty"`
	RoomNumber  string `json:"room_number,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsActive    bool   `json:"is_active"`
	IsPremium   bool   `json:"is_premium,omitempty"`
	PushToken   string `json:"push_token,omitempty"`
}

// Recognition is the output of the external text-recognition capability:
// the raw newline-delimited text plus the recognizer's own sender guess.
type Recognition struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// Recognizer is the text-recognition capability. Implementations must return
// an empty Recognition (not an error) when recognition is unavailable on the
// current platform; a returned error is a hard failure.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, hints []string) (Recognition, error)
}

// MatchCandidate pairs a tenant with its accumulated match score. Candidates
// live only within a single matching invocation.
type MatchCandidate struct {
	Profile TenantProfile
	Score   int
}

// ResolutionResult is the packaged outcome of one resolution call, handed to
// the caller for operator review. Never mutated after creation.
type ResolutionResult struct {
	Category      MailCategory   `json:"category"`
	Sender        string         `json:"sender"`
	MatchedTenant *TenantProfile `json:"matched_tenant"`
	Text          string         `json:"text"`
}

// SplitLines segments recognizer output into trimmed, non-empty lines.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// ValidateRoster rejects malformed roster snapshots before they can skew
// match scores. An entry without a name matches every line trivially.
func ValidateRoster(roster []TenantProfile) error {
	for i, p := range roster {
		if strings.TrimSpace(p.Name) == "" {
			return apperr.NewInvalidRoster(fmt.Sprintf("entry %d has an empty name", i))
		}
	}
	return nil
}
