package resolve

import (
	"errors"
	"fmt"
)

// Notification is the composed arrival notice for one resolved mail item:
// who to notify and with what text. Delivery is someone else's job.
type Notification struct {
	ProfileID string `json:"profile_id"`
	PushToken string `json:"push_token,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// BuildNotification composes the operator-confirmed arrival notice for the
// matched tenant. Fails when there is no match or the tenant has moved out;
// a notice must never target a vacated unit.
func BuildNotification(companyName string, result *ResolutionResult, extraPages bool) (*Notification, error) {
	if result == nil || result.MatchedTenant == nil {
		return nil, errors.New("no matched tenant to notify")
	}

	tenant := result.MatchedTenant
	if !tenant.IsActive {
		return nil, fmt.Errorf("tenant %s is no longer active", tenant.ID)
	}

	body := ""
	if result.Sender != "" {
		body = fmt.Sprintf("%s에서 보낸 ", result.Sender)
	}
	body += fmt.Sprintf("%s 우편물이 도착했습니다.", result.Category)
	if extraPages {
		body += " (상세 사진 포함)"
	}

	return &Notification{
		ProfileID: tenant.ID,
		PushToken: tenant.PushToken,
		Title:     fmt.Sprintf("[%s] 우편물 도착 📮", companyName),
		Body:      body,
	}, nil
}
