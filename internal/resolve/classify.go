package resolve

import "strings"

// categoryRule is one ordered classification tier.
type categoryRule struct {
	category MailCategory
	keywords []string
}

// categoryRules are evaluated in order; the order encodes priority. Tax
// keywords come before generic billing keywords so a tax notice is never
// filed as a routine utility bill.
var categoryRules = []categoryRule{
	{CategoryTax, []string{"세금", "국세", "TAX"}},
	{CategoryInsurance, []string{"보험", "공단", "PENSION"}},
	{CategoryFine, []string{"독촉", "경고", "과태료", "POLICE"}},
	{CategoryBill, []string{"요금", "명세서", "고지서", "BILL"}},
	{CategoryRegistered, []string{"등기", "REGISTERED"}},
}

// Classify assigns exactly one mail category from the combined recognized
// text and extracted sender. Pure function of its inputs; defaults to 일반.
func Classify(text, sender string) MailCategory {
	combined := strings.ToUpper(text + " " + sender)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(combined, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}
