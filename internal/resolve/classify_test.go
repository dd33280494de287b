package resolve

import "testing"

func TestClassify(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		sender string
		want   MailCategory
	}{
		{"tax keyword", "종합소득세 세금 납부 안내", "", CategoryTax},
		{"tax keyword in sender only", "납부 안내문", "강남세무서 국세 담당", CategoryTax},
		{"english tax keyword lowercased", "notice of tax assessment", "", CategoryTax},
		{"insurance keyword", "건강보험료 납입 고지", "", CategoryInsurance},
		{"pension via sender", "안내문", "국민연금공단", CategoryInsurance},
		{"fine keyword", "주정차 위반 과태료 부과", "", CategoryFine},
		{"warning keyword", "최종 경고 통지", "", CategoryFine},
		{"bill keyword", "12월 전기 요금 청구", "", CategoryBill},
		{"statement keyword", "카드 이용 명세서", "", CategoryBill},
		{"registered keyword", "등기 우편물 도착 안내", "", CategoryRegistered},
		{"default", "안녕하세요", "", CategoryGeneral},
		{"empty input", "", "", CategoryGeneral},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text, tc.sender)
			if got != tc.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tc.text, tc.sender, got, tc.want)
			}
		})
	}
}

// Tax keywords are checked before billing keywords: a tax notice that also
// mentions a payment statement must never be filed as a utility bill.
func TestClassifyOrderEncodesPriority(t *testing.T) {
	got := Classify("세금 납부 고지서", "")
	if got != CategoryTax {
		t.Errorf("Classify() = %q, want %q", got, CategoryTax)
	}
}

// Classification is a pure function of its inputs.
func TestClassifyIsDeterministic(t *testing.T) {
	text, sender := "건강보험 납입 고지서", "국민건강보험공단"
	first := Classify(text, sender)
	for i := 0; i < 10; i++ {
		if got := Classify(text, sender); got != first {
			t.Fatalf("Classify() returned %q after returning %q for identical input", got, first)
		}
	}
}
