package resolve

import "testing"

func TestExtractSenderKnownSenderWins(t *testing.T) {
	// A known-sender hit anywhere in the lines beats a heuristic-keyword
	// line appearing earlier.
	lines := []string{
		"서울중앙지방법원",
		"04524",
		"국민건강보험공단 성동지사",
	}
	known := []string{"국민건강보험"}

	got := ExtractSender(lines, known)
	if got != "국민건강보험" {
		t.Errorf("ExtractSender() = %q, want %q", got, "국민건강보험")
	}
}

func TestExtractSenderHeuristicKeywords(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "institutional keyword line",
			lines: []string{"12345", "강남세무서", "홍길동 귀하"},
			want:  "강남세무서",
		},
		{
			name:  "corporate suffix",
			lines: []string{"(주)한빛전자", "서울시 강남구"},
			want:  "(주)한빛전자",
		},
		{
			name: "keyword line too long is skipped",
			lines: []string{
				"주식회사 아주아주아주아주아주아주아주아주아주아주아주 긴 이름의 회사",
				"우리은행",
			},
			want: "우리은행",
		},
		{
			name:  "keyword line too short is skipped",
			lines: []string{"은행", "신한은행 본점"},
			want:  "신한은행 본점",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractSender(tc.lines, nil)
			if got != tc.want {
				t.Errorf("ExtractSender(%v) = %q, want %q", tc.lines, got, tc.want)
			}
		})
	}
}

func TestExtractSenderPositionalFallback(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "skips postal code and phone noise",
			lines: []string{"04524", "02-123-4567", "한빛물산", "서울시 중구"},
			want:  "한빛물산",
		},
		{
			name:  "skips uppercase and punctuation runs",
			lines: []string{"REG-NO. 22", "한빛물산", "서울시 중구"},
			want:  "한빛물산",
		},
		{
			name:  "only scans the first five lines",
			lines: []string{"1", "2", "3", "4", "5", "여섯번째 줄의 발신처"},
			want:  "",
		},
		{
			name:  "nothing qualifies",
			lines: []string{"11122", "에이"},
			want:  "",
		},
		{
			name:  "empty input",
			lines: nil,
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractSender(tc.lines, nil)
			if got != tc.want {
				t.Errorf("ExtractSender(%v) = %q, want %q", tc.lines, got, tc.want)
			}
		})
	}
}
