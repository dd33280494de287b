package resolve

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// senderKeywords are institutional markers that identify a sender line:
// government offices, banks, insurers and corporate suffixes.
var senderKeywords = []string{
	"구청", "시청", "세무서", "국세청", "법원", "경찰청", "우체국", "은행",
	"카드", "보험", "증권", "공사", "공단", "교육청", "주식회사", "(주)", "CS", "센터",
}

// noisePatterns reject lines that look like postal codes, phone numbers, or
// barcode/routing garbage rather than a sender name.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[0-9]{5}`),
	regexp.MustCompile(`[0-9]{2,3}-[0-9]{3,4}-[0-9]{4}`),
	regexp.MustCompile(`^[0-9A-Z\(\)\-\s\.]+$`),
}

// ExtractSender produces a best-guess sender string from recognized text
// lines. Rules are tried in strict priority order, first match wins:
//
//  1. A curated known-sender keyword appearing as a substring of any line
//     (the keyword itself is returned).
//  2. A line containing an institutional keyword, if the line is between 4
//     and 29 characters (the trimmed line is returned).
//  3. One of the first 5 lines, longer than 3 characters and not matching a
//     noise pattern. Sender blocks sit near the top of an envelope.
//
// Returns an empty string when nothing qualifies.
func ExtractSender(lines []string, knownSenders []string) string {
	for _, line := range lines {
		cleanLine := strings.TrimSpace(line)
		for _, s := range knownSenders {
			if s != "" && strings.Contains(cleanLine, s) {
				return s
			}
		}
	}

	for _, line := range lines {
		cleanLine := strings.TrimSpace(line)
		if !containsAny(cleanLine, senderKeywords) {
			continue
		}
		if n := utf8.RuneCountInString(cleanLine); n > 3 && n < 30 {
			return cleanLine
		}
	}

	for i := 0; i < len(lines) && i < 5; i++ {
		line := strings.TrimSpace(lines[i])
		if utf8.RuneCountInString(line) > 3 && !matchesAny(line, noisePatterns) {
			return line
		}
	}

	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
