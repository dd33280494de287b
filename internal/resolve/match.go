package resolve

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Score weights for the tenant matcher. Short company names are common
// substrings and get a discounted weight to avoid false positives.
const (
	scoreCompanyLong  = 15
	scoreCompanyShort = 8
	scoreName         = 5
	scoreNameWithRoom = 10
	scoreHonorific    = 7
	scoreRoom         = 5

	// scoreFloor is the minimum-confidence floor: a single weak hit must not
	// produce a match.
	scoreFloor = 1
)

// honorificSuffixes mark a recipient line when adjacent to a personal name.
var honorificSuffixes = []string{" 귀하", "님", " 앞"}

// MatchTenant scores every roster entry against the recognized text and
// returns the single best candidate, or nil when no tenant clears the
// confidence floor. Lines containing excludeSender are skipped so the sender
// block cannot be mistaken for a recipient line.
func MatchTenant(text, excludeSender string, roster []TenantProfile) *TenantProfile {
	lines := SplitLines(text)
	for i, l := range lines {
		lines[i] = normalizeForMatch(l)
	}
	exclude := normalizeForMatch(excludeSender)

	candidates := make([]MatchCandidate, 0, len(roster))
	for _, p := range roster {
		candidates = append(candidates, MatchCandidate{
			Profile: p,
			Score:   scoreProfile(lines, exclude, p),
		})
	}

	return bestCandidate(candidates)
}

// scoreProfile accumulates match evidence for one tenant across all lines.
// Scores accumulate across lines rather than capping per rule; repeated
// mentions are treated as repeated evidence.
func scoreProfile(lines []string, exclude string, p TenantProfile) int {
	name := normalizeForMatch(p.Name)
	company := normalizeForMatch(p.CompanyName)
	room := normalizeForMatch(p.RoomNumber)

	var roomPattern *regexp.Regexp
	if room != "" {
		// Digit boundaries keep a room number from matching inside a longer
		// number such as a phone number.
		roomPattern = regexp.MustCompile(`(^|[^0-9])` + regexp.QuoteMeta(room) + `([^0-9]|$)`)
	}

	score := 0
	for _, line := range lines {
		if exclude != "" && strings.Contains(line, exclude) {
			continue
		}

		if company != "" && strings.Contains(line, company) {
			if utf8.RuneCountInString(company) > 2 {
				score += scoreCompanyLong
			} else {
				score += scoreCompanyShort
			}
		}

		if strings.Contains(line, name) {
			score += scoreName
			if room != "" && strings.Contains(line, room) {
				score += scoreNameWithRoom
			}
			for _, suffix := range honorificSuffixes {
				if strings.Contains(line, name+suffix) {
					score += scoreHonorific
					break
				}
			}
		}

		if roomPattern != nil && roomPattern.MatchString(line) {
			score += scoreRoom
		}
	}

	return score
}

// bestCandidate applies the confidence floor and picks the strictly
// highest-scoring survivor. Ties break on ascending profile ID so the result
// is deterministic regardless of roster order.
func bestCandidate(candidates []MatchCandidate) *TenantProfile {
	survivors := candidates[:0]
	for _, c := range candidates {
		if c.Score > scoreFloor {
			survivors = append(survivors, c)
		}
	}

	if len(survivors) == 0 {
		return nil
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].Score != survivors[j].Score {
			return survivors[i].Score > survivors[j].Score
		}
		return survivors[i].Profile.ID < survivors[j].Profile.ID
	})

	best := survivors[0].Profile
	return &best
}

// normalizeForMatch lowercases and NFKC-normalizes a string so that
// full-width/half-width variants in OCR output compare equal to roster
// fields.
func normalizeForMatch(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}
