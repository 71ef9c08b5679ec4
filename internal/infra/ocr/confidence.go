package ocr

import "regexp"

var (
	reHasEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reHasPhone = regexp.MustCompile(`\d{3}[-. )]*\d{3}[-. ]*\d{4}`)
	reHasName  = regexp.MustCompile(`(?m)^[A-Z][a-z]+ [A-Z][a-z]+`)
)

// naive heuristic confidence based on contact-card artifacts in the decoded text
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if reHasEmail.MatchString(txt) {
		score += 0.3
	}
	if reHasPhone.MatchString(txt) {
		score += 0.2
	}
	if reHasName.MatchString(txt) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
