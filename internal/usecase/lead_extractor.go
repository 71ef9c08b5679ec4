package usecase

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
)

const (
	// PlaceholderEmailDomain is used for candidates synthesized from a name with no email.
	PlaceholderEmailDomain = "example.com"
	maxSynthesizedLeads    = 3
	minPhoneDigits         = 10
)

var (
	reEmail = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	rePhone = regexp.MustCompile(`(\+?\d{1,3}[-. \t]?)?\(?\d{3}\)?[-. \t]?\d{3}[-. \t]?\d{4}`)

	reNameLine     = regexp.MustCompile(`(?m)^[ \t]*([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,2})\b`)
	reNameLabelled = regexp.MustCompile(`(?m)(?:Name|Contact)[ \t]*:?[ \t]*([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,2})\b`)

	reNonPhone = regexp.MustCompile(`[^\d+]`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

// ExtractCandidates scans text for emails, phones and names and pairs them by position:
// the i-th email goes with the i-th name and the i-th phone.
//
// The pairing is a heuristic. Nothing guarantees that the i-th name in document order
// belongs to the i-th email.
func ExtractCandidates(text string) ([]entity.Candidate, error) {
	return guardCandidates(scanCandidates, text)
}

// guardCandidates runs fn and turns a panic into an error with no candidates.
func guardCandidates(fn func(string) ([]entity.Candidate, error), text string) (cands []entity.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("lead extraction panicked", "panic", r)
			cands = nil
			err = fmt.Errorf("lead extraction: %v", r)
		}
	}()
	return fn(text)
}

func scanCandidates(text string) ([]entity.Candidate, error) {
	emails := findEmails(text)
	phones := findPhones(text)
	names := findNames(text)

	slog.Debug("lead extraction matches", "emails", len(emails), "phones", len(phones), "names", len(names))

	cands := make([]entity.Candidate, 0, len(emails))
	for i, email := range emails {
		c := entity.Candidate{
			Name:  fmt.Sprintf("Lead %d", i+1),
			Email: email,
		}
		if i < len(names) {
			c.Name = names[i]
		}
		if i < len(phones) {
			c.Phone = phones[i]
		}
		if c.Email != "" && strings.Contains(c.Email, "@") {
			cands = append(cands, c)
		}
	}

	// more names than emails: keep a few of them with a fabricated address
	extra := 0
	for i := len(emails); i < len(names) && extra < maxSynthesizedLeads; i++ {
		c := entity.Candidate{
			Name:        names[i],
			Email:       placeholderEmail(names[i]),
			Synthesized: true,
		}
		if i < len(phones) {
			c.Phone = phones[i]
		}
		cands = append(cands, c)
		extra++
	}

	return cands, nil
}

func findEmails(text string) []string {
	return dedupe(reEmail.FindAllString(text, -1))
}

func findPhones(text string) []string {
	var out []string
	for _, m := range rePhone.FindAllString(text, -1) {
		clean := reNonPhone.ReplaceAllString(m, "")
		if countDigits(clean) < minPhoneDigits {
			continue
		}
		out = append(out, clean)
	}
	return dedupe(out)
}

type match struct {
	pos  int
	text string
}

// findNames merges line-anchored and labelled names in document order.
func findNames(text string) []string {
	var found []match
	for _, re := range []*regexp.Regexp{reNameLine, reNameLabelled} {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			name := reSpaces.ReplaceAllString(text[idx[2]:idx[3]], " ")
			if isLabel(name) {
				continue
			}
			found = append(found, match{pos: idx[2], text: name})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	names := make([]string, 0, len(found))
	for _, m := range found {
		names = append(names, m.text)
	}
	return dedupe(names)
}

// isLabel drops "Name Jane" style captures where the label itself matched as a first name.
func isLabel(name string) bool {
	first, _, _ := strings.Cut(name, " ")
	return first == "Name" || first == "Contact"
}

func placeholderEmail(name string) string {
	local := strings.ToLower(strings.Join(strings.Fields(name), "."))
	return local + "@" + PlaceholderEmailDomain
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// dedupe keeps the first occurrence of each exact string.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
