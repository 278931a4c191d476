// Package enrich turns fetch results into store patches.
package enrich

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	titleSplitRe = regexp.MustCompile(`\s*(?:\||—|–| - | :: | : )\s*`)
	brandRe      = regexp.MustCompile(`(?i)\b(law|llc|pllc|pc|inc|ltd|group|firm|partners|associates|network)\b`)
	genericRe    = regexp.MustCompile(`(?i)\b(attorney|attorneys|lawyer|lawyers|immigration|criminal|defense|new\s+orleans|louisiana|baton\s+rouge|alexandria|lafayette)\b`)
	nameSpaceRe  = regexp.MustCompile(`\s+`)
	homeSuffixRe = regexp.MustCompile(`(?i)\s*\b(homepage|home)\b\s*$`)
)

// CompanyNameFromTitle guesses a company name from a page title. The title is
// entity-decoded and split on every separator at once; each chunk is scored
// and the highest-scoring one wins, earlier chunks winning ties. Trailing
// "Home"/"Homepage" chrome is stripped and the result is capped at 80 chars.
func CompanyNameFromTitle(title string) string {
	decoded := strings.TrimSpace(html.UnescapeString(title))
	if decoded == "" {
		return ""
	}

	var chunks []string
	for _, c := range titleSplitRe.Split(decoded, -1) {
		if c = strings.TrimSpace(c); c != "" {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return ""
	}

	best := ""
	bestScore := -1
	for _, c := range chunks {
		if score := scoreChunk(c); score > bestScore {
			best = c
			bestScore = score
		}
	}

	best = homeSuffixRe.ReplaceAllString(best, "")
	best = strings.TrimSpace(nameSpaceRe.ReplaceAllString(best, " "))
	if utf8.RuneCountInString(best) > 80 {
		r := []rune(best)
		best = strings.TrimSpace(string(r[:80]))
	}
	return best
}

// scoreChunk rates how much a title chunk looks like a real brand name: a
// brand suffix anywhere scores once, role and geography words disqualify the
// no-generic bonus, and moderate length beats both extremes.
func scoreChunk(chunk string) int {
	s := strings.TrimSpace(nameSpaceRe.ReplaceAllString(chunk, " "))
	score := 0
	if brandRe.MatchString(s) {
		score += 5
	}
	if !genericRe.MatchString(s) {
		score += 3
	}
	if s != strings.ToLower(s) {
		score++
	}
	switch n := utf8.RuneCountInString(s); {
	case n <= 40:
		score += 2
	case n <= 60:
		score++
	}
	return score
}
