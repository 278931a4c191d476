package crawl

import (
	"regexp"
	"sort"
	"strings"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)
)

// stripScriptStyle removes script and style blocks so embedded code cannot
// produce false-positive email matches.
func stripScriptStyle(html string) string {
	html = scriptRe.ReplaceAllString(html, " ")
	return styleRe.ReplaceAllString(html, " ")
}

// extractTitle returns the trimmed content between the first <title> tag and
// the first </title>. Malformed markup (close before open, or no close)
// yields "".
func extractTitle(html string) string {
	lower := strings.ToLower(html)
	start := strings.Index(lower, "<title")
	if start < 0 {
		return ""
	}
	open := strings.Index(lower[start:], ">")
	if open < 0 {
		return ""
	}
	contentStart := start + open + 1
	end := strings.Index(lower, "</title>")
	if end < 0 || end < contentStart {
		return ""
	}
	return strings.TrimSpace(html[contentStart:end])
}

// extractDescription locates the name="description" marker, then the nearest
// following content= attribute, and reads its quoted value. The closing quote
// must match the opening quote. Any failure yields "".
func extractDescription(html string) string {
	lower := strings.ToLower(html)
	pos := strings.Index(lower, `name="description"`)
	if pos < 0 {
		pos = strings.Index(lower, `name='description'`)
	}
	if pos < 0 {
		return ""
	}

	ci := strings.Index(lower[pos:], "content=")
	if ci < 0 {
		return ""
	}
	vi := pos + ci + len("content=")
	if vi >= len(html) {
		return ""
	}

	quote := html[vi]
	if quote != '"' && quote != '\'' {
		return ""
	}
	end := strings.IndexByte(html[vi+1:], quote)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(html[vi+1 : vi+1+end])
}

// visibleText replaces remaining tags with a space and collapses whitespace
// runs to one space. Input should already be script/style-stripped.
func visibleText(html string) string {
	text := tagRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// extractEmails returns all email addresses in the text, deduplicated and
// sorted. Dedup is exact-case: addresses differing only in case both survive.
func extractEmails(text string) []string {
	matches := emailRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
