// Package keywords holds the text handling of the keyword pipeline: script
// detection on the topic, keyword extraction from news text, cleanup of LLM
// output, and boolean query construction.
package keywords

import (
	"regexp"
	"strings"
	"unicode"
)

// indicScripts are the Unicode blocks that mark a topic as written in an
// Indian language.
var indicScripts = []*unicode.RangeTable{
	rangeTable(0x0900, 0x097F), // Devanagari
	rangeTable(0x0980, 0x09FF), // Bengali / Assamese
	rangeTable(0x0A00, 0x0A7F), // Gurmukhi
	rangeTable(0x0A80, 0x0AFF), // Gujarati
	rangeTable(0x0B00, 0x0B7F), // Odia
	rangeTable(0x0B80, 0x0BFF), // Tamil
	rangeTable(0x0C00, 0x0C7F), // Telugu
	rangeTable(0x0C80, 0x0CFF), // Kannada
	rangeTable(0x0D00, 0x0D7F), // Malayalam
}

func rangeTable(lo, hi uint16) *unicode.RangeTable {
	return &unicode.RangeTable{R16: []unicode.Range16{{Lo: lo, Hi: hi, Stride: 1}}}
}

var (
	enumerationRe = regexp.MustCompile(`^\p{Nd}+[.\-)\s\p{Z}]*`)
	bracketedRe   = regexp.MustCompile(`\(.*?\)|\[.*?\]`)
)

// IsASCII reports whether s reads as English input: it contains no
// Indian-script runes and every letter in it is ASCII.
func IsASCII(s string) bool {
	for _, r := range s {
		if unicode.IsOneOf(indicScripts, r) {
			return false
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) && r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// ExtractCapitalized returns the capitalised tokens of text in order of
// first appearance, without duplicates. A token is an ASCII capital followed
// by one or more of [a-zA-Z0-9&], bounded on both sides by a change between
// word and non-word runes, where any Unicode letter or number is a word rune.
// A Latin token glued to Devanagari or accented letters is not a token.
func ExtractCapitalized(text string) []string {
	runes := []rune(text)
	var found []string
	for i := 0; i < len(runes); {
		if !isUpperASCII(runes[i]) || (i > 0 && isWordRune(runes[i-1])) {
			i++
			continue
		}
		end := i + 1
		for end < len(runes) && isTokenRune(runes[end]) {
			end++
		}
		// Give back runes until the token ends on a word boundary.
		for ; end > i+1; end-- {
			if isWordRune(runes[end-1]) != (end < len(runes) && isWordRune(runes[end])) {
				break
			}
		}
		if end == i+1 {
			i++
			continue
		}
		found = append(found, string(runes[i:end]))
		i = end
	}
	return dedupe(found)
}

func isUpperASCII(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isTokenRune(r rune) bool {
	return r >= 'a' && r <= 'z' || isUpperASCII(r) || r >= '0' && r <= '9' || r == '&'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// ParseGenerated turns raw model output into a keyword list, one keyword per
// non-blank line, with list numbering (in any script's digits), bracketed
// asides and quotes removed. Lines that clean to nothing are dropped and
// repeated keywords are kept once, at their first position.
func ParseGenerated(output string) []string {
	var out []string
	for _, line := range strings.Split(output, "\n") {
		if kw := CleanLine(line); kw != "" {
			out = append(out, kw)
		}
	}
	return dedupe(out)
}

// CleanLine normalises a single line of model output.
func CleanLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	cleaned := enumerationRe.ReplaceAllString(line, "")
	cleaned = bracketedRe.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(cleaned, `"`)
	cleaned = strings.Trim(cleaned, `'`)
	return strings.TrimSpace(cleaned)
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
