package keywords

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned for boolean modes other than OR, AND and COMBO.
var ErrUnknownMode = errors.New("unknown boolean mode")

// Mode selects how keywords are combined into a boolean query.
type Mode string

const (
	ModeOr    Mode = "OR"
	ModeAnd   Mode = "AND"
	ModeCombo Mode = "COMBO"
)

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeOr:
		return ModeOr, nil
	case ModeAnd:
		return ModeAnd, nil
	case ModeCombo:
		return ModeCombo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// BuildQuery renders keywords as a boolean search query. OR and AND quote
// every keyword; COMBO ORs together every AND-ed pair.
func BuildQuery(keywords []string, mode Mode) (string, error) {
	switch mode {
	case ModeOr, ModeAnd, ModeCombo:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
	if len(keywords) == 0 {
		return "", nil
	}

	switch mode {
	case ModeOr:
		return joinQuoted(keywords, " OR "), nil
	case ModeAnd:
		return joinQuoted(keywords, " AND "), nil
	}

	pairs := Combinations(keywords)
	groups := make([]string, len(pairs))
	for i, p := range pairs {
		groups[i] = "(" + p + ")"
	}
	return strings.Join(groups, " OR "), nil
}

// Combinations returns every unordered keyword pair, in input order, as
// "a AND b".
func Combinations(keywords []string) []string {
	if len(keywords) < 2 {
		return []string{}
	}
	out := make([]string, 0, len(keywords)*(len(keywords)-1)/2)
	for i := 0; i < len(keywords); i++ {
		for j := i + 1; j < len(keywords); j++ {
			out = append(out, keywords[i]+" AND "+keywords[j])
		}
	}
	return out
}

func joinQuoted(keywords []string, sep string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = `"` + k + `"`
	}
	return strings.Join(quoted, sep)
}
