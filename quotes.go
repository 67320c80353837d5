package hanconv

import (
	"regexp"
	"strings"
)

// Fixed bidirectional quotation tables. East-Asian corner brackets pair
// with Western curly quotes; the two tables are exact inverses.
var (
	eastToWestQuotes = map[string]string{
		"「": "“", "」": "”", "『": "‘", "』": "’",
	}
	westToEastQuotes = map[string]string{
		"“": "「", "”": "」", "‘": "『", "’": "』",
	}

	eastToWestMatcher = alternation(eastToWestQuotes)
	westToEastMatcher = alternation(westToEastQuotes)
)

// alternation compiles a single-pass matcher over the table's keys.
func alternation(table map[string]string) *regexp.Regexp {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return regexp.MustCompile(strings.Join(keys, "|"))
}

// multiReplace substitutes every match of re with its table entry in a
// single pass, so replacements never feed each other.
func multiReplace(re *regexp.Regexp, table map[string]string, text string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return table[m]
	})
}

// replaceQuotes remaps quotation glyphs per the policy.
func replaceQuotes(policy QuotationPolicy, text string) string {
	switch policy {
	case QuotesWestern:
		return multiReplace(eastToWestMatcher, eastToWestQuotes, text)
	case QuotesEastAsian:
		return multiReplace(westToEastMatcher, westToEastQuotes, text)
	default:
		return text
	}
}
