package hanconv

import "regexp"

// horizontalToVertical is the master table of horizontal full-width
// punctuation to its vertical presentation form.
var horizontalToVertical = map[string]string{
	"。": "︒", "、": "︑", "；": "︔", "：": "︓", "！": "︕", "？": "︖",
	"「": "﹁", "」": "﹂", "〈": "︿", "〉": "﹀", "『": "﹃", "』": "﹄",
	"《": "︽", "》": "︾", "【": "︻", "】": "︼", "（": "︵", "）": "︶",
	"〖": "︗", "〗": "︘", "〔": "︹", "〕": "︺", "｛": "︷", "｝": "︸",
	"［": "﹇", "］": "﹈", "…": "︙", "‥": "︰", "—": "︱", "＿": "︳",
	"﹏": "︴", "，": "︐",
}

// DefaultPunctuationOmits lists the marks whose vertical presentation
// forms are generally not used in vertical text, derived from surveying
// published vertical-layout books. Callers may pass their own set.
const DefaultPunctuationOmits = "。、；：！？…‥＿﹏，"

// punctuationMap is one direction of presentation-form substitution:
// the table plus its compiled alternation matcher.
type punctuationMap struct {
	table   map[string]string
	matcher *regexp.Regexp
}

func (p *punctuationMap) apply(text string) string {
	if p == nil {
		return text
	}
	return multiReplace(p.matcher, p.table, text)
}

// newPunctuationMap builds the substitution map for the requested
// orientation, excluding the omitted horizontal marks from both
// directions. Vertical output uses the forward (horizontal->vertical)
// table, horizontal output its inverse. Returns nil when the orientation
// does not change or every mark is omitted.
func newPunctuationMap(orientation Orientation, omitted string) *punctuationMap {
	if orientation == OrientationNoChange {
		return nil
	}

	omit := make(map[rune]bool, len(omitted))
	for _, r := range omitted {
		omit[r] = true
	}

	table := make(map[string]string, len(horizontalToVertical))
	for h, v := range horizontalToVertical {
		if omit[[]rune(h)[0]] {
			continue
		}
		if orientation == OrientationVertical {
			table[h] = v
		} else {
			table[v] = h
		}
	}
	if len(table) == 0 {
		return nil
	}

	return &punctuationMap{table: table, matcher: alternation(table)}
}
