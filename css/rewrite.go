package css

import (
	"strings"

	"go.uber.org/zap"
)

// Sheet is one stylesheet resource being rewritten. EnsureFlowDirection
// updates Content in place and marks Changed on the sheets it touched.
type Sheet struct {
	ID      string
	Href    string
	Content string
	Changed bool
}

// flowSelectors is the search order for the rule that carries the
// writing-mode properties. Calibre-produced books style everything from
// a .calibre class on the body; plain books get the body rule itself.
var flowSelectors = []string{".calibre", "body"}

// flowDeclarations returns the writing-mode property set for the
// requested direction. The prefixed duplicates cover older EPUB reading
// systems that never picked up the unprefixed names.
func flowDeclarations(vertical bool) []Declaration {
	mode, lineBreak := "horizontal-tb", "auto"
	if vertical {
		mode, lineBreak = "vertical-rl", "normal"
	}
	return []Declaration{
		{Property: "writing-mode", Value: mode},
		{Property: "-epub-writing-mode", Value: mode},
		{Property: "-webkit-writing-mode", Value: mode},
		{Property: "line-break", Value: lineBreak},
		{Property: "-webkit-line-break", Value: lineBreak},
	}
}

// FlowStylesheet returns the content of a fresh stylesheet holding only
// the writing-mode rule. Used when a book owns no stylesheet at all.
func FlowStylesheet(vertical bool) string {
	sheet := &Stylesheet{}
	sheet.Append(&Rule{
		Selectors:    []string{"body"},
		Declarations: flowDeclarations(vertical),
	})
	return sheet.String()
}

// EnsureFlowDirection pushes the writing-mode properties into the given
// sheets and returns how many of them changed. The properties land on
// every .calibre rule found across the sheets; failing that on every
// body rule; and when neither selector exists anywhere, a body rule is
// appended to each sheet. Unchanged sheets keep their original text byte
// for byte.
func EnsureFlowDirection(sheets []*Sheet, vertical bool, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	parser := NewParser(log)

	parsed := make([]*Stylesheet, len(sheets))
	for i, sheet := range sheets {
		parsed[i] = parser.Parse([]byte(sheet.Content), sheet.Href)
	}

	var selector string
	for _, sel := range flowSelectors {
		for _, ss := range parsed {
			if len(ss.Find(sel)) > 0 {
				selector = sel
				break
			}
		}
		if selector != "" {
			break
		}
	}

	decls := flowDeclarations(vertical)
	changed := 0
	for i, sheet := range sheets {
		dirty := false

		if selector == "" {
			rule := &Rule{Selectors: []string{"body"}}
			for _, d := range decls {
				rule.Set(d.Property, d.Value)
			}
			parsed[i].Append(rule)
			dirty = true
		} else {
			for _, rule := range parsed[i].Find(selector) {
				for _, d := range decls {
					if rule.Set(d.Property, d.Value) {
						dirty = true
					}
				}
			}
		}

		if !dirty {
			continue
		}
		content := parsed[i].String()
		if strings.TrimSpace(content) == strings.TrimSpace(sheet.Content) {
			continue
		}
		sheet.Content = content
		sheet.Changed = true
		changed++
		log.Debug("rewrote flow direction",
			zap.String("href", sheet.Href),
			zap.Bool("vertical", vertical))
	}
	return changed, nil
}
