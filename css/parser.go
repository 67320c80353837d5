package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into editable rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Malformed input is not an
// error: the parser keeps what it understood, which mirrors how reading
// systems treat broken stylesheets.
// The optional source parameter identifies what's being parsed (for
// debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	sheet := &Stylesheet{}
	sheet.Items = p.parseItems(parser, false)
	if err := parser.Err(); err != nil && err.Error() != "EOF" {
		p.log.Debug("CSS parse error", zap.Error(err))
	}
	return sheet
}

// parseItems consumes items until end of input, or until the enclosing
// @-rule block closes when inBlock is set.
func (p *Parser) parseItems(parser *css.Parser, inBlock bool) []Item {
	var items []Item

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			return items

		case css.EndAtRuleGrammar:
			if inBlock {
				return items
			}

		case css.AtRuleGrammar:
			items = append(items, Item{AtRule: &AtRule{
				Name:   string(data),
				Params: tokensString(parser.Values()),
			}})

		case css.BeginAtRuleGrammar:
			at := &AtRule{
				Name:     string(data),
				Params:   tokensString(parser.Values()),
				HasBlock: true,
			}
			at.Items = p.parseItems(parser, true)
			items = append(items, Item{AtRule: at})

		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			rule := &Rule{Selectors: p.parseSelectors(data, parser.Values())}
			if gt == css.BeginRulesetGrammar {
				rule.Declarations = p.parseDeclarations(parser)
			}
			items = append(items, Item{Rule: rule})
		}
	}
}

// parseSelectors extracts the selector group from token data.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var selectors []string
	for _, s := range strings.Split(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until the ruleset ends.
func (p *Parser) parseDeclarations(parser *css.Parser) []Declaration {
	var decls []Declaration

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, Declaration{
				Property: string(data),
				Value:    tokensString(parser.Values()),
			})
		}
	}
}

// tokensString joins value tokens back into a single string, collapsing
// whitespace runs to one space.
func tokensString(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 && parts[len(parts)-1] != " " {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
