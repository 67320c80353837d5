package hanconv

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// rootTag is the element that receives an injected xml:lang attribute.
const rootTag = "html"

// stylesheetLink is inserted before </head> when the transformer is told
// the book had no stylesheet of its own.
const stylesheetLink = `<link rel="stylesheet" type="text/css" href="./Styles/stylesheet.css"/>`

// zhLangAttr matches a Chinese-family lang attribute in a tag's literal
// source text. The substitution is textual on purpose: attribute order
// and everything not matched must survive byte for byte.
var zhLangAttr = regexp.MustCompile(`(?i)lang="zh-\w+"|lang="zh"`)

// charRef matches entity and numeric character references inside a raw
// text run. References are structural events of their own and are always
// re-emitted untouched.
var charRef = regexp.MustCompile(`&[a-zA-Z][a-zA-Z0-9]*;|&#[0-9]+;|&#[xX][0-9a-fA-F]+;`)

// Converter is the external character-conversion backend. SetConversion
// selects the active table before a run; Convert must be deterministic
// and side-effect-free with respect to its input.
type Converter interface {
	SetConversion(variant Variant) error
	Convert(text string) string
}

// Transformer streams a markup document and rewrites its in-scope text
// runs: quotation marks, punctuation presentation forms, then the script
// conversion itself. Markup structure, untargeted attributes, character
// references and whitespace-only runs are reproduced verbatim.
//
// A Transformer holds no per-document state and may be reused; it must
// not be shared across concurrent Transform calls when forceStylesheet
// is being toggled.
type Transformer struct {
	converter       Converter
	forceStylesheet bool
}

// NewTransformer creates a Transformer using the given conversion
// backend. The backend may be nil if every run uses ModeNoChange.
func NewTransformer(converter Converter) *Transformer {
	return &Transformer{converter: converter}
}

// ForceStylesheet makes the next Transform calls inject a stylesheet
// <link> just before </head>. Used by the whole-book flow when the book
// owned no stylesheet and one was freshly created.
func (t *Transformer) ForceStylesheet(force bool) {
	t.forceStylesheet = force
}

// Transform rewrites one document according to the criteria and returns
// the result. The input is reproduced verbatim wherever no rule applies.
func (t *Transformer) Transform(doc string, c Criteria) (string, error) {
	if err := c.Validate(); err != nil {
		return "", &TransformError{Message: "invalid criteria", Cause: err}
	}

	tag := LanguageTag(c.Mode, c.InputLocale, c.OutputLocale)
	converting := c.Source != SelectedText

	z := html.NewTokenizer(strings.NewReader(doc))
	var out strings.Builder
	out.Grow(len(doc))

	for {
		tt := z.Next()
		raw := string(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", &TransformError{Message: "parse document", Cause: err}
			}
			// An unterminated construct at end of input is left in Raw;
			// emit it so truncated documents still round-trip verbatim.
			out.WriteString(raw)
			return out.String(), nil

		case html.TextToken:
			out.WriteString(t.textRun(raw, c, converting))

		case html.StartTagToken, html.SelfClosingTagToken:
			out.WriteString(t.tag(raw, z, c, tag, converting, tt == html.StartTagToken))

		case html.EndTagToken:
			if t.forceStylesheet {
				if name, _ := z.TagName(); strings.EqualFold(string(name), "head") {
					out.WriteString(stylesheetLink)
				}
			}
			out.WriteString(raw)

		case html.CommentToken:
			// Selection sentinels toggle the converting flag; the
			// comments themselves always pass through unchanged.
			if c.Source == SelectedText {
				switch strings.TrimSpace(string(z.Text())) {
				case SelectionStart:
					converting = true
				case SelectionEnd:
					converting = false
				}
			}
			out.WriteString(raw)

		default:
			// Doctype and anything else: verbatim.
			out.WriteString(raw)
		}
	}
}

// tag rewrites an open or self-closing tag's literal source text. Only
// Chinese-family lang attributes are substituted; on the document root
// an xml:lang attribute is appended when absent, which keeps a second
// pass from duplicating it.
func (t *Transformer) tag(raw string, z *html.Tokenizer, c Criteria, langTag string, converting, openTag bool) string {
	if !converting || c.Mode == ModeNoChange || langTag == "" {
		return raw
	}

	text := zhLangAttr.ReplaceAllString(raw, `lang="`+langTag+`"`)

	if openTag {
		name, hasAttr := z.TagName()
		if strings.EqualFold(string(name), rootTag) && strings.HasSuffix(text, ">") {
			for hasAttr {
				var key []byte
				key, _, hasAttr = z.TagAttr()
				if string(key) == "xml:lang" {
					return text
				}
			}
			text = text[:len(text)-1] + ` xml:lang="` + langTag + `">`
		}
	}
	return text
}

// textRun processes one raw text token. Character references split the
// token into plain segments; each segment goes through the rewrite
// pipeline while the references pass through verbatim.
func (t *Transformer) textRun(raw string, c Criteria, converting bool) string {
	if !converting {
		return raw
	}

	locs := charRef.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return t.segment(raw, c)
	}

	var b strings.Builder
	b.Grow(len(raw))
	last := 0
	for _, loc := range locs {
		b.WriteString(t.segment(raw[last:loc[0]], c))
		b.WriteString(raw[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(t.segment(raw[last:], c))
	return b.String()
}

// segment applies the order-dependent rewrite sequence to one plain text
// segment. Horizontal output swaps presentation forms before quotes so
// that a vertical bracket can collapse to its horizontal form and then
// to a Western quote; the other orientations do the reverse.
func (t *Transformer) segment(text string, c Criteria) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	if c.Orientation == OrientationHorizontal {
		text = c.punctuation.apply(text)
		text = replaceQuotes(c.Quotes, text)
	} else {
		text = replaceQuotes(c.Quotes, text)
		text = c.punctuation.apply(text)
	}

	if c.Mode != ModeNoChange && t.converter != nil {
		text = t.converter.Convert(text)
	}
	return text
}
