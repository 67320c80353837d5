// Package hanconv converts Chinese-script text in EPUB/XHTML documents.
package hanconv

import "fmt"

// InputSource selects which part of a book is eligible for conversion.
type InputSource string

const (
	// WholeBook converts every text document, the metadata and the TOC.
	WholeBook InputSource = "book"
	// SelectedFiles converts only the documents the container reports as selected.
	SelectedFiles InputSource = "files"
	// SelectedText converts only the sentinel-delimited regions inside
	// the selected documents.
	SelectedText InputSource = "selection"
)

// Mode is the requested conversion direction.
type Mode string

const (
	ModeNoChange   Mode = "none"
	ModeTradToSimp Mode = "trad_to_simp"
	ModeSimpToTrad Mode = "simp_to_trad"
	ModeTradToTrad Mode = "trad_to_trad"
)

// Locale identifies a regional Chinese script convention.
type Locale string

const (
	Mainland Locale = "mainland"
	HongKong Locale = "hongkong"
	Taiwan   Locale = "taiwan"
	// Japan is simplified modern kanji. It is only valid as a
	// TradToSimp target or a SimpToTrad source.
	Japan Locale = "japan"
)

// QuotationPolicy controls quotation mark remapping.
type QuotationPolicy string

const (
	QuotesNoChange QuotationPolicy = "none"
	// QuotesWestern rewrites 「」『』 to “”‘’.
	QuotesWestern QuotationPolicy = "western"
	// QuotesEastAsian rewrites “”‘’ to 「」『』.
	QuotesEastAsian QuotationPolicy = "east_asian"
)

// Orientation is the requested text-flow direction.
type Orientation string

const (
	OrientationNoChange   Orientation = "none"
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
)

// Selected-text regions are bracketed by comments carrying exactly these
// payloads: <!--PI_SELTEXT_START--> ... <!--PI_SELTEXT_END-->.
const (
	SelectionStart = "PI_SELTEXT_START"
	SelectionEnd   = "PI_SELTEXT_END"
)

// Criteria describes one conversion run. The zero value of every field
// means "no change"; a zero Criteria is valid and does nothing.
//
// The derived punctuation mapping is built by Prepared and never mutated
// afterwards: it is present iff the orientation changes, UpdatePunctuation
// is set and at least one mark survives the omission set.
type Criteria struct {
	Source            InputSource
	Mode              Mode
	InputLocale       Locale
	OutputLocale      Locale
	UseTargetPhrasing bool
	Quotes            QuotationPolicy
	Orientation       Orientation
	UpdatePunctuation bool

	punctuation *punctuationMap
}

// Prepared returns a copy of c with the derived punctuation mapping
// built from the given omission set (a string of horizontal marks that
// must not be remapped). Call it once per run; Transform never builds
// or mutates the mapping itself.
func (c Criteria) Prepared(omitted string) Criteria {
	c.punctuation = nil
	if c.UpdatePunctuation {
		c.punctuation = newPunctuationMap(c.Orientation, omitted)
	}
	return c
}

// Validate reports the first invalid enumeration value, if any.
// Empty strings are normalized to the "no change" members so that a
// zero Criteria stays usable.
func (c *Criteria) Validate() error {
	if c.Source == "" {
		c.Source = WholeBook
	}
	if c.Mode == "" {
		c.Mode = ModeNoChange
	}
	if c.InputLocale == "" {
		c.InputLocale = Mainland
	}
	if c.OutputLocale == "" {
		c.OutputLocale = Mainland
	}
	if c.Quotes == "" {
		c.Quotes = QuotesNoChange
	}
	if c.Orientation == "" {
		c.Orientation = OrientationNoChange
	}

	switch c.Source {
	case WholeBook, SelectedFiles, SelectedText:
	default:
		return fmt.Errorf("invalid input source %q", c.Source)
	}
	switch c.Mode {
	case ModeNoChange, ModeTradToSimp, ModeSimpToTrad, ModeTradToTrad:
	default:
		return fmt.Errorf("invalid conversion mode %q", c.Mode)
	}
	for _, l := range []Locale{c.InputLocale, c.OutputLocale} {
		switch l {
		case Mainland, HongKong, Taiwan, Japan:
		default:
			return fmt.Errorf("invalid locale %q", l)
		}
	}
	switch c.Quotes {
	case QuotesNoChange, QuotesWestern, QuotesEastAsian:
	default:
		return fmt.Errorf("invalid quotation policy %q", c.Quotes)
	}
	switch c.Orientation {
	case OrientationNoChange, OrientationHorizontal, OrientationVertical:
	default:
		return fmt.Errorf("invalid orientation %q", c.Orientation)
	}
	return nil
}
