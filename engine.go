package hanconv

import (
	"context"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/hanconv/css"
)

// Resource identifies one file inside a Container.
type Resource struct {
	ID   string
	Href string
}

// Container is the book being converted. The epub package provides the
// standard implementation; tests use in-memory fakes.
type Container interface {
	// Texts returns the text documents in reading order.
	Texts() []Resource
	// Selected returns the documents chosen for a partial run.
	Selected() []Resource
	// Stylesheets returns the CSS resources of the book.
	Stylesheets() []Resource

	ReadFile(id string) (string, error)
	WriteFile(id string, content string) error
	// AddStylesheet registers a new CSS resource at href and returns it.
	AddStylesheet(href, content string) (Resource, error)

	// PageProgression returns the spine's page-progression-direction
	// ("ltr", "rtl" or "" when unset); SetPageProgression replaces it.
	PageProgression() string
	SetPageProgression(dir string)

	// MetadataXML returns the package metadata as an XML fragment;
	// SetMetadataXML replaces it.
	MetadataXML() (string, error)
	SetMetadataXML(xml string) error

	// TOCID returns the resource ID of the navigation document or NCX,
	// or "" when the book has none.
	TOCID() string
}

// ConversionCache is the interface for caching converted text.
type ConversionCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ProgressFunc receives per-stage completion counts during a run.
type ProgressFunc func(stage string, done, total int)

// Report summarizes what a run changed.
type Report struct {
	Variant            Variant
	TextsSeen          int
	TextsChanged       int
	StylesheetsChanged int
	StylesheetAdded    bool
	MetadataChanged    bool
	TOCChanged         bool
	DirectionChanged   bool
}

// Dirty reports whether the run modified the book at all.
func (r *Report) Dirty() bool {
	return r.TextsChanged > 0 || r.StylesheetsChanged > 0 || r.StylesheetAdded ||
		r.MetadataChanged || r.TOCChanged || r.DirectionChanged
}

// Engine drives a conversion run over a whole container: flow
// direction, text documents, package metadata and the TOC.
type Engine struct {
	converter Converter
	log       *zap.Logger
	progress  ProgressFunc
	omitted   string
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. The default is a nop logger.
func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log.Named("hanconv")
		}
	}
}

// WithProgress sets a callback invoked after each processed document.
func WithProgress(fn ProgressFunc) EngineOption {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithPunctuationOmissions sets the horizontal marks excluded from
// punctuation remapping. The default is DefaultPunctuationOmits.
func WithPunctuationOmissions(omitted string) EngineOption {
	return func(e *Engine) {
		e.omitted = omitted
	}
}

// NewEngine creates an Engine using the given conversion backend. The
// backend may be nil when every run uses ModeNoChange.
func NewEngine(converter Converter, opts ...EngineOption) *Engine {
	e := &Engine{
		converter: converter,
		log:       zap.NewNop(),
		omitted:   DefaultPunctuationOmits,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// zhLanguage matches a Chinese-family metadata language value.
var zhLanguage = regexp.MustCompile(`(?i)^zh(-\w+)?$`)

// Run converts the container according to the criteria. Unsupported
// mode/locale combinations fail before anything is written; any later
// failure aborts the run but leaves already-written documents in place.
func (e *Engine) Run(ctx context.Context, book Container, c Criteria) (*Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	variant := Resolve(c.Mode, c.InputLocale, c.OutputLocale, c.UseTargetPhrasing)
	if variant == VariantUnsupported {
		return nil, &UnsupportedConversionError{Mode: c.Mode, Input: c.InputLocale, Output: c.OutputLocale}
	}
	c = c.Prepared(e.omitted)

	rep := &Report{Variant: variant}

	converter := e.converter
	if variant == VariantNone {
		// Same-locale or no-change run: quotes, punctuation and flow
		// direction may still change, characters never do.
		converter = nil
	} else if converter != nil {
		if err := converter.SetConversion(variant); err != nil {
			return nil, err
		}
	}
	tr := NewTransformer(converter)

	e.log.Info("starting conversion",
		zap.String("variant", string(variant)),
		zap.String("source", string(c.Source)),
		zap.String("orientation", string(c.Orientation)))

	if c.Source == WholeBook && c.Orientation != OrientationNoChange {
		if err := e.rewriteFlow(book, c.Orientation, tr, rep); err != nil {
			return rep, err
		}
	}

	if err := e.rewriteTexts(ctx, book, c, tr, rep); err != nil {
		return rep, err
	}

	if c.Source == WholeBook {
		if converter != nil {
			if err := e.rewriteMetadata(book, c, rep); err != nil {
				return rep, err
			}
		}
		if err := e.rewriteTOC(ctx, book, c, tr, rep); err != nil {
			return rep, err
		}
	}

	e.log.Info("conversion finished",
		zap.Int("texts_changed", rep.TextsChanged),
		zap.Bool("dirty", rep.Dirty()))
	return rep, nil
}

// rewriteFlow sets the spine's page-progression-direction and pushes the
// writing-mode properties into the book's stylesheets. A book without
// any stylesheet gets a fresh one, and the transformer is told to link
// it from every text document.
func (e *Engine) rewriteFlow(book Container, o Orientation, tr *Transformer, rep *Report) error {
	dir := "ltr"
	if o == OrientationVertical {
		dir = "rtl"
	}
	if book.PageProgression() != dir {
		book.SetPageProgression(dir)
		rep.DirectionChanged = true
	}

	vertical := o == OrientationVertical
	resources := book.Stylesheets()
	if len(resources) == 0 {
		if _, err := book.AddStylesheet("Styles/stylesheet.css", css.FlowStylesheet(vertical)); err != nil {
			return &ContainerError{Op: "add stylesheet", Cause: err}
		}
		tr.ForceStylesheet(true)
		rep.StylesheetAdded = true
		e.log.Debug("created flow stylesheet", zap.Bool("vertical", vertical))
		return nil
	}

	sheets := make([]*css.Sheet, 0, len(resources))
	for _, res := range resources {
		content, err := book.ReadFile(res.ID)
		if err != nil {
			return &ContainerError{Op: "read", ID: res.ID, Cause: err}
		}
		sheets = append(sheets, &css.Sheet{ID: res.ID, Href: res.Href, Content: content})
	}

	changed, err := css.EnsureFlowDirection(sheets, vertical, e.log)
	if err != nil {
		return err
	}
	for _, sheet := range sheets {
		if !sheet.Changed {
			continue
		}
		if err := book.WriteFile(sheet.ID, sheet.Content); err != nil {
			return &ContainerError{Op: "write", ID: sheet.ID, Cause: err}
		}
	}
	rep.StylesheetsChanged = changed
	return nil
}

// rewriteTexts runs the document transformer over the in-scope text
// documents, writing back only the ones that actually changed.
func (e *Engine) rewriteTexts(ctx context.Context, book Container, c Criteria, tr *Transformer, rep *Report) error {
	units := book.Texts()
	if c.Source != WholeBook {
		units = book.Selected()
	}

	for i, res := range units {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := book.ReadFile(res.ID)
		if err != nil {
			return &ContainerError{Op: "read", ID: res.ID, Cause: err}
		}
		out, err := tr.Transform(content, c)
		if err != nil {
			if te, ok := err.(*TransformError); ok && te.Name == "" {
				te.Name = res.Href
			}
			return err
		}

		rep.TextsSeen++
		if out != content {
			if err := book.WriteFile(res.ID, out); err != nil {
				return &ContainerError{Op: "write", ID: res.ID, Cause: err}
			}
			rep.TextsChanged++
		}
		e.log.Debug("processed document",
			zap.String("href", res.Href),
			zap.Bool("changed", out != content))
		if e.progress != nil {
			e.progress("texts", i+1, len(units))
		}
	}
	return nil
}

// metadataElements are the Dublin Core elements whose text is converted
// along with the book body.
var metadataElements = []string{
	"title", "creator", "contributor", "publisher",
	"subject", "description", "coverage", "rights",
}

// rewriteMetadata converts the human-readable package metadata and
// retags dc:language when the run changes the script's region.
func (e *Engine) rewriteMetadata(book Container, c Criteria, rep *Report) error {
	raw, err := book.MetadataXML()
	if err != nil {
		return &ContainerError{Op: "read metadata", Cause: err}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return &ContainerError{Op: "parse metadata", Cause: err}
	}

	changed := false
	for _, name := range metadataElements {
		for _, el := range doc.FindElements("//" + name) {
			text := el.Text()
			if converted := e.converter.Convert(text); converted != text {
				el.SetText(converted)
				changed = true
			}
			// Sorting keys carry the same script as the display text.
			// Creator entries get every attribute converted: authoring
			// tools stash alternate name renderings in arbitrary
			// attributes there.
			for _, attr := range el.Attr {
				if name != "creator" && attr.Key != "file-as" {
					continue
				}
				if converted := e.converter.Convert(attr.Value); converted != attr.Value {
					el.CreateAttr(attr.FullKey(), converted)
					changed = true
				}
			}
		}
	}

	if tag := LanguageTag(c.Mode, c.InputLocale, c.OutputLocale); tag != "" {
		for _, el := range doc.FindElements("//language") {
			if zhLanguage.MatchString(strings.TrimSpace(el.Text())) && el.Text() != tag {
				el.SetText(tag)
				changed = true
			}
		}
	}

	if !changed {
		return nil
	}
	out, err := doc.WriteToString()
	if err != nil {
		return &ContainerError{Op: "serialize metadata", Cause: err}
	}
	if err := book.SetMetadataXML(out); err != nil {
		return &ContainerError{Op: "write metadata", Cause: err}
	}
	rep.MetadataChanged = true
	return nil
}

// rewriteTOC converts the navigation document with orientation, quote
// and punctuation changes suppressed: entry text should match the
// converted body, but presentation-form rewrites belong to body text
// only.
func (e *Engine) rewriteTOC(ctx context.Context, book Container, c Criteria, tr *Transformer, rep *Report) error {
	id := book.TOCID()
	if id == "" {
		return nil
	}
	for _, res := range book.Texts() {
		if res.ID == id {
			// Spine-listed navigation documents were already handled
			// by the text pass.
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	toc := c
	toc.Source = WholeBook
	toc.Quotes = QuotesNoChange
	toc.Orientation = OrientationNoChange
	toc.UpdatePunctuation = false
	toc = toc.Prepared(e.omitted)

	content, err := book.ReadFile(id)
	if err != nil {
		return &ContainerError{Op: "read", ID: id, Cause: err}
	}

	// The stylesheet link is for body documents only.
	tr.ForceStylesheet(false)
	out, err := tr.Transform(content, toc)
	if err != nil {
		if te, ok := err.(*TransformError); ok && te.Name == "" {
			te.Name = id
		}
		return err
	}
	if out == content {
		return nil
	}
	if err := book.WriteFile(id, out); err != nil {
		return &ContainerError{Op: "write", ID: id, Cause: err}
	}
	rep.TOCChanged = true
	return nil
}
