package hanconv

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeBook is an in-memory Container for engine tests.
type fakeBook struct {
	texts    []Resource
	selected []Resource
	sheets   []Resource
	files    map[string]string
	writes   map[string]int
	pageDir  string
	metadata string
	tocID    string
	added    []Resource
}

func newFakeBook() *fakeBook {
	return &fakeBook{
		files:  make(map[string]string),
		writes: make(map[string]int),
	}
}

func (b *fakeBook) addText(id, href, content string) {
	b.texts = append(b.texts, Resource{ID: id, Href: href})
	b.files[id] = content
}

func (b *fakeBook) addSheet(id, href, content string) {
	b.sheets = append(b.sheets, Resource{ID: id, Href: href})
	b.files[id] = content
}

func (b *fakeBook) Texts() []Resource       { return b.texts }
func (b *fakeBook) Selected() []Resource    { return b.selected }
func (b *fakeBook) Stylesheets() []Resource { return b.sheets }

func (b *fakeBook) ReadFile(id string) (string, error) {
	return b.files[id], nil
}

func (b *fakeBook) WriteFile(id string, content string) error {
	b.files[id] = content
	b.writes[id]++
	return nil
}

func (b *fakeBook) AddStylesheet(href, content string) (Resource, error) {
	res := Resource{ID: "added-" + href, Href: href}
	b.added = append(b.added, res)
	b.files[res.ID] = content
	return res, nil
}

func (b *fakeBook) PageProgression() string       { return b.pageDir }
func (b *fakeBook) SetPageProgression(dir string) { b.pageDir = dir }

func (b *fakeBook) MetadataXML() (string, error)   { return b.metadata, nil }
func (b *fakeBook) SetMetadataXML(xml string) error { b.metadata = xml; return nil }

func (b *fakeBook) TOCID() string { return b.tocID }

const fakeMetadata = `<metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
  <dc:title>漢語書</dc:title>
  <dc:creator opf:file-as="漢" opf:alt-rep="漢語" opf:role="aut">漢</dc:creator>
  <dc:contributor opf:file-as="語" opf:scheme="書">語</dc:contributor>
  <dc:language>zh-TW</dc:language>
  <dc:identifier>urn:uuid:x</dc:identifier>
</metadata>`

func TestEngine_Run_WholeBook(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "Text/ch1.xhtml", `<html><body><p>漢語</p></body></html>`)
	book.addText("c2", "Text/ch2.xhtml", `<html><body><p>plain</p></body></html>`)
	book.metadata = fakeMetadata

	conv := newFakeConverter()
	engine := NewEngine(conv)
	report, err := engine.Run(context.Background(), book, simpCriteria())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if conv.variant != VariantT2S {
		t.Errorf("converter variant = %s, want %s", conv.variant, VariantT2S)
	}
	if !strings.Contains(book.files["c1"], "汉语") {
		t.Errorf("document was not converted: %q", book.files["c1"])
	}
	// The no-Chinese document still changes: its root tag gains the
	// resolved xml:lang attribute.
	if report.TextsSeen != 2 || report.TextsChanged != 2 {
		t.Errorf("TextsSeen/TextsChanged = %d/%d, want 2/2", report.TextsSeen, report.TextsChanged)
	}
	if !strings.Contains(book.files["c2"], `xml:lang="zh-CN"`) {
		t.Errorf("root tag was not retagged: %q", book.files["c2"])
	}
	if !report.Dirty() {
		t.Error("report should be dirty")
	}
}

func TestEngine_Run_Metadata(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><body><p>漢</p></body></html>`)
	book.metadata = fakeMetadata

	engine := NewEngine(newFakeConverter())
	report, err := engine.Run(context.Background(), book, simpCriteria())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !report.MetadataChanged {
		t.Fatal("metadata should be marked changed")
	}
	if !strings.Contains(book.metadata, "汉语书") {
		t.Errorf("title was not converted: %q", book.metadata)
	}
	if !strings.Contains(book.metadata, `file-as="汉"`) {
		t.Errorf("creator sort key was not converted: %q", book.metadata)
	}
	if !strings.Contains(book.metadata, `alt-rep="汉语"`) {
		t.Errorf("creator attributes should all be converted: %q", book.metadata)
	}
	if !strings.Contains(book.metadata, `file-as="语"`) || !strings.Contains(book.metadata, `scheme="書"`) {
		t.Errorf("contributor should convert only its sort key: %q", book.metadata)
	}
	if !strings.Contains(book.metadata, ">zh-CN<") {
		t.Errorf("language was not retagged: %q", book.metadata)
	}
	if !strings.Contains(book.metadata, "urn:uuid:x") {
		t.Errorf("identifier should be untouched: %q", book.metadata)
	}
}

func TestEngine_Run_TOC(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><body><p>「漢」</p></body></html>`)
	book.tocID = "ncx"
	book.files["ncx"] = `<ncx><navMap><navPoint><navLabel><text>「漢」</text></navLabel></navPoint></navMap></ncx>`

	c := simpCriteria()
	c.Quotes = QuotesWestern

	engine := NewEngine(newFakeConverter())
	report, err := engine.Run(context.Background(), book, c)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(book.files["c1"], "“汉”") {
		t.Errorf("body should get quote remapping: %q", book.files["c1"])
	}
	// TOC entries convert characters but keep their punctuation, so
	// they match the converted body headings typographically.
	if !strings.Contains(book.files["ncx"], "「汉」") {
		t.Errorf("TOC should convert without quote remapping: %q", book.files["ncx"])
	}
	if !report.TOCChanged {
		t.Error("TOCChanged should be set")
	}
}

func TestEngine_Run_TOCInSpineSkipped(t *testing.T) {
	book := newFakeBook()
	book.addText("nav", "nav.xhtml", `<html><body><p>漢</p></body></html>`)
	book.tocID = "nav"

	engine := NewEngine(newFakeConverter())
	report, err := engine.Run(context.Background(), book, simpCriteria())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if book.writes["nav"] != 1 {
		t.Errorf("spine-listed nav should be written exactly once, got %d", book.writes["nav"])
	}
	if report.TOCChanged {
		t.Error("TOCChanged should not be set for a spine-listed nav")
	}
}

func TestEngine_Run_Unsupported(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><body><p>漢</p></body></html>`)

	c := Criteria{
		Mode:         ModeTradToTrad,
		InputLocale:  HongKong,
		OutputLocale: Taiwan,
	}
	engine := NewEngine(newFakeConverter())
	_, err := engine.Run(context.Background(), book, c)

	var unsupported *UnsupportedConversionError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Run error = %v, want UnsupportedConversionError", err)
	}
	if len(book.writes) != 0 {
		t.Error("nothing may be written for an unsupported conversion")
	}
}

func TestEngine_Run_VerticalFlow(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><head></head><body><p>x</p></body></html>`)
	book.addSheet("css1", "style.css", "body {\n  color: black;\n}\n")

	c := Criteria{Orientation: OrientationVertical}
	engine := NewEngine(nil)
	report, err := engine.Run(context.Background(), book, c)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if book.pageDir != "rtl" {
		t.Errorf("page progression = %q, want rtl", book.pageDir)
	}
	if !report.DirectionChanged {
		t.Error("DirectionChanged should be set")
	}
	if !strings.Contains(book.files["css1"], "writing-mode: vertical-rl") {
		t.Errorf("stylesheet should carry writing-mode: %q", book.files["css1"])
	}
	if report.StylesheetsChanged != 1 {
		t.Errorf("StylesheetsChanged = %d, want 1", report.StylesheetsChanged)
	}
	if report.StylesheetAdded || len(book.added) != 0 {
		t.Error("no stylesheet should be added when one exists")
	}
}

func TestEngine_Run_VerticalFlowWithoutStylesheet(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><head><title>t</title></head><body><p>x</p></body></html>`)

	c := Criteria{Orientation: OrientationVertical}
	engine := NewEngine(nil)
	report, err := engine.Run(context.Background(), book, c)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(book.added) != 1 {
		t.Fatalf("expected one added stylesheet, got %d", len(book.added))
	}
	if !strings.Contains(book.files[book.added[0].ID], "vertical-rl") {
		t.Errorf("added stylesheet should be vertical: %q", book.files[book.added[0].ID])
	}
	if !report.StylesheetAdded {
		t.Error("StylesheetAdded should be set")
	}
	if !strings.Contains(book.files["c1"], `href="./Styles/stylesheet.css"`) {
		t.Errorf("documents should link the new stylesheet: %q", book.files["c1"])
	}
}

func TestEngine_Run_SelectedFiles(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><body><p>漢</p></body></html>`)
	book.addText("c2", "ch2.xhtml", `<html><body><p>語</p></body></html>`)
	book.selected = []Resource{{ID: "c2", Href: "ch2.xhtml"}}
	book.metadata = fakeMetadata

	c := simpCriteria()
	c.Source = SelectedFiles

	engine := NewEngine(newFakeConverter())
	report, err := engine.Run(context.Background(), book, c)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if strings.Contains(book.files["c1"], "汉") {
		t.Error("unselected document was converted")
	}
	if !strings.Contains(book.files["c2"], "语") {
		t.Error("selected document was not converted")
	}
	if report.MetadataChanged {
		t.Error("partial runs must not touch metadata")
	}
}

func TestEngine_Run_Cancelled(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><body><p>漢</p></body></html>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(newFakeConverter())
	if _, err := engine.Run(ctx, book, simpCriteria()); err == nil {
		t.Fatal("Run should fail on a cancelled context")
	}
	if len(book.writes) != 0 {
		t.Error("nothing may be written after cancellation")
	}
}

func TestEngine_Run_Progress(t *testing.T) {
	book := newFakeBook()
	book.addText("c1", "ch1.xhtml", `<html><body><p>漢</p></body></html>`)
	book.addText("c2", "ch2.xhtml", `<html><body><p>語</p></body></html>`)

	var calls int
	var lastDone, lastTotal int
	engine := NewEngine(newFakeConverter(), WithProgress(func(stage string, done, total int) {
		calls++
		lastDone, lastTotal = done, total
	}))
	if _, err := engine.Run(context.Background(), book, simpCriteria()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("progress calls = %d, want 2", calls)
	}
	if lastDone != 2 || lastTotal != 2 {
		t.Errorf("final progress = %d/%d, want 2/2", lastDone, lastTotal)
	}
}
