package hanconv

import (
	"strings"
	"testing"
)

// scripted converter for transformer tests, mirroring a trad-to-simp
// character table.
type fakeConverter struct {
	variant      Variant
	replacements map[string]string
	calls        []string
}

func newFakeConverter() *fakeConverter {
	return &fakeConverter{
		variant: VariantNone,
		replacements: map[string]string{
			"漢": "汉", "語": "语", "書": "书", "說": "说",
		},
	}
}

func (f *fakeConverter) SetConversion(variant Variant) error {
	f.variant = variant
	return nil
}

func (f *fakeConverter) Convert(text string) string {
	f.calls = append(f.calls, text)
	for from, to := range f.replacements {
		text = strings.ReplaceAll(text, from, to)
	}
	return text
}

func simpCriteria() Criteria {
	return Criteria{
		Source:       WholeBook,
		Mode:         ModeTradToSimp,
		InputLocale:  Mainland,
		OutputLocale: Mainland,
	}
}

func TestTransformer_Transform_Verbatim(t *testing.T) {
	// With no applicable rule the document must survive byte for byte:
	// doctype, attribute order, entities, uppercase tags, odd spacing.
	doc := `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><TITLE>T &amp; T</TITLE></head>
<body   class="a"  id="b">
  <p>plain &#x4E2D; text&nbsp;here</p>
  <!-- a comment -->
  <hr/>
</body>
</html>`

	tr := NewTransformer(nil)
	got, err := tr.Transform(doc, Criteria{})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got != doc {
		t.Errorf("document was not reproduced verbatim:\ngot:  %q\nwant: %q", got, doc)
	}
}

func TestTransformer_Transform_ConvertsTextRuns(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2S)

	doc := `<html><body><p class="x">漢語</p><p>no chinese</p></body></html>`
	tr := NewTransformer(conv)
	got, err := tr.Transform(doc, simpCriteria())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if !strings.Contains(got, "<p class=\"x\">汉语</p>") {
		t.Errorf("text run was not converted: %q", got)
	}
	if !strings.Contains(got, "<p>no chinese</p>") {
		t.Errorf("non-Chinese run was altered: %q", got)
	}
}

func TestTransformer_Transform_CharacterReferences(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2S)

	// References split the run; each plain segment converts on its own
	// and the references stay exactly as written.
	doc := `<html><body><p>漢&amp;語&#x6F22;書&nbsp;</p></body></html>`
	tr := NewTransformer(conv)
	got, err := tr.Transform(doc, simpCriteria())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	want := `<html xml:lang="zh-CN"><body><p>汉&amp;语&#x6F22;书&nbsp;</p></body></html>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	for _, call := range conv.calls {
		if strings.Contains(call, "&") {
			t.Errorf("converter saw a character reference: %q", call)
		}
	}
}

func TestTransformer_Transform_WhitespaceRuns(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2S)

	doc := "<html><body>\n  <p>漢</p>\n\t</body></html>"
	tr := NewTransformer(conv)
	got, err := tr.Transform(doc, simpCriteria())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if !strings.Contains(got, "<p>汉</p>") {
		t.Errorf("content run was not converted: %q", got)
	}
	for _, call := range conv.calls {
		if strings.TrimSpace(call) == "" {
			t.Errorf("converter saw a whitespace-only run: %q", call)
		}
	}
	if !strings.HasPrefix(got, "<html xml:lang=\"zh-CN\"><body>\n  ") || !strings.HasSuffix(got, "\n\t</body></html>") {
		t.Errorf("whitespace between tags was altered: %q", got)
	}
}

func TestTransformer_Transform_LanguageAttributes(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2S)

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "existing zh attributes are retagged and xml:lang injected",
			doc:  `<html lang="zh-TW"><body><p lang="zh">漢</p></body></html>`,
			want: `<html lang="zh-CN" xml:lang="zh-CN"><body><p lang="zh-CN">汉</p></body></html>`,
		},
		{
			name: "existing xml:lang is retagged, not duplicated",
			doc:  `<html lang="zh" xml:lang="zh-TW"><body><p>漢</p></body></html>`,
			want: `<html lang="zh-CN" xml:lang="zh-CN"><body><p>汉</p></body></html>`,
		},
		{
			name: "non-chinese lang attributes stay",
			doc:  `<html><body><p lang="en">hi 漢</p></body></html>`,
			want: `<html xml:lang="zh-CN"><body><p lang="en">hi 汉</p></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransformer(conv)
			got, err := tr.Transform(tt.doc, simpCriteria())
			if err != nil {
				t.Fatalf("Transform failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestTransformer_Transform_NoLanguageRewriteWithoutTag(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2JP)

	// A Japan-target run converts characters but must not retag the
	// document language.
	c := simpCriteria()
	c.OutputLocale = Japan

	doc := `<html lang="zh-TW"><body><p>漢</p></body></html>`
	tr := NewTransformer(conv)
	got, err := tr.Transform(doc, c)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !strings.Contains(got, `lang="zh-TW"`) || strings.Contains(got, "xml:lang") {
		t.Errorf("language attributes should be untouched: %q", got)
	}
}

func TestTransformer_Transform_SelectionSentinels(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2S)

	c := simpCriteria()
	c.Source = SelectedText

	doc := `<html><body><p>漢</p><!--PI_SELTEXT_START--><p>語</p><!--PI_SELTEXT_END--><p>書</p></body></html>`
	tr := NewTransformer(conv)
	got, err := tr.Transform(doc, c)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	want := `<html><body><p>漢</p><!--PI_SELTEXT_START--><p>语</p><!--PI_SELTEXT_END--><p>書</p></body></html>`
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestTransformer_Transform_OrdinaryCommentsIgnored(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2S)

	c := simpCriteria()
	c.Source = SelectedText

	// A comment that is not a sentinel must not open a region.
	doc := `<html><body><!-- note --><p>漢</p></body></html>`
	tr := NewTransformer(conv)
	got, err := tr.Transform(doc, c)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got != doc {
		t.Errorf("nothing should convert outside sentinel regions: %q", got)
	}
}

func TestTransformer_Transform_RewriteOrder(t *testing.T) {
	tests := []struct {
		name        string
		orientation Orientation
		quotes      QuotationPolicy
		input       string
		want        string
	}{
		{
			// Vertical bracket collapses to horizontal, then to Western:
			// ﹁ -> 「 -> “
			name:        "horizontal runs punctuation before quotes",
			orientation: OrientationHorizontal,
			quotes:      QuotesWestern,
			input:       "<p>﹁話﹂</p>",
			want:        "<p>“話”</p>",
		},
		{
			// Western becomes a corner bracket, then its vertical form:
			// “ -> 「 -> ﹁
			name:        "vertical runs quotes before punctuation",
			orientation: OrientationVertical,
			quotes:      QuotesEastAsian,
			input:       "<p>“話”</p>",
			want:        "<p>﹁話﹂</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Criteria{
				Quotes:            tt.quotes,
				Orientation:       tt.orientation,
				UpdatePunctuation: true,
			}
			tr := NewTransformer(nil)
			got, err := tr.Transform(tt.input, c.Prepared(""))
			if err != nil {
				t.Fatalf("Transform failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransformer_Transform_StylesheetInjection(t *testing.T) {
	doc := `<html><head><title>t</title></head><body><p>x</p></body></html>`

	tr := NewTransformer(nil)
	tr.ForceStylesheet(true)
	got, err := tr.Transform(doc, Criteria{})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	want := `<html><head><title>t</title><link rel="stylesheet" type="text/css" href="./Styles/stylesheet.css"/></head><body><p>x</p></body></html>`
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}

	// And not without the flag.
	tr.ForceStylesheet(false)
	got, err = tr.Transform(doc, Criteria{})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got != doc {
		t.Errorf("link injected without the flag: %q", got)
	}
}

func TestTransformer_Transform_UnterminatedTail(t *testing.T) {
	conv := newFakeConverter()
	conv.SetConversion(VariantT2S)

	// A document cut off inside a tag must keep its tail bytes.
	doc := `<html><body><p>漢</p></body></html><div class="x`
	tr := NewTransformer(conv)
	got, err := tr.Transform(doc, simpCriteria())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !strings.HasSuffix(got, `<div class="x`) {
		t.Errorf("truncated tail was dropped: %q", got)
	}

	// And byte-verbatim when no rule applies at all.
	tr = NewTransformer(nil)
	got, err = tr.Transform(doc, Criteria{})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got != doc {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestTransformer_Transform_InvalidCriteria(t *testing.T) {
	tr := NewTransformer(nil)
	if _, err := tr.Transform("<p>x</p>", Criteria{Mode: "bogus"}); err == nil {
		t.Error("Transform should reject invalid criteria")
	}
}
