package css

import (
	"strings"
	"testing"
)

func TestParser_Parse_Rules(t *testing.T) {
	p := NewParser(nil)
	sheet := p.Parse([]byte(`
body {
  margin: 0;
  font-family: "Noto Serif CJK TC", serif;
}

p, div.calibre1 {
  text-indent: 2em;
}
`))

	if len(sheet.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sheet.Items))
	}

	body := sheet.Items[0].Rule
	if body == nil || !body.Matches("body") {
		t.Fatalf("first item should be the body rule, got %+v", sheet.Items[0])
	}
	if v, ok := body.Get("margin"); !ok || v != "0" {
		t.Errorf("margin = %q, %v", v, ok)
	}
	if v, ok := body.Get("font-family"); !ok || !strings.Contains(v, "Noto Serif CJK TC") {
		t.Errorf("font-family = %q, %v", v, ok)
	}

	grouped := sheet.Items[1].Rule
	if grouped == nil || !grouped.Matches("p") || !grouped.Matches("div.calibre1") {
		t.Fatalf("second item should keep the selector group, got %+v", sheet.Items[1])
	}
}

func TestParser_Parse_AtRules(t *testing.T) {
	p := NewParser(nil)
	sheet := p.Parse([]byte(`
@import "fonts.css";

@media print {
  body {
    writing-mode: horizontal-tb;
  }
}
`))

	if len(sheet.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sheet.Items))
	}

	imp := sheet.Items[0].AtRule
	if imp == nil || imp.Name != "@import" || imp.HasBlock {
		t.Fatalf("first item should be a simple @import, got %+v", sheet.Items[0])
	}

	media := sheet.Items[1].AtRule
	if media == nil || media.Name != "@media" || !media.HasBlock {
		t.Fatalf("second item should be a @media block, got %+v", sheet.Items[1])
	}
	if media.Params != "print" {
		t.Errorf("media params = %q, want print", media.Params)
	}
	if len(media.Items) != 1 || media.Items[0].Rule == nil {
		t.Fatalf("media block should hold one rule, got %+v", media.Items)
	}
}

func TestParser_Parse_Malformed(t *testing.T) {
	p := NewParser(nil)
	sheet := p.Parse([]byte(`body { color: red; } @!garbage ~~~`))

	if len(sheet.Find("body")) != 1 {
		t.Error("valid rules should survive malformed trailing input")
	}
}

func TestStylesheet_Find_Nested(t *testing.T) {
	p := NewParser(nil)
	sheet := p.Parse([]byte(`
.calibre { margin: 0; }
@media screen {
  .calibre { padding: 0; }
}
`))

	rules := sheet.Find(".calibre")
	if len(rules) != 2 {
		t.Fatalf("Find(.calibre) = %d rules, want 2 (top-level and nested)", len(rules))
	}
}

func TestStylesheet_String_RoundTrip(t *testing.T) {
	p := NewParser(nil)
	sheet := p.Parse([]byte("body {\n  margin: 0;\n}\n"))

	out := sheet.String()
	if out != "body {\n  margin: 0;\n}\n" {
		t.Errorf("String = %q", out)
	}

	// Reparsing the output yields the same structure.
	again := p.Parse([]byte(out))
	if again.String() != out {
		t.Errorf("serialization is not stable: %q vs %q", again.String(), out)
	}
}

func TestRule_Set(t *testing.T) {
	rule := &Rule{
		Selectors:    []string{"body"},
		Declarations: []Declaration{{Property: "writing-mode", Value: "horizontal-tb"}},
	}

	if !rule.Set("writing-mode", "vertical-rl") {
		t.Error("changing a value should report a change")
	}
	if rule.Set("writing-mode", "vertical-rl") {
		t.Error("setting the same value should not report a change")
	}
	if !rule.Set("line-break", "normal") {
		t.Error("adding a property should report a change")
	}
	if len(rule.Declarations) != 2 {
		t.Errorf("declarations = %d, want 2", len(rule.Declarations))
	}
	if rule.Declarations[0].Property != "writing-mode" {
		t.Error("existing declarations must keep their position")
	}
}
