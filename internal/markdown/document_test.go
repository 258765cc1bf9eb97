package markdown

import (
	"strings"
	"testing"
)

const sample = `---
domain: Work
active: true
priority: 2
tags:
  - dragons
---
Intro line.

## Quest Log
- 2024-01-01: Heard rumors of a dragon

## Objectives
- [ ] Find the lair

## Notes
The dragon lives in the mountains.
`

func TestParse_FrontmatterPreambleSections(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Frontmatter.order(); strings.Join(got, ",") != "domain,active,priority,tags" {
		t.Errorf("keys = %v", got)
	}
	if v, _ := doc.Frontmatter.Get("active"); v != true {
		t.Errorf("active = %v", v)
	}
	if doc.Preamble != "Intro line.\n\n" {
		t.Errorf("preamble = %q", doc.Preamble)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(doc.Sections))
	}
	if doc.Sections[0].Header != "Quest Log" || doc.Sections[2].Header != "Notes" {
		t.Errorf("headers = %q, %q", doc.Sections[0].Header, doc.Sections[2].Header)
	}
	if doc.Sections[1].Body != "- [ ] Find the lair\n\n" {
		t.Errorf("objectives body = %q", doc.Sections[1].Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("# Title\n\n## Notes\nhello\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter.Len() != 0 {
		t.Errorf("expected empty frontmatter")
	}
	if doc.Preamble != "# Title\n\n" {
		t.Errorf("preamble = %q", doc.Preamble)
	}
	if doc.Section("Notes") != 0 {
		t.Errorf("Notes section not found")
	}
}

func TestParse_EmptyFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("---\n---\n## Notes\nx\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter.Len() != 0 || len(doc.Sections) != 1 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n")); err == nil {
		t.Fatal("expected error for invalid frontmatter")
	}
}

func TestParse_UnclosedFrontmatterIsBody(t *testing.T) {
	doc, err := Parse([]byte("---\ndomain: Work\nno closing\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter.Len() != 0 {
		t.Errorf("unclosed block should not parse as frontmatter")
	}
	if !strings.HasPrefix(doc.Preamble, "---\n") {
		t.Errorf("preamble = %q", doc.Preamble)
	}
}

func TestBytes_RoundTripsStructure(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if again.Preamble != doc.Preamble {
		t.Errorf("preamble changed: %q", again.Preamble)
	}
	if len(again.Sections) != len(doc.Sections) {
		t.Fatalf("section count changed")
	}
	for i := range doc.Sections {
		if again.Sections[i] != doc.Sections[i] {
			t.Errorf("section %d changed: %+v", i, again.Sections[i])
		}
	}
	for _, k := range doc.Frontmatter.order() {
		if !again.Frontmatter.Has(k) {
			t.Errorf("frontmatter key %q lost", k)
		}
	}
	if again.Frontmatter.String("domain") != "Work" {
		t.Errorf("domain = %q", again.Frontmatter.String("domain"))
	}
}

func TestBytes_NullValue(t *testing.T) {
	doc := New()
	doc.Frontmatter.Set("domain", nil)
	doc.Frontmatter.Set("active", false)
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(out) != "---\ndomain: null\nactive: false\n---\n" {
		t.Errorf("out = %q", out)
	}
}

func TestFrontmatter_SetDeleteOrder(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("a", 1)
	fm.Set("b", 2)
	fm.Set("c", 3)
	fm.Set("a", 10)
	fm.Delete("b")
	if got := strings.Join(fm.order(), ","); got != "a,c" {
		t.Errorf("keys = %s", got)
	}
	if v, _ := fm.Get("a"); v != 10 {
		t.Errorf("a = %v", v)
	}
}

func TestInsert(t *testing.T) {
	doc := New()
	doc.Sections = []Section{{Header: "A"}, {Header: "C"}}
	doc.Insert(1, Section{Header: "B"})
	doc.Insert(-1, Section{Header: "D"})
	var got []string
	for _, s := range doc.Sections {
		got = append(got, s.Header)
	}
	if strings.Join(got, "") != "ABCD" {
		t.Errorf("order = %v", got)
	}
}

func TestBytes_KeepsForeignValueFormatting(t *testing.T) {
	src := "---\n# owned by another tool\ncreated: 2024-01-01\ntags: [a, b] # keep\ntitle: 'Quoted'\nactive: false\n---\n## Notes\nx\n"
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc.Frontmatter.Set("active", true)
	doc.Frontmatter.Set("title", "Quoted")
	doc.Frontmatter.Set("priority", 2)
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	got := string(out)
	for _, want := range []string{
		"# owned by another tool\n",
		"created: 2024-01-01\n",
		"tags: [a, b] # keep\n",
		"title: 'Quoted'\n",
		"active: true\n",
		"priority: 2\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "T00:00:00Z") {
		t.Errorf("date rewritten as timestamp:\n%s", got)
	}
}

func TestFrontmatter_SetKeepsLineComment(t *testing.T) {
	doc, err := Parse([]byte("---\nactive: false # toggled by the app\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc.Frontmatter.Set("active", true)
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(out) != "---\nactive: true # toggled by the app\n---\n" {
		t.Errorf("out = %q", out)
	}
}

func TestFrontmatter_StringScalars(t *testing.T) {
	doc, err := Parse([]byte("---\nn: 3\nb: true\ns: hi\nz: null\nl: [1]\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fm := doc.Frontmatter
	for key, want := range map[string]string{"n": "3", "b": "true", "s": "hi", "z": "", "l": "", "missing": ""} {
		if got := fm.String(key); got != want {
			t.Errorf("String(%q) = %q, want %q", key, got, want)
		}
	}
}
