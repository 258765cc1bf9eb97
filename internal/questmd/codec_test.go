package questmd

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/questlog/internal/markdown"
)

var day = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, s string) *markdown.Document {
	t.Helper()
	doc, err := markdown.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func render(t *testing.T, doc *markdown.Document) string {
	t.Helper()
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return string(out)
}

func TestDecode_DragonScenario(t *testing.T) {
	doc := mustParse(t, "---\ndomain: Work\nactive: true\npriority: 2\nnext_action: \"Find the dragon's lair\"\n---\n"+
		"## Quest Log\n- 2024-01-01: Heard rumors of a dragon\n\n## Notes\nThe dragon lives in the mountains.")
	f := Decode(doc)
	if f.Domain != "Work" || !f.Active || f.Priority != 2 {
		t.Errorf("frontmatter fields = %+v", f)
	}
	if f.Goal != "Heard rumors of a dragon" {
		t.Errorf("goal = %q", f.Goal)
	}
	if f.Description != "The dragon lives in the mountains." {
		t.Errorf("description = %q", f.Description)
	}
	objs := f.InitialObjectives()
	if len(objs) != 1 || objs[0].Text != "Find the dragon's lair" || objs[0].Completed {
		t.Errorf("initial objectives = %+v", objs)
	}
}

func TestDecode_GoalPrefixes(t *testing.T) {
	doc := mustParse(t, "## QuestLog\n\n- 2024-01-01: Created from braindump. Actually do the thing\n- 2024-01-02: later\n")
	if got := Decode(doc).Goal; got != "Actually do the thing" {
		t.Errorf("goal = %q", got)
	}
}

func TestDecode_MissingSections(t *testing.T) {
	f := Decode(mustParse(t, "---\ndomain: Home\n---\nno sections here\n"))
	if f.Goal != "" || f.Description != "" || len(f.Objectives) != 0 {
		t.Errorf("fields = %+v", f)
	}
	if f.HasActive || f.HasPriority || f.HasWaiting {
		t.Errorf("optional keys reported present: %+v", f)
	}
}

func TestDecode_Objectives(t *testing.T) {
	doc := mustParse(t, "## Objectives\n- [ ] one\n- [x] two\n- [X] three\nnot a box\n- plain bullet\n")
	objs := Decode(doc).Objectives
	if len(objs) != 3 {
		t.Fatalf("objectives = %+v", objs)
	}
	if objs[0].Completed || !objs[1].Completed || !objs[2].Completed {
		t.Errorf("completion flags = %+v", objs)
	}
	if objs[2].Text != "three" {
		t.Errorf("text = %q", objs[2].Text)
	}
}

func TestDecode_LegacyPriority(t *testing.T) {
	f := Decode(mustParse(t, "---\npriority: 50\n---\n"))
	if !f.HasPriority || f.Priority != 0 {
		t.Errorf("priority = %d (has=%v)", f.Priority, f.HasPriority)
	}
}

func TestEncode_FreshFile(t *testing.T) {
	doc := Encode(nil, Export{
		Domain:      "Work",
		Active:      true,
		Priority:    2,
		Goal:        "Slay it",
		Description: "Bring a sword.",
		Objectives:  []ObjectiveLine{{Text: "Find lair"}, {Text: "Sharpen", Completed: true}},
	}, day)
	want := "---\ndomain: Work\nactive: true\npriority: 2\n---\n\n" +
		"## QuestLog\n\n- 2024-01-01: Slay it\n\n" +
		"## Objectives\n\n- [ ] Find lair\n- [x] Sharpen\n\n" +
		"## Notes\n\nBring a sword.\n"
	if got := render(t, doc); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncode_FreshFileWithoutObjectivesOrDomain(t *testing.T) {
	got := render(t, Encode(nil, Export{Goal: "g"}, day))
	if strings.Contains(got, "## Objectives") {
		t.Errorf("unexpected Objectives section:\n%s", got)
	}
	if !strings.Contains(got, "domain: null\n") {
		t.Errorf("expected null domain:\n%s", got)
	}
}

func TestEncode_PreservesForeignContent(t *testing.T) {
	existing := mustParse(t, "---\ntags:\n  - epic\ndomain: Old\nquick: false\n---\n"+
		"# Heading kept\n\n"+
		"## Quest Log\n- 2023-05-05: Original goal\n- 2023-06-01: progress\n\n"+
		"## Research\nlinks [[elsewhere]]\n\n"+
		"## Objectives\n- [ ] stale\n\n"+
		"## Notes\nold notes\n")

	doc := Encode(existing, Export{
		Domain:      "Work",
		Goal:        "A different goal",
		Description: "new notes",
		Objectives:  []ObjectiveLine{{Text: "fresh", Completed: true}},
	}, day)
	got := render(t, doc)

	for _, want := range []string{
		"tags:\n",
		"- epic\n",
		"quick: false\n",
		"domain: Work\n",
		"# Heading kept\n",
		"## Quest Log\n- 2023-05-05: Original goal\n- 2023-06-01: progress\n\n",
		"## Research\nlinks [[elsewhere]]\n\n",
		"## Objectives\n\n- [x] fresh\n\n",
		"## Notes\n\nnew notes\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "stale") || strings.Contains(got, "old notes") || strings.Contains(got, "A different goal") {
		t.Errorf("managed content not replaced as expected:\n%s", got)
	}
	if strings.Index(got, "## Research") > strings.Index(got, "## Objectives") {
		t.Errorf("foreign section moved:\n%s", got)
	}
}

func TestEncode_InsertsMissingSectionsOnce(t *testing.T) {
	existing := mustParse(t, "## Quest Log\n- 2023-01-01: g\n\n## Extra\nkeep\n")
	doc := Encode(existing, Export{Goal: "g", Description: "d", Objectives: []ObjectiveLine{{Text: "o"}}}, day)
	var headers []string
	for _, s := range doc.Sections {
		headers = append(headers, s.Header)
	}
	if strings.Join(headers, "|") != "Quest Log|Objectives|Extra|Notes" {
		t.Errorf("headers = %v", headers)
	}

	again := Encode(mustParse(t, render(t, doc)), Export{Goal: "g", Description: "d", Objectives: []ObjectiveLine{{Text: "o"}}}, day)
	if len(again.Sections) != 4 {
		t.Errorf("sections duplicated on rewrite: %d", len(again.Sections))
	}
}

func TestEncode_WaitingForNulledOnlyWhenPresent(t *testing.T) {
	with := Encode(mustParse(t, "---\nwaiting_for: Bob\n---\n"), Export{}, day)
	if v, ok := with.Frontmatter.Get(KeyWaitingFor); !ok || v != nil {
		t.Errorf("waiting_for = %v, %v; want present null", v, ok)
	}
	without := Encode(nil, Export{}, day)
	if without.Frontmatter.Has(KeyWaitingFor) {
		t.Error("waiting_for should not be added when empty")
	}
}

func TestRoundTrip(t *testing.T) {
	in := Export{
		Domain:      "Personal",
		Active:      true,
		Priority:    3,
		WaitingFor:  "the blacksmith",
		Goal:        "Forge a blade",
		Description: "Steel.\n\nLots of steel.",
		Objectives: []ObjectiveLine{
			{Text: "Buy ore"},
			{Text: "Heat forge", Completed: true},
			{Text: "Hammer"},
		},
	}
	out := render(t, Encode(nil, in, day))
	f := Decode(mustParse(t, out))

	if f.Domain != in.Domain || f.Active != in.Active || f.Priority != in.Priority || f.WaitingFor != in.WaitingFor {
		t.Errorf("frontmatter mismatch: %+v", f)
	}
	if f.Goal != in.Goal || f.Description != in.Description {
		t.Errorf("goal/description mismatch: %q / %q", f.Goal, f.Description)
	}
	if len(f.Objectives) != len(in.Objectives) {
		t.Fatalf("objectives = %+v", f.Objectives)
	}
	for i := range in.Objectives {
		if f.Objectives[i] != in.Objectives[i] {
			t.Errorf("objective %d = %+v, want %+v", i, f.Objectives[i], in.Objectives[i])
		}
	}
}

func TestEncode_NotesHeaderLinesStayInNotes(t *testing.T) {
	in := Export{Goal: "g", Description: "Plan:\n## Phase two\nrest\n\\## literal"}
	out := render(t, Encode(nil, in, day))
	if !strings.Contains(out, "\n\\## Phase two\n") || !strings.Contains(out, "\n\\\\## literal") {
		t.Errorf("header-like lines not escaped:\n%s", out)
	}

	doc := mustParse(t, out)
	if len(doc.Sections) != 2 {
		t.Fatalf("sections = %d, want 2:\n%s", len(doc.Sections), out)
	}
	if f := Decode(doc); f.Description != in.Description {
		t.Errorf("description = %q, want %q", f.Description, in.Description)
	}

	for i := 0; i < 2; i++ {
		out = render(t, Encode(mustParse(t, out), in, day))
	}
	if n := strings.Count(out, "Phase two"); n != 1 {
		t.Errorf("Phase two appears %d times after rewrites:\n%s", n, out)
	}
	if f := Decode(mustParse(t, out)); f.Description != in.Description {
		t.Errorf("description after rewrites = %q", f.Description)
	}
}
