// Package questmd maps quest markdown files to quest fields and back.
//
// File grammar:
//
//	---
//	domain: Work
//	active: true
//	priority: 2
//	waiting_for: Bob
//	next_action: Find the lair   # read on first import only
//	---
//	## QuestLog                  (or "## Quest Log")
//	- 2024-01-01: goal text
//
//	## Objectives
//	- [ ] open item
//	- [x] done item
//
//	## Notes
//	free-form description
//
// Any other frontmatter keys and sections are carried through a rewrite untouched.
package questmd

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/starford/questlog/internal/markdown"
	"github.com/starford/questlog/internal/models"
)

// Section headers.
const (
	HeaderQuestLog    = "QuestLog"
	HeaderQuestLogAlt = "Quest Log"
	HeaderObjectives  = "Objectives"
	HeaderNotes       = "Notes"
)

// Frontmatter keys owned by the codec.
const (
	KeyDomain     = "domain"
	KeyActive     = "active"
	KeyPriority   = "priority"
	KeyWaitingFor = "waiting_for"
	KeyNextAction = "next_action"
)

var (
	checkboxRe  = regexp.MustCompile(`^\s*-\s*\[([ xX])\]\s*(\S.*)$`)
	logDateRe   = regexp.MustCompile(`^-\s*\d{4}-\d{2}-\d{2}:\s*`)
	braindumpRe = regexp.MustCompile(`^Created from braindump\.\s*`)
)

// ObjectiveLine is one checkbox item.
type ObjectiveLine struct {
	Text      string
	Completed bool
}

// Fields are the quest values carried by a markdown file.
//
// The Has* flags record whether the optional frontmatter key was present, so
// callers updating an existing quest only touch what the file actually states.
type Fields struct {
	Domain      string
	Active      bool
	HasActive   bool
	Priority    int
	HasPriority bool
	WaitingFor  string
	HasWaiting  bool
	NextAction  string

	Goal        string
	Description string
	Objectives  []ObjectiveLine
}

// Decode extracts quest fields from a parsed document.
func Decode(doc *markdown.Document) Fields {
	fm := doc.Frontmatter
	f := Fields{
		Domain:     strings.TrimSpace(fm.String(KeyDomain)),
		NextAction: strings.TrimSpace(fm.String(KeyNextAction)),
	}

	if v, ok := fm.Get(KeyActive); ok {
		f.HasActive = true
		f.Active, _ = v.(bool)
	}
	if v, ok := fm.Get(KeyPriority); ok {
		f.HasPriority = true
		f.Priority = models.NormalizePriority(toInt(v))
	}
	if fm.Has(KeyWaitingFor) {
		f.HasWaiting = true
		f.WaitingFor = strings.TrimSpace(fm.String(KeyWaitingFor))
	}

	if i := doc.Section(HeaderQuestLogAlt, HeaderQuestLog); i >= 0 {
		f.Goal = goalFromLog(doc.Sections[i].Body)
	}
	if i := doc.Section(HeaderNotes); i >= 0 {
		f.Description = unescapeNotes(strings.TrimSpace(doc.Sections[i].Body))
	}
	if i := doc.Section(HeaderObjectives); i >= 0 {
		f.Objectives = parseObjectives(doc.Sections[i].Body)
	}
	return f
}

// InitialObjectives returns the checklist for a quest created from this file:
// a non-blank next_action first, then the parsed Objectives section.
func (f Fields) InitialObjectives() []ObjectiveLine {
	if f.NextAction == "" {
		return f.Objectives
	}
	out := []ObjectiveLine{{Text: f.NextAction}}
	for _, o := range f.Objectives {
		if o.Text == f.NextAction {
			continue
		}
		out = append(out, o)
	}
	return out
}

// goalFromLog returns the first log entry without its date prefix.
func goalFromLog(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = logDateRe.ReplaceAllString(line, "")
		line = braindumpRe.ReplaceAllString(line, "")
		return strings.TrimSpace(line)
	}
	return ""
}

func parseObjectives(body string) []ObjectiveLine {
	var out []ObjectiveLine
	for _, line := range strings.Split(body, "\n") {
		m := checkboxRe.FindStringSubmatch(strings.TrimRight(line, " \t\r"))
		if m == nil {
			continue
		}
		out = append(out, ObjectiveLine{
			Text:      strings.TrimSpace(m[2]),
			Completed: m[1] == "x" || m[1] == "X",
		})
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case string:
		var i int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &i); err == nil {
			return i
		}
	}
	return 0
}

// Export is the quest state rendered into a file.
type Export struct {
	Domain      string // domain name, empty for uncategorized
	Active      bool
	Priority    int
	WaitingFor  string
	Goal        string
	Description string
	Objectives  []ObjectiveLine
}

// Encode merges q into existing (nil for a brand-new file) and returns the
// document to write. Owned frontmatter keys are overwritten, the Objectives
// and Notes sections are replaced, an existing Quest Log is left as-is, and
// every other key and section is kept in place. now dates the first log entry
// when a Quest Log has to be created.
func Encode(existing *markdown.Document, q Export, now time.Time) *markdown.Document {
	doc := existing
	if doc == nil {
		doc = markdown.New()
		doc.Preamble = "\n"
	}
	if doc.Frontmatter == nil {
		doc.Frontmatter = markdown.NewFrontmatter()
	}

	fm := doc.Frontmatter
	if q.Domain != "" {
		fm.Set(KeyDomain, q.Domain)
	} else {
		fm.Set(KeyDomain, nil)
	}
	fm.Set(KeyActive, q.Active)
	fm.Set(KeyPriority, models.NormalizePriority(q.Priority))
	switch {
	case q.WaitingFor != "":
		fm.Set(KeyWaitingFor, q.WaitingFor)
	case fm.Has(KeyWaitingFor):
		fm.Set(KeyWaitingFor, nil)
	}

	logIdx := doc.Section(HeaderQuestLogAlt, HeaderQuestLog)
	if logIdx < 0 {
		doc.Insert(0, markdown.Section{Header: HeaderQuestLog, Body: renderLog(q.Goal, now)})
		logIdx = 0
	}

	objBody := renderObjectives(q.Objectives)
	if i := doc.Section(HeaderObjectives); i >= 0 {
		doc.Sections[i].Body = objBody
	} else if len(q.Objectives) > 0 {
		doc.Insert(logIdx+1, markdown.Section{Header: HeaderObjectives, Body: objBody})
	}

	notesBody := renderNotes(q.Description)
	if i := doc.Section(HeaderNotes); i >= 0 {
		doc.Sections[i].Body = notesBody
	} else {
		doc.Insert(-1, markdown.Section{Header: HeaderNotes, Body: notesBody})
	}

	tidy(doc)
	return doc
}

// tidy keeps headers on their own line. Rendered sections get a blank line
// before the next header and the last one ends the file with a single
// newline; the Quest Log and foreign sections only gain a missing final newline.
func tidy(doc *markdown.Document) {
	if len(doc.Sections) > 0 && doc.Preamble != "" && !strings.HasSuffix(doc.Preamble, "\n") {
		doc.Preamble += "\n"
	}
	last := len(doc.Sections) - 1
	for i := range doc.Sections {
		s := &doc.Sections[i]
		switch {
		case s.Header != HeaderObjectives && s.Header != HeaderNotes:
			if i < last && s.Body != "" && !strings.HasSuffix(s.Body, "\n") {
				s.Body += "\n"
			}
		case i == last:
			s.Body = strings.TrimRight(s.Body, "\n") + "\n"
		case !strings.HasSuffix(s.Body, "\n\n"):
			s.Body = strings.TrimRight(s.Body, "\n") + "\n\n"
		}
	}
}

func renderLog(goal string, now time.Time) string {
	if goal == "" {
		return "\n"
	}
	return fmt.Sprintf("\n- %s: %s\n\n", now.Format(time.DateOnly), singleLine(goal))
}

func renderObjectives(objs []ObjectiveLine) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, o := range objs {
		mark := " "
		if o.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, singleLine(o.Text))
	}
	return b.String()
}

func renderNotes(description string) string {
	if description == "" {
		return "\n"
	}
	return "\n" + escapeNotes(description) + "\n"
}

// escapeNotes prefixes a backslash to every line that would otherwise parse
// as a section header. Lines that already look escaped gain one more so
// unescapeNotes restores them exactly.
func escapeNotes(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, `\`), "## ") {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

func unescapeNotes(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, `\`) && strings.HasPrefix(strings.TrimLeft(line, `\`), "## ") {
			lines[i] = line[1:]
		}
	}
	return strings.Join(lines, "\n")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
