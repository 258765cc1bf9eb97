package mcpserver

// QuestFormatContract describes the Markdown layout of a quest file in the
// journal folder. Files written by hand or by an LLM must follow it to be
// picked up as quests.
const QuestFormatContract = `# Questlog Quest Format

Every quest is one Markdown file directly inside the journal folder. The file
name (without ` + "`" + `.md` + "`" + `) is the quest title.

## Structure

` + "```" + `markdown
---
domain: Work          # OPTIONAL – domain name; created on import if unknown, null for none
active: true          # OPTIONAL – true/false
priority: 2           # OPTIONAL – 0 none, 1 low, 2 medium, 3 high
waiting_for: Bob      # OPTIONAL – who or what the quest is blocked on
next_action: Call Bob # OPTIONAL – read once, becomes the first objective on import
---

## QuestLog

- 2025-01-15: The goal of the quest

## Objectives

- [ ] An open objective
- [x] A finished objective

## Notes

Free-form description.
` + "```" + `

## Rules

1. **Frontmatter is optional** but when present the ` + "`" + `---` + "`" + ` fences must be the
   first line of the file.
2. **Goal** is the first entry of the ` + "`" + `## QuestLog` + "`" + ` section (also accepted:
   ` + "`" + `## Quest Log` + "`" + `), with its ` + "`" + `- YYYY-MM-DD:` + "`" + ` prefix removed.
3. **Objectives** are ` + "`" + `- [ ]` + "`" + ` / ` + "`" + `- [x]` + "`" + ` lines; their order in the file is
   their order in the app.
4. **Notes** holds the description verbatim. A description line starting with ` + "`" + `## ` + "`" + ` is written
   with a leading backslash so it stays inside Notes.
5. Other frontmatter keys and other sections are preserved when the app rewrites the file.
6. Files whose name starts with ` + "`" + `_` + "`" + ` and files in sub-folders are ignored.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
domain: Home
active: true
priority: 3
---

## QuestLog

- 2025-03-01: Get the garden under control

## Objectives

- [x] Buy gloves
- [ ] Pull weeds
- [ ] Plant roses

## Notes

Start at the back fence.
` + "```" + `
`
