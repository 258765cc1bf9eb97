package models

// DefaultDomainColor is used when a domain is created without a color.
const DefaultDomainColor = "#c8a84e"

// PersonalDomain receives quests from deleted domains.
const PersonalDomain = "Personal"

// Domain is a named, colored category grouping quests.
type Domain struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

// DefaultDomains are seeded on first run.
var DefaultDomains = []Domain{
	{Name: "Work", Color: "#4a90d9"},
	{Name: PersonalDomain, Color: "#c8a84e"},
	{Name: "Home", Color: "#6bb36b"},
}

// DomainPatch is a partial domain update.
type DomainPatch struct {
	Name      *string
	Color     *string
	SortOrder *int
}

// Settings holds user preferences persisted in the store.
type Settings struct {
	JournalFolder string `json:"journal_folder"`
}
