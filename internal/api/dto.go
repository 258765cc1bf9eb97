package api

import (
	"bytes"
	"encoding/json"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/questlog/internal/journal"
	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/questservice"
)

const maxTitleLen = 200

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// nullString tells an absent JSON key apart from an explicit null.
type nullString struct {
	Set   bool
	Value string
}

func (n *nullString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = ""
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// CreateQuestRequest is the request body for creating a quest.
type CreateQuestRequest struct {
	Title       string   `json:"title" example:"Slay the dragon" validate:"required"`
	Goal        string   `json:"goal" example:"Free the village"`
	Description string   `json:"description"`
	Domain      string   `json:"domain" example:"3f1c..."`
	Active      bool     `json:"active"`
	WaitingFor  string   `json:"waiting_for" example:"Bob"`
	Priority    int      `json:"priority" example:"2"`
	Objectives  []string `json:"objectives"`
}

// Validate checks field shapes; business rules live in the service.
func (r CreateQuestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, maxTitleLen)),
		validation.Field(&r.Priority, validation.Min(models.PriorityNone), validation.Max(models.PriorityHigh)),
		validation.Field(&r.Objectives, validation.Each(validation.Length(0, 500))),
	)
}

func (r CreateQuestRequest) toNewQuest() questservice.NewQuest {
	return questservice.NewQuest{
		Title:       r.Title,
		Goal:        r.Goal,
		Description: r.Description,
		Domain:      r.Domain,
		Active:      r.Active,
		WaitingFor:  r.WaitingFor,
		Priority:    r.Priority,
		Objectives:  r.Objectives,
	}
}

// UpdateQuestRequest is a partial quest update. Absent keys are left alone;
// "waiting_for": null clears the blocker.
type UpdateQuestRequest struct {
	Title       *string    `json:"title"`
	Goal        *string    `json:"goal"`
	Description *string    `json:"description"`
	Domain      *string    `json:"domain"`
	Active      *bool      `json:"active"`
	WaitingFor  nullString `json:"waiting_for" swaggertype:"string"`
	Priority    *int       `json:"priority"`
	Completed   *bool      `json:"completed"`
}

func (r UpdateQuestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, maxTitleLen)),
		validation.Field(&r.Priority, validation.Min(models.PriorityNone), validation.Max(models.PriorityHigh)),
	)
}

func (r UpdateQuestRequest) toChanges() questservice.QuestChanges {
	c := questservice.QuestChanges{
		Title:       r.Title,
		Goal:        r.Goal,
		Description: r.Description,
		Domain:      r.Domain,
		Active:      r.Active,
		Priority:    r.Priority,
		Completed:   r.Completed,
	}
	if r.WaitingFor.Set {
		w := r.WaitingFor.Value
		c.WaitingFor = &w
	}
	return c
}

// CreateObjectiveRequest is the request body for adding an objective.
type CreateObjectiveRequest struct {
	Text string `json:"text" example:"Find the lair" validate:"required"`
}

func (r CreateObjectiveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 500)),
	)
}

// UpdateObjectiveRequest is a partial objective update.
type UpdateObjectiveRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

func (r UpdateObjectiveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.NilOrNotEmpty, validation.Length(1, 500)),
	)
}

// ReorderRequest lists ids in their new order.
type ReorderRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

func (r ReorderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.NotNil, validation.Each(validation.Required)),
	)
}

// CreateDomainRequest is the request body for creating a domain.
type CreateDomainRequest struct {
	Name  string `json:"name" example:"Garden" validate:"required"`
	Color string `json:"color" example:"#6bb36b"`
}

func (r CreateDomainRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Color, validation.Match(colorRe).Error("must be a #rrggbb hex color")),
	)
}

// UpdateDomainRequest is a partial domain update.
type UpdateDomainRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (r UpdateDomainRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Color, validation.NilOrNotEmpty, validation.Match(colorRe).Error("must be a #rrggbb hex color")),
	)
}

// SettingsRequest changes the journal folder.
type SettingsRequest struct {
	JournalFolder string `json:"journal_folder" example:"/home/me/journal" validate:"required"`
}

func (r SettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.JournalFolder, validation.Required),
	)
}

// ImportRequest runs a one-shot import. An empty Dir imports the journal folder.
type ImportRequest struct {
	Dir string `json:"dir" example:"/home/me/old-journal"`
}

func (r ImportRequest) Validate() error { return nil }

// QuestListResponse wraps quest listings.
type QuestListResponse struct {
	Quests []models.Quest `json:"quests" validate:"required"`
	Total  int            `json:"total" example:"7" validate:"required"`
}

// SettingsResponse is returned by GET /settings and PUT /settings.
type SettingsResponse struct {
	models.Settings
	Import *journal.ImportResult `json:"import,omitempty"`
}
