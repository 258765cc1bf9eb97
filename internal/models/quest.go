// Package models defines the domain types for Questlog.
package models

import "time"

// Priority levels. PriorityLegacy is an old sentinel that loads as PriorityNone.
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3

	PriorityLegacy = 50
)

// NormalizePriority maps the legacy sentinel and any out-of-range value to PriorityNone.
func NormalizePriority(p int) int {
	if p < PriorityNone || p > PriorityHigh {
		return PriorityNone
	}
	return p
}

// Quest is a tracked task/goal record.
type Quest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Goal        string     `json:"goal"`
	Description string     `json:"description"`
	Domain      string     `json:"domain"` // domain id, empty for uncategorized
	Active      bool       `json:"active"`
	WaitingFor  *string    `json:"waiting_for"`
	Priority    int        `json:"priority"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SourceFile  *string    `json:"source_file"`
}

// Completed reports whether the quest is done.
func (q *Quest) Completed() bool { return q.CompletedAt != nil }

// Objective is a checklist item owned by exactly one quest.
type Objective struct {
	ID        string `json:"id"`
	QuestID   string `json:"quest_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	SortOrder int    `json:"sort_order"`
}

// QuestWithObjectives is a quest together with its ordered checklist.
type QuestWithObjectives struct {
	Quest
	Objectives []Objective `json:"objectives"`
}

// QuestInput holds the fields accepted when creating a quest.
type QuestInput struct {
	Title       string
	Goal        string
	Description string
	Domain      string
	Active      bool
	WaitingFor  *string
	Priority    int
	SourceFile  *string
}

// QuestPatch is a partial quest update; nil fields are left untouched.
//
// WaitingFor, CompletedAt and SourceFile are double pointers so that a patch
// can distinguish "leave alone" (nil) from "set to null" (pointer to nil).
type QuestPatch struct {
	Title       *string
	Goal        *string
	Description *string
	Domain      *string
	Active      *bool
	WaitingFor  **string
	Priority    *int
	CompletedAt **time.Time
	SourceFile  **string
}

// Empty reports whether the patch changes nothing.
func (p QuestPatch) Empty() bool {
	return p.Title == nil && p.Goal == nil && p.Description == nil && p.Domain == nil &&
		p.Active == nil && p.WaitingFor == nil && p.Priority == nil && p.CompletedAt == nil &&
		p.SourceFile == nil
}

// ObjectivePatch is a partial objective update.
type ObjectivePatch struct {
	Text      *string
	Completed *bool
	SortOrder *int
}

// QuestFilter narrows ListQuests results.
type QuestFilter struct {
	Domain        string
	ActiveOnly    bool
	ShowCompleted bool
	Query         string
}
