package store

import (
	"time"

	"github.com/starford/questlog/internal/models"
)

// Store defines the persistence operations used by the rest of the app.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Store interface {
	CreateQuest(in models.QuestInput) (*models.Quest, error)
	GetQuest(id string) (*models.Quest, error)
	FindQuestBySourceFile(path string) (*models.Quest, error)
	UpdateQuest(id string, p models.QuestPatch) (*models.Quest, error)
	DeleteQuest(id string) error
	ListQuests(f models.QuestFilter) ([]models.Quest, error)
	SearchQuests(query string, limit int) ([]models.Quest, error)
	ActiveQuestCount(excludeID string) (int, error)
	SourceFiles() (map[string]string, error)

	ListObjectives(questID string) ([]models.Objective, error)
	GetObjective(id string) (*models.Objective, error)
	CreateObjective(questID, text string) (*models.Objective, error)
	UpdateObjective(id string, p models.ObjectivePatch) (*models.Objective, error)
	DeleteObjective(id string) error
	ReorderObjectives(questID string, ids []string) error

	EnsureDefaultDomains() error
	ListDomains() ([]models.Domain, error)
	GetDomain(id string) (*models.Domain, error)
	GetDomainName(id string) (string, error)
	GetOrCreateDomain(name, color string) (*models.Domain, error)
	CreateDomain(name, color string) (*models.Domain, error)
	UpdateDomain(id string, p models.DomainPatch) (*models.Domain, error)
	DeleteDomain(id string) error
	ReorderDomains(ids []string) error

	GetSetting(key string) (string, error)
	SetSetting(key, value string) error

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// SetClock replaces the time source; used by tests.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}
