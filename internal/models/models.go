// Package models holds the gorm-mapped tables.
package models

// All lists every model, in dependency order, for AutoMigrate in tests and
// the embedded SQLite mode of the CLI.
func All() []any {
	return []any{
		&User{},
		&AuthIdentity{},
		&BrandVoice{},
		&SourceItem{},
		&Batch{},
		&UsageRecord{},
		&ChatMessage{},
		&SavedContent{},
	}
}
