package model

import "github.com/google/uuid"

// Phrase is a single motivational phrase with author attribution.
// Phrases are authored out of band and are read-only to the delivery
// engine; history rows reference the id, so it must stay stable.
type Phrase struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Text   string    `json:"text" db:"text"`
	Author string    `json:"author" db:"author"`
}
