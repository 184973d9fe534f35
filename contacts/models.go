package contacts

import (
	"time"
)

// Contact is the demo entity stored through the typed repository. The shelf
// tags drive the derived store definition: ID is the key path, Name and Group
// get secondary indexes, and Email gets a unique index.
type Contact struct {
	ID        string    `json:"id" shelf:"key"`
	Name      string    `json:"name" shelf:"index"`
	Email     string    `json:"email" shelf:"index,unique"`
	Group     string    `json:"group,omitempty" shelf:"index"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactInput carries the caller-supplied fields of a create or update.
type ContactInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Group string `json:"group"`
	Notes string `json:"notes"`
}
