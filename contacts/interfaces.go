package contacts

import (
	"context"
	"errors"
)

// ErrNotFound is returned by service operations that require an existing contact.
var ErrNotFound = errors.New("contact not found")

// Repository defines the interface for contact persistence
type Repository interface {
	// Save stores a contact, assigning an ID and timestamps on first save
	Save(ctx context.Context, contact *Contact) error

	// SaveAll stores several new contacts atomically
	SaveAll(ctx context.Context, contacts []*Contact) error

	// Get retrieves a contact by ID; found reports whether it exists
	Get(ctx context.Context, id string) (*Contact, bool, error)

	// GetAll retrieves all contacts
	GetAll(ctx context.Context) ([]*Contact, error)

	// GetByGroup retrieves all contacts in a group
	GetByGroup(ctx context.Context, group string) ([]*Contact, error)

	// GetByEmail retrieves the contact with the given email address, if any
	GetByEmail(ctx context.Context, email string) (*Contact, bool, error)

	// Delete removes a contact by ID
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored contacts
	Count(ctx context.Context) (int, error)

	// Clear removes every contact
	Clear(ctx context.Context) error
}

// Service defines business logic for contacts
type Service interface {
	CreateContact(ctx context.Context, input ContactInput) (*Contact, error)
	ImportContacts(ctx context.Context, inputs []ContactInput) ([]*Contact, error)
	GetContact(ctx context.Context, id string) (*Contact, bool, error)
	GetAllContacts(ctx context.Context) ([]*Contact, error)
	GetContactsByGroup(ctx context.Context, group string) ([]*Contact, error)
	UpdateContact(ctx context.Context, id string, input ContactInput) (*Contact, error)
	DeleteContact(ctx context.Context, id string) error
	CountContacts(ctx context.Context) (int, error)
	ClearContacts(ctx context.Context) error
}
