package contacts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shelf/store"
)

// StoreName is the object store contacts live in.
const StoreName = "contacts"

// Index names derived from the Contact struct tags.
const (
	NameIndex  = "nameIndex"
	EmailIndex = "emailIndex"
	GroupIndex = "groupIndex"
)

// RepositoryImpl implements Repository on top of the typed store facade
type RepositoryImpl struct {
	*store.Repository[Contact]
}

// NewRepository creates a contact repository bound to the given database
func NewRepository(reg *store.Registry, database string, version uint64) (Repository, error) {
	repo, err := store.NewRepository[Contact](reg, database, StoreName, version)
	if err != nil {
		return nil, err
	}
	return &RepositoryImpl{Repository: repo}, nil
}

// Save stores a contact, assigning an ID and timestamps on first save
func (r *RepositoryImpl) Save(ctx context.Context, contact *Contact) error {
	if contact == nil {
		return &store.ArgumentError{Name: "contact", Message: "must not be nil"}
	}
	now := time.Now().UTC()
	if contact.ID == "" {
		contact.ID = uuid.New().String()
		contact.CreatedAt = now
		contact.UpdatedAt = now
		return r.Repository.Add(ctx, contact)
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now
	return r.Repository.Update(ctx, contact)
}

// SaveAll stores several new contacts atomically
func (r *RepositoryImpl) SaveAll(ctx context.Context, contacts []*Contact) error {
	now := time.Now().UTC()
	for _, c := range contacts {
		if c == nil {
			return &store.ArgumentError{Name: "contacts", Message: "must not contain nil entries"}
		}
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
	}
	return r.Repository.AddMany(ctx, contacts)
}

// Get retrieves a contact by ID
func (r *RepositoryImpl) Get(ctx context.Context, id string) (*Contact, bool, error) {
	return r.Repository.GetOne(ctx, id)
}

// GetAll retrieves all contacts
func (r *RepositoryImpl) GetAll(ctx context.Context) ([]*Contact, error) {
	all, err := r.Repository.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return asPointers(all), nil
}

// GetByGroup retrieves all contacts in a group
func (r *RepositoryImpl) GetByGroup(ctx context.Context, group string) ([]*Contact, error) {
	matched, err := r.Repository.GetAllByIndex(ctx, GroupIndex, group)
	if err != nil {
		return nil, err
	}
	return asPointers(matched), nil
}

// GetByEmail retrieves the contact with the given email address, if any
func (r *RepositoryImpl) GetByEmail(ctx context.Context, email string) (*Contact, bool, error) {
	matched, err := r.Repository.GetAllByIndex(ctx, EmailIndex, email)
	if err != nil {
		return nil, false, err
	}
	if len(matched) == 0 {
		return nil, false, nil
	}
	// Email carries a unique index, so at most one match exists.
	return &matched[0], true, nil
}

// Delete removes a contact by ID
func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.Repository.Delete(ctx, id)
}

func asPointers(contacts []Contact) []*Contact {
	out := make([]*Contact, len(contacts))
	for i := range contacts {
		out[i] = &contacts[i]
	}
	return out
}
