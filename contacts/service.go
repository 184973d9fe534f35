package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shelf/internal/validation"
)

// ServiceImpl implements the contact business logic on top of a Repository
type ServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a contact service
func NewService(repo Repository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceImpl{repo: repo, logger: logger}
}

// validateInput checks all caller-supplied fields
func validateInput(input ContactInput) error {
	if err := validation.ValidateName(input.Name); err != nil {
		return err
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return err
	}
	if err := validation.ValidateGroup(input.Group); err != nil {
		return err
	}
	return validation.ValidateNotes(input.Notes)
}

func contactFromInput(input ContactInput) *Contact {
	return &Contact{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Group: strings.TrimSpace(input.Group),
		Notes: input.Notes,
	}
}

// CreateContact validates and stores a new contact
func (s *ServiceImpl) CreateContact(ctx context.Context, input ContactInput) (*Contact, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	contact := contactFromInput(input)
	if err := s.repo.Save(ctx, contact); err != nil {
		return nil, err
	}
	s.logger.Info("contact created",
		slog.String("id", contact.ID),
		slog.String("email", contact.Email))
	return contact, nil
}

// ImportContacts validates and stores a batch of contacts atomically
func (s *ServiceImpl) ImportContacts(ctx context.Context, inputs []ContactInput) ([]*Contact, error) {
	if len(inputs) == 0 {
		return nil, validation.NewValidationError("contacts", "at least one contact is required")
	}
	batch := make([]*Contact, len(inputs))
	for i, input := range inputs {
		if err := validateInput(input); err != nil {
			return nil, fmt.Errorf("contact %d: %w", i, err)
		}
		batch[i] = contactFromInput(input)
	}
	if err := s.repo.SaveAll(ctx, batch); err != nil {
		return nil, err
	}
	s.logger.Info("contacts imported", slog.Int("count", len(batch)))
	return batch, nil
}

// GetContact retrieves a single contact by ID
func (s *ServiceImpl) GetContact(ctx context.Context, id string) (*Contact, bool, error) {
	if id == "" {
		return nil, false, validation.NewValidationError("id", "contact ID is required")
	}
	return s.repo.Get(ctx, id)
}

// GetAllContacts retrieves all contacts
func (s *ServiceImpl) GetAllContacts(ctx context.Context) ([]*Contact, error) {
	return s.repo.GetAll(ctx)
}

// GetContactsByGroup retrieves all contacts in a group via the group index
func (s *ServiceImpl) GetContactsByGroup(ctx context.Context, group string) ([]*Contact, error) {
	if err := validation.ValidateGroup(group); err != nil {
		return nil, err
	}
	if group == "" {
		return nil, validation.NewValidationError("group", "group is required")
	}
	return s.repo.GetByGroup(ctx, group)
}

// UpdateContact validates input and replaces an existing contact's fields
func (s *ServiceImpl) UpdateContact(ctx context.Context, id string, input ContactInput) (*Contact, error) {
	if id == "" {
		return nil, validation.NewValidationError("id", "contact ID is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	existing, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	updated := contactFromInput(input)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := s.repo.Save(ctx, updated); err != nil {
		return nil, err
	}
	s.logger.Info("contact updated", slog.String("id", updated.ID))
	return updated, nil
}

// DeleteContact removes a contact by ID
func (s *ServiceImpl) DeleteContact(ctx context.Context, id string) error {
	if id == "" {
		return validation.NewValidationError("id", "contact ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("contact deleted", slog.String("id", id))
	return nil
}

// CountContacts returns the number of stored contacts
func (s *ServiceImpl) CountContacts(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ClearContacts removes every contact
func (s *ServiceImpl) ClearContacts(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.logger.Warn("all contacts cleared")
	return nil
}
