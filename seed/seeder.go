package seed

import (
	"context"
	"log/slog"

	"shelf/contacts"
)

// Seeder populates the contact store with sample data for demoing the UI
type Seeder struct {
	service contacts.Service
	logger  *slog.Logger
}

// NewSeeder creates a Seeder
func NewSeeder(service contacts.Service, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{service: service, logger: logger}
}

// SampleContacts returns the demo data set
func SampleContacts() []contacts.ContactInput {
	return []contacts.ContactInput{
		{Name: "Ada Lovelace", Email: "ada@example.com", Group: "engineering", Notes: "First programmer"},
		{Name: "Grace Hopper", Email: "grace@example.com", Group: "engineering", Notes: "Compiler pioneer"},
		{Name: "Katherine Johnson", Email: "katherine@example.com", Group: "science"},
		{Name: "Alan Turing", Email: "alan@example.com", Group: "science", Notes: "Computability"},
		{Name: "Barbara Liskov", Email: "barbara@example.com", Group: "engineering"},
		{Name: "Donald Knuth", Email: "don@example.com", Group: "writing", Notes: "TAOCP"},
	}
}

// Populate imports the sample contacts in one batch
func (s *Seeder) Populate(ctx context.Context) error {
	imported, err := s.service.ImportContacts(ctx, SampleContacts())
	if err != nil {
		return err
	}
	s.logger.Info("seeded contacts", slog.Int("count", len(imported)))
	return nil
}

// ClearAll removes every contact
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.service.ClearContacts(ctx)
}
