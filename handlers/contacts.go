package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"shelf/contacts"
	apperrors "shelf/internal/errors"
)

// ContactHandlers handles contact CRUD requests
type ContactHandlers struct {
	container *Container
}

// NewContactHandlers creates a new ContactHandlers instance
func NewContactHandlers(container *Container) *ContactHandlers {
	return &ContactHandlers{container: container}
}

// ListContacts returns all contacts, or the contacts of one group when the
// "group" query parameter is present.
func (h *ContactHandlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		list []*contacts.Contact
		err  error
	)
	if group := r.URL.Query().Get("group"); group != "" {
		list, err = h.container.ContactService.GetContactsByGroup(ctx, group)
	} else {
		list, err = h.container.ContactService.GetAllContacts(ctx)
	}
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "list contacts", err)
		return
	}
	if list == nil {
		list = []*contacts.Contact{}
	}
	WriteJSON(w, h.container.Logger, http.StatusOK, list)
}

// GetContact returns one contact by ID
func (h *ContactHandlers) GetContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	contact, found, err := h.container.ContactService.GetContact(ctx, id)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "get contact", err)
		return
	}
	if !found {
		apperrors.HandleHTTPError(w, h.container.Logger, "get contact", contacts.ErrNotFound)
		return
	}
	WriteJSON(w, h.container.Logger, http.StatusOK, contact)
}

// CreateContact stores a new contact from a JSON body
func (h *ContactHandlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, err := decodeInput(r)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "create contact", err)
		return
	}
	contact, err := h.container.ContactService.CreateContact(ctx, input)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "create contact", err)
		return
	}
	WriteJSON(w, h.container.Logger, http.StatusCreated, contact)
}

// ImportContacts stores a batch of contacts atomically
func (h *ContactHandlers) ImportContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var inputs []contacts.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "import contacts",
			apperrors.NewValidationError("import contacts", err))
		return
	}
	imported, err := h.container.ContactService.ImportContacts(ctx, inputs)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "import contacts", err)
		return
	}
	WriteJSON(w, h.container.Logger, http.StatusCreated, imported)
}

// UpdateContact replaces an existing contact's fields
func (h *ContactHandlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	input, err := decodeInput(r)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "update contact", err)
		return
	}
	contact, err := h.container.ContactService.UpdateContact(ctx, id, input)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "update contact", err)
		return
	}
	WriteJSON(w, h.container.Logger, http.StatusOK, contact)
}

// DeleteContact removes a contact by ID
func (h *ContactHandlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	if err := h.container.ContactService.DeleteContact(ctx, id); err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "delete contact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountContacts returns the number of stored contacts
func (h *ContactHandlers) CountContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.container.ContactService.CountContacts(ctx)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "count contacts", err)
		return
	}
	WriteJSON(w, h.container.Logger, http.StatusOK, map[string]int{"count": count})
}

// ClearContacts removes every contact
func (h *ContactHandlers) ClearContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.container.ContactService.ClearContacts(ctx); err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "clear contacts", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDatabases returns every database file with its stored version
func (h *ContactHandlers) ListDatabases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	infos, err := h.container.Registry.Databases(ctx)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, "list databases", err)
		return
	}
	WriteJSON(w, h.container.Logger, http.StatusOK, infos)
}

func decodeInput(r *http.Request) (contacts.ContactInput, error) {
	var input contacts.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return input, apperrors.NewValidationError("decode request body", err)
	}
	return input, nil
}
