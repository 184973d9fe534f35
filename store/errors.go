package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped) by store operations. Match with errors.Is.
var (
	// ErrClosed is returned when an operation is attempted on a closed handle or registry.
	ErrClosed = errors.New("store: handle is closed")

	// ErrKeyExists is returned by Add when a record with the same primary key already exists.
	ErrKeyExists = errors.New("store: key already exists")

	// ErrUniqueConstraint is returned when a write would duplicate a value in a unique index.
	ErrUniqueConstraint = errors.New("store: unique index constraint violated")

	// ErrNoSuchStore is returned when an operation names an object store the database
	// does not declare.
	ErrNoSuchStore = errors.New("store: no such object store")

	// ErrNoSuchIndex is returned when a query names an index the store does not declare.
	ErrNoSuchIndex = errors.New("store: no such index")

	// ErrVersionConflict is returned by Open when the requested version is lower than
	// the version already stored on disk.
	ErrVersionConflict = errors.New("store: requested version is lower than stored version")

	// ErrUpgradeRequired is returned when a schema change is attempted outside of a
	// version upgrade. Declare the change in the schema and reopen at version+1.
	ErrUpgradeRequired = errors.New("store: schema change requires a version upgrade")

	// ErrMissingKey is returned when a record lacks its key-path field and the store
	// does not auto-increment.
	ErrMissingKey = errors.New("store: record is missing its key-path field")

	// ErrReadOnlyTxn is returned when a write is attempted in a read-only transaction.
	ErrReadOnlyTxn = errors.New("store: transaction is read-only")

	// ErrTxnDone is returned when a committed or rolled-back transaction is reused.
	ErrTxnDone = errors.New("store: transaction already finished")

	// ErrStoreNotInTxn is returned when a transaction touches a store it did not declare.
	ErrStoreNotInTxn = errors.New("store: object store not declared by transaction")

	// ErrInvalidArgument is the sentinel matched by ArgumentError, returned by the
	// typed repository for nil entities and other rejected input.
	ErrInvalidArgument = errors.New("store: invalid argument")
)

// OpenError indicates that a database could not be opened.
type OpenError struct {
	Database string
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open database %q: %v", e.Database, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// UpgradeError indicates that applying a schema during a version upgrade failed.
// The database is left at its previous version.
type UpgradeError struct {
	Database string
	Version  uint64
	Err      error
}

func (e *UpgradeError) Error() string {
	return fmt.Sprintf("upgrade database %q to version %d: %v", e.Database, e.Version, e.Err)
}

func (e *UpgradeError) Unwrap() error { return e.Err }

// StoreError indicates that an object-store operation was rejected by the
// underlying engine or violated a constraint.
type StoreError struct {
	Op    string
	Store string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("%s on store %q: %v", e.Op, e.Store, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ArgumentError indicates invalid input to the typed repository.
type ArgumentError struct {
	Name    string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("invalid argument: %s", e.Message)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// storeErr wraps err in a StoreError for the given operation and store.
func storeErr(op, storeName string, err error) error {
	return &StoreError{Op: op, Store: storeName, Err: err}
}
