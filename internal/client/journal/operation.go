package journal

import (
	"time"

	"github.com/google/uuid"
)

// OperationKind names the remote cleanup a journal entry stands for.
type OperationKind string

const (
	// KindDeleteCiphertext removes an uploaded ciphertext from the file API.
	KindDeleteCiphertext OperationKind = "delete_ciphertext"
	// KindDeleteKey removes a key record from the key custodian.
	KindDeleteKey OperationKind = "delete_key"
)

// OperationStatus is the lifecycle of a journal entry.
type OperationStatus string

const (
	OperationStatusPending OperationStatus = "pending"
	OperationStatusDone    OperationStatus = "done"
	OperationStatusFailed  OperationStatus = "failed"
)

// Operation is a cleanup that must still reach a remote service.
type Operation struct {
	ID        uuid.UUID
	Kind      OperationKind
	FileID    uuid.UUID
	Status    OperationStatus
	Attempts  int
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOperation creates a pending operation for fileID.
func NewOperation(kind OperationKind, fileID uuid.UUID) *Operation {
	now := time.Now().UTC()
	return &Operation{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      kind,
		FileID:    fileID,
		Status:    OperationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
