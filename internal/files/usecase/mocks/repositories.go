// Package mocks provides mock implementations of the file repositories for testing.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
)

// MockFileRepository is a mock implementation of FileRepository.
type MockFileRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockFileRepository) Create(ctx context.Context, file *filesDomain.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockFileRepository) Get(ctx context.Context, fileID uuid.UUID) (*filesDomain.File, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.File), args.Error(1)
}

// ListByOwner mocks the ListByOwner method.
func (m *MockFileRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit int,
) ([]*filesDomain.File, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*filesDomain.File), args.Error(1)
}

// ListSharedWith mocks the ListSharedWith method.
func (m *MockFileRepository) ListSharedWith(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*filesDomain.File, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*filesDomain.File), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockFileRepository) Delete(ctx context.Context, fileID uuid.UUID) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

// MockShareRepository is a mock implementation of ShareRepository.
type MockShareRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockShareRepository) Create(ctx context.Context, share *filesDomain.Share) error {
	args := m.Called(ctx, share)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockShareRepository) Exists(ctx context.Context, fileID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, fileID, userID)
	return args.Bool(0), args.Error(1)
}

// DeleteByFile mocks the DeleteByFile method.
func (m *MockShareRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

// MockShareLinkRepository is a mock implementation of ShareLinkRepository.
type MockShareLinkRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockShareLinkRepository) Create(ctx context.Context, link *filesDomain.ShareLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockShareLinkRepository) Get(ctx context.Context, linkID uuid.UUID) (*filesDomain.ShareLink, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.ShareLink), args.Error(1)
}

// DeleteByFile mocks the DeleteByFile method.
func (m *MockShareLinkRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

// DeleteExpired mocks the DeleteExpired method.
func (m *MockShareLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserLookup is a mock implementation of UserLookup.
type MockUserLookup struct {
	mock.Mock
}

// GetByEmail mocks the GetByEmail method.
func (m *MockUserLookup) GetByEmail(ctx context.Context, email string) (*authDomain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}
