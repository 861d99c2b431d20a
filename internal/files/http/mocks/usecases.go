// Package mocks provides mock implementations of the file use cases for testing HTTP handlers.
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	filesDomain "github.com/allisson/filevault/internal/files/domain"
	filesUseCase "github.com/allisson/filevault/internal/files/usecase"
)

// MockFileUseCase is a mock implementation of FileUseCase for testing.
type MockFileUseCase struct {
	mock.Mock
}

// Upload mocks the Upload method of FileUseCase.
func (m *MockFileUseCase) Upload(
	ctx context.Context,
	caller *authDomain.Principal,
	input *filesUseCase.UploadInput,
) (*filesDomain.File, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.File), args.Error(1)
}

// List mocks the List method of FileUseCase.
func (m *MockFileUseCase) List(
	ctx context.Context,
	caller *authDomain.Principal,
	offset, limit int,
) ([]*filesDomain.File, error) {
	args := m.Called(ctx, caller, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*filesDomain.File), args.Error(1)
}

// ListSharedWithMe mocks the ListSharedWithMe method of FileUseCase.
func (m *MockFileUseCase) ListSharedWithMe(
	ctx context.Context,
	caller *authDomain.Principal,
	offset, limit int,
) ([]*filesDomain.File, error) {
	args := m.Called(ctx, caller, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*filesDomain.File), args.Error(1)
}

// GetMetadata mocks the GetMetadata method of FileUseCase.
func (m *MockFileUseCase) GetMetadata(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
) (*filesDomain.File, error) {
	args := m.Called(ctx, caller, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.File), args.Error(1)
}

// OpenCiphertext mocks the OpenCiphertext method of FileUseCase.
func (m *MockFileUseCase) OpenCiphertext(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
) (*filesDomain.File, io.ReadCloser, error) {
	args := m.Called(ctx, caller, fileID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*filesDomain.File), args.Get(1).(io.ReadCloser), args.Error(2)
}

// Delete mocks the Delete method of FileUseCase.
func (m *MockFileUseCase) Delete(ctx context.Context, caller *authDomain.Principal, fileID uuid.UUID) error {
	args := m.Called(ctx, caller, fileID)
	return args.Error(0)
}

// Share mocks the Share method of FileUseCase.
func (m *MockFileUseCase) Share(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
	email string,
) error {
	args := m.Called(ctx, caller, fileID, email)
	return args.Error(0)
}

// MockShareLinkUseCase is a mock implementation of ShareLinkUseCase for testing.
type MockShareLinkUseCase struct {
	mock.Mock
}

// Create mocks the Create method of ShareLinkUseCase.
func (m *MockShareLinkUseCase) Create(
	ctx context.Context,
	caller *authDomain.Principal,
	fileID uuid.UUID,
	expiresIn *time.Duration,
) (*filesDomain.ShareLink, error) {
	args := m.Called(ctx, caller, fileID, expiresIn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.ShareLink), args.Error(1)
}

// Resolve mocks the Resolve method of ShareLinkUseCase.
func (m *MockShareLinkUseCase) Resolve(ctx context.Context, linkID uuid.UUID) (*filesDomain.SharedFile, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.SharedFile), args.Error(1)
}

// OpenCiphertext mocks the OpenCiphertext method of ShareLinkUseCase.
func (m *MockShareLinkUseCase) OpenCiphertext(
	ctx context.Context,
	linkID uuid.UUID,
) (*filesDomain.SharedFile, io.ReadCloser, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*filesDomain.SharedFile), args.Get(1).(io.ReadCloser), args.Error(2)
}

// PurgeExpired mocks the PurgeExpired method of ShareLinkUseCase.
func (m *MockShareLinkUseCase) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
