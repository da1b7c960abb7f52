// Package mocks provides mock implementations of the key store collaborators for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStorageBackend is a mock implementation of usecase.StorageBackend for testing.
type MockStorageBackend struct {
	mock.Mock
}

// FileExists mocks the FileExists method of StorageBackend.
func (m *MockStorageBackend) FileExists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

// IsDir mocks the IsDir method of StorageBackend.
func (m *MockStorageBackend) IsDir(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

// ReadFile mocks the ReadFile method of StorageBackend.
func (m *MockStorageBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// WriteFile mocks the WriteFile method of StorageBackend.
func (m *MockStorageBackend) WriteFile(ctx context.Context, path string, data []byte) (int, error) {
	args := m.Called(ctx, path, data)
	return args.Int(0), args.Error(1)
}

// Unlink mocks the Unlink method of StorageBackend.
func (m *MockStorageBackend) Unlink(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// DeleteAll mocks the DeleteAll method of StorageBackend.
func (m *MockStorageBackend) DeleteAll(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// Mkdir mocks the Mkdir method of StorageBackend.
func (m *MockStorageBackend) Mkdir(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// Rename mocks the Rename method of StorageBackend.
func (m *MockStorageBackend) Rename(ctx context.Context, source, target string) error {
	args := m.Called(ctx, source, target)
	return args.Error(0)
}

// Copy mocks the Copy method of StorageBackend.
func (m *MockStorageBackend) Copy(ctx context.Context, source, target string) error {
	args := m.Called(ctx, source, target)
	return args.Error(0)
}
