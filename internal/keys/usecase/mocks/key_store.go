package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
)

// MockKeyStore is a mock implementation of usecase.KeyStore for testing.
type MockKeyStore struct {
	mock.Mock
}

// GetUserKey mocks the GetUserKey method of KeyStore.
func (m *MockKeyStore) GetUserKey(ctx context.Context, uid, keyID, moduleID string) (keysDomain.KeyBlob, error) {
	args := m.Called(ctx, uid, keyID, moduleID)
	return args.Get(0).(keysDomain.KeyBlob), args.Error(1)
}

// GetFileKey mocks the GetFileKey method of KeyStore.
func (m *MockKeyStore) GetFileKey(ctx context.Context, path, keyID, moduleID string) (keysDomain.KeyBlob, error) {
	args := m.Called(ctx, path, keyID, moduleID)
	return args.Get(0).(keysDomain.KeyBlob), args.Error(1)
}

// GetSystemUserKey mocks the GetSystemUserKey method of KeyStore.
func (m *MockKeyStore) GetSystemUserKey(ctx context.Context, keyID, moduleID string) (keysDomain.KeyBlob, error) {
	args := m.Called(ctx, keyID, moduleID)
	return args.Get(0).(keysDomain.KeyBlob), args.Error(1)
}

// SetUserKey mocks the SetUserKey method of KeyStore.
func (m *MockKeyStore) SetUserKey(ctx context.Context, uid, keyID string, key []byte, moduleID string) error {
	args := m.Called(ctx, uid, keyID, key, moduleID)
	return args.Error(0)
}

// SetFileKey mocks the SetFileKey method of KeyStore.
func (m *MockKeyStore) SetFileKey(ctx context.Context, path, keyID string, key []byte, moduleID string) error {
	args := m.Called(ctx, path, keyID, key, moduleID)
	return args.Error(0)
}

// SetSystemUserKey mocks the SetSystemUserKey method of KeyStore.
func (m *MockKeyStore) SetSystemUserKey(ctx context.Context, keyID string, key []byte, moduleID string) error {
	args := m.Called(ctx, keyID, key, moduleID)
	return args.Error(0)
}

// DeleteUserKey mocks the DeleteUserKey method of KeyStore.
func (m *MockKeyStore) DeleteUserKey(ctx context.Context, uid, keyID, moduleID string) error {
	args := m.Called(ctx, uid, keyID, moduleID)
	return args.Error(0)
}

// DeleteFileKey mocks the DeleteFileKey method of KeyStore.
func (m *MockKeyStore) DeleteFileKey(ctx context.Context, path, keyID, moduleID string) error {
	args := m.Called(ctx, path, keyID, moduleID)
	return args.Error(0)
}

// DeleteAllFileKeys mocks the DeleteAllFileKeys method of KeyStore.
func (m *MockKeyStore) DeleteAllFileKeys(ctx context.Context, path, moduleID string) error {
	args := m.Called(ctx, path, moduleID)
	return args.Error(0)
}

// DeleteSystemUserKey mocks the DeleteSystemUserKey method of KeyStore.
func (m *MockKeyStore) DeleteSystemUserKey(ctx context.Context, keyID, moduleID string) error {
	args := m.Called(ctx, keyID, moduleID)
	return args.Error(0)
}

// RenameKeys mocks the RenameKeys method of KeyStore.
func (m *MockKeyStore) RenameKeys(ctx context.Context, source, target string) error {
	args := m.Called(ctx, source, target)
	return args.Error(0)
}

// CopyKeys mocks the CopyKeys method of KeyStore.
func (m *MockKeyStore) CopyKeys(ctx context.Context, source, target string) error {
	args := m.Called(ctx, source, target)
	return args.Error(0)
}

// Close mocks the Close method of KeyStore.
func (m *MockKeyStore) Close() {
	m.Called()
}
