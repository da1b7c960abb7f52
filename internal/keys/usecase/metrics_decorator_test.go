package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	keysUsecaseMocks "github.com/allisson/keystorage/internal/keys/usecase/mocks"
	"github.com/allisson/keystorage/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordKeySize(ctx context.Context, domain, operation string, size int) {
	m.Called(ctx, domain, operation, size)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// TestNewKeyStoreWithMetrics tests the metrics decorator constructor.
func TestNewKeyStoreWithMetrics(t *testing.T) {
	decorator := NewKeyStoreWithMetrics(&keysUsecaseMocks.MockKeyStore{}, &mockBusinessMetrics{})

	assert.NotNil(t, decorator)
	assert.Implements(t, (*KeyStore)(nil), decorator)
}

// TestMetricsDecorator_Operations tests that every operation records its
// counter and duration with the outcome of the wrapped call.
func TestMetricsDecorator_Operations(t *testing.T) {
	ctx := context.Background()
	key := []byte("ABC123")

	tests := []struct {
		name      string
		operation string
		method    string
		args      []interface{}
		returns   func(err error) []interface{}
		call      func(store KeyStore) error
	}{
		{
			name:      "GetUserKey",
			operation: "user_key_get",
			method:    "GetUserKey",
			args:      []interface{}{ctx, "alice", "privateKey", testModule},
			returns:   blobReturns,
			call: func(store KeyStore) error {
				_, err := store.GetUserKey(ctx, "alice", "privateKey", testModule)
				return err
			},
		},
		{
			name:      "GetFileKey",
			operation: "file_key_get",
			method:    "GetFileKey",
			args:      []interface{}{ctx, docPath, "fileKey", testModule},
			returns:   blobReturns,
			call: func(store KeyStore) error {
				_, err := store.GetFileKey(ctx, docPath, "fileKey", testModule)
				return err
			},
		},
		{
			name:      "GetSystemUserKey",
			operation: "system_user_key_get",
			method:    "GetSystemUserKey",
			args:      []interface{}{ctx, "recoveryKey", testModule},
			returns:   blobReturns,
			call: func(store KeyStore) error {
				_, err := store.GetSystemUserKey(ctx, "recoveryKey", testModule)
				return err
			},
		},
		{
			name:      "SetUserKey",
			operation: "user_key_set",
			method:    "SetUserKey",
			args:      []interface{}{ctx, "alice", "privateKey", key, testModule},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.SetUserKey(ctx, "alice", "privateKey", key, testModule)
			},
		},
		{
			name:      "SetFileKey",
			operation: "file_key_set",
			method:    "SetFileKey",
			args:      []interface{}{ctx, docPath, "fileKey", key, testModule},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.SetFileKey(ctx, docPath, "fileKey", key, testModule)
			},
		},
		{
			name:      "SetSystemUserKey",
			operation: "system_user_key_set",
			method:    "SetSystemUserKey",
			args:      []interface{}{ctx, "recoveryKey", key, testModule},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.SetSystemUserKey(ctx, "recoveryKey", key, testModule)
			},
		},
		{
			name:      "DeleteUserKey",
			operation: "user_key_delete",
			method:    "DeleteUserKey",
			args:      []interface{}{ctx, "alice", "privateKey", testModule},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.DeleteUserKey(ctx, "alice", "privateKey", testModule)
			},
		},
		{
			name:      "DeleteFileKey",
			operation: "file_key_delete",
			method:    "DeleteFileKey",
			args:      []interface{}{ctx, docPath, "fileKey", testModule},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.DeleteFileKey(ctx, docPath, "fileKey", testModule)
			},
		},
		{
			name:      "DeleteAllFileKeys",
			operation: "file_keys_delete_all",
			method:    "DeleteAllFileKeys",
			args:      []interface{}{ctx, docPath, testModule},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.DeleteAllFileKeys(ctx, docPath, testModule)
			},
		},
		{
			name:      "DeleteSystemUserKey",
			operation: "system_user_key_delete",
			method:    "DeleteSystemUserKey",
			args:      []interface{}{ctx, "recoveryKey", testModule},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.DeleteSystemUserKey(ctx, "recoveryKey", testModule)
			},
		},
		{
			name:      "RenameKeys",
			operation: "keys_rename",
			method:    "RenameKeys",
			args:      []interface{}{ctx, docPath, movedPath},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.RenameKeys(ctx, docPath, movedPath)
			},
		},
		{
			name:      "CopyKeys",
			operation: "keys_copy",
			method:    "CopyKeys",
			args:      []interface{}{ctx, docPath, movedPath},
			returns:   errReturns,
			call: func(store KeyStore) error {
				return store.CopyKeys(ctx, docPath, movedPath)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"_RecordsSuccessMetrics", func(t *testing.T) {
			mockStore := &keysUsecaseMocks.MockKeyStore{}
			mockMetrics := &mockBusinessMetrics{}

			mockStore.On(tt.method, tt.args...).Return(tt.returns(nil)...).Once()
			mockMetrics.On("RecordOperation", ctx, "keys", tt.operation, "success").Return().Once()
			mockMetrics.On("RecordDuration", ctx, "keys", tt.operation, mock.AnythingOfType("time.Duration"), "success").
				Return().
				Once()
			mockMetrics.On("RecordKeySize", ctx, "keys", tt.operation, len(key)).Return().Maybe()

			err := tt.call(NewKeyStoreWithMetrics(mockStore, mockMetrics))

			assert.NoError(t, err)
			mockStore.AssertExpectations(t)
			mockMetrics.AssertExpectations(t)
		})

		t.Run(tt.name+"_RecordsErrorMetrics", func(t *testing.T) {
			mockStore := &keysUsecaseMocks.MockKeyStore{}
			mockMetrics := &mockBusinessMetrics{}
			expectedErr := errors.New("backend down")

			mockStore.On(tt.method, tt.args...).Return(tt.returns(expectedErr)...).Once()
			mockMetrics.On("RecordOperation", ctx, "keys", tt.operation, "error").Return().Once()
			mockMetrics.On("RecordDuration", ctx, "keys", tt.operation, mock.AnythingOfType("time.Duration"), "error").
				Return().
				Once()

			err := tt.call(NewKeyStoreWithMetrics(mockStore, mockMetrics))

			assert.Equal(t, expectedErr, err)
			mockStore.AssertExpectations(t)
			mockMetrics.AssertExpectations(t)
			mockMetrics.AssertNotCalled(t, "RecordKeySize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// TestMetricsDecorator_KeySize tests that key sizes are recorded for present
// reads and successful writes only.
func TestMetricsDecorator_KeySize(t *testing.T) {
	ctx := context.Background()

	t.Run("PresentRead", func(t *testing.T) {
		mockStore := &keysUsecaseMocks.MockKeyStore{}
		mockMetrics := &mockBusinessMetrics{}
		mockStore.On("GetUserKey", ctx, "alice", "privateKey", testModule).
			Return(keysDomain.Present([]byte("ABC123")), nil)
		mockMetrics.On("RecordOperation", ctx, "keys", "user_key_get", "success").Return()
		mockMetrics.On("RecordDuration", ctx, "keys", "user_key_get", mock.Anything, "success").Return()
		mockMetrics.On("RecordKeySize", ctx, "keys", "user_key_get", 6).Return().Once()

		_, err := NewKeyStoreWithMetrics(mockStore, mockMetrics).GetUserKey(ctx, "alice", "privateKey", testModule)

		assert.NoError(t, err)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("AbsentRead", func(t *testing.T) {
		mockStore := &keysUsecaseMocks.MockKeyStore{}
		mockMetrics := &mockBusinessMetrics{}
		mockStore.On("GetSystemUserKey", ctx, "recoveryKey", testModule).Return(keysDomain.Absent(), nil)
		mockMetrics.On("RecordOperation", ctx, "keys", "system_user_key_get", "success").Return()
		mockMetrics.On("RecordDuration", ctx, "keys", "system_user_key_get", mock.Anything, "success").Return()

		_, err := NewKeyStoreWithMetrics(mockStore, mockMetrics).GetSystemUserKey(ctx, "recoveryKey", testModule)

		assert.NoError(t, err)
		mockMetrics.AssertNotCalled(t, "RecordKeySize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Write", func(t *testing.T) {
		mockStore := &keysUsecaseMocks.MockKeyStore{}
		mockMetrics := &mockBusinessMetrics{}
		key := make([]byte, 32)
		mockStore.On("SetFileKey", ctx, docPath, "fileKey", key, testModule).Return(nil)
		mockMetrics.On("RecordOperation", ctx, "keys", "file_key_set", "success").Return()
		mockMetrics.On("RecordDuration", ctx, "keys", "file_key_set", mock.Anything, "success").Return()
		mockMetrics.On("RecordKeySize", ctx, "keys", "file_key_set", 32).Return().Once()

		err := NewKeyStoreWithMetrics(mockStore, mockMetrics).SetFileKey(ctx, docPath, "fileKey", key, testModule)

		assert.NoError(t, err)
		mockMetrics.AssertExpectations(t)
	})
}

// TestMetricsDecorator_Close tests that Close is forwarded without metrics.
func TestMetricsDecorator_Close(t *testing.T) {
	mockStore := &keysUsecaseMocks.MockKeyStore{}
	mockMetrics := &mockBusinessMetrics{}
	mockStore.On("Close").Return().Once()

	NewKeyStoreWithMetrics(mockStore, mockMetrics).Close()

	mockStore.AssertExpectations(t)
	mockMetrics.AssertNotCalled(t, "RecordOperation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func blobReturns(err error) []interface{} {
	if err != nil {
		return []interface{}{keysDomain.Absent(), err}
	}
	return []interface{}{keysDomain.Present([]byte("ABC123")), nil}
}

func errReturns(err error) []interface{} {
	return []interface{}{err}
}
