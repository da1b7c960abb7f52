package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	keysMocks "github.com/allisson/keystorage/internal/keys/usecase/mocks"
)

func TestRunTransferKeys(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	source := "/alice/files/doc.txt"
	target := "/alice/files/moved.txt"

	t.Run("rename-text-output", func(t *testing.T) {
		mockStore := &keysMocks.MockKeyStore{}
		mockStore.On("RenameKeys", ctx, source, target).Return(nil)

		var out bytes.Buffer
		err := RunTransferKeys(ctx, mockStore, logger, &out, TransferRename, source, target, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Renamed keys of /alice/files/doc.txt to /alice/files/moved.txt")
		mockStore.AssertExpectations(t)
	})

	t.Run("copy-json-output", func(t *testing.T) {
		mockStore := &keysMocks.MockKeyStore{}
		mockStore.On("CopyKeys", ctx, source, target).Return(nil)

		var out bytes.Buffer
		err := RunTransferKeys(ctx, mockStore, logger, &out, TransferCopy, source, target, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"operation": "copy"`)
		require.Contains(t, out.String(), `"target": "/alice/files/moved.txt"`)
		mockStore.AssertExpectations(t)
	})

	t.Run("same-path-reported-as-renamed", func(t *testing.T) {
		mockStore := &keysMocks.MockKeyStore{}
		mockStore.On("RenameKeys", ctx, source, source).Return(nil)

		var out bytes.Buffer
		err := RunTransferKeys(ctx, mockStore, logger, &out, TransferRename, source, source, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Renamed keys of /alice/files/doc.txt to /alice/files/doc.txt")
		mockStore.AssertExpectations(t)
	})

	t.Run("transfer-failed", func(t *testing.T) {
		mockStore := &keysMocks.MockKeyStore{}
		mockStore.On("RenameKeys", ctx, source, target).Return(keysDomain.ErrBackendIO)

		err := RunTransferKeys(ctx, mockStore, logger, &bytes.Buffer{}, TransferRename, source, target, "text")

		require.ErrorIs(t, err, keysDomain.ErrBackendIO)
		require.Contains(t, err.Error(), "failed to rename keys")
		mockStore.AssertExpectations(t)
	})

	t.Run("invalid-operation", func(t *testing.T) {
		mockStore := &keysMocks.MockKeyStore{}

		err := RunTransferKeys(ctx, mockStore, logger, &bytes.Buffer{}, "link", source, target, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid transfer operation")
	})
}
