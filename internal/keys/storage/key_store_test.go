package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	keysService "github.com/allisson/keystorage/internal/keys/service"
	keysUsecase "github.com/allisson/keystorage/internal/keys/usecase"
)

const testModule = "encryption_module_0"

func newStoreOver(backend keysUsecase.StorageBackend, mounts ...keysDomain.MountPoint) keysUsecase.KeyStore {
	deriver := keysService.NewPathDeriver(keysService.NewPathResolver(mounts))
	return keysUsecase.NewKeyStore(backend, deriver, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func countObjects(t *testing.T, backend *BlobBackend) int {
	t.Helper()
	keys, err := backend.listKeys(context.Background(), "")
	require.NoError(t, err)
	return len(keys)
}

func TestKeyStore_OverBlobBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SetGetDeleteAll", func(t *testing.T) {
		store := newStoreOver(newMemBackend(t))

		require.NoError(t, store.SetFileKey(ctx, "/alice/files/doc.txt", "fileKey", []byte("ABC123"), testModule))

		blob, err := store.GetFileKey(ctx, "/alice/files/doc.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", blob.String())

		require.NoError(t, store.DeleteAllFileKeys(ctx, "/alice/files/doc.txt", testModule))

		blob, err = store.GetFileKey(ctx, "/alice/files/doc.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "", blob.String())
	})

	t.Run("Success_WriteThenReadFromFreshStore", func(t *testing.T) {
		backend := newMemBackend(t)
		require.NoError(t, newStoreOver(backend).SetUserKey(ctx, "alice", "publicKey", []byte("pub"), testModule))
		require.NoError(t, newStoreOver(backend).SetSystemUserKey(ctx, "recoveryKey", []byte("rec"), testModule))

		store := newStoreOver(backend)
		blob, err := store.GetUserKey(ctx, "alice", "publicKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "pub", blob.String())

		blob, err = store.GetSystemUserKey(ctx, "recoveryKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "rec", blob.String())

		data, err := backend.ReadFile(ctx, "/alice/files_encryption/encryption_module_0/alice.publicKey")
		require.NoError(t, err)
		assert.Equal(t, "pub", string(data))
	})

	t.Run("Success_DirectoryAutoCreation", func(t *testing.T) {
		backend := newMemBackend(t)
		store := newStoreOver(backend)

		require.NoError(t, store.SetFileKey(ctx, "/alice/files/a/b/doc.txt", "fileKey", []byte("k"), testModule))

		for _, dir := range []string{
			"/alice",
			"/alice/files_encryption",
			"/alice/files_encryption/keys",
			"/alice/files_encryption/keys/files/a/b/doc.txt",
			"/alice/files_encryption/keys/files/a/b/doc.txt/encryption_module_0",
		} {
			isDir, err := backend.IsDir(ctx, dir)
			require.NoError(t, err)
			assert.True(t, isDir, dir)
		}
	})

	t.Run("Success_IdempotentDelete", func(t *testing.T) {
		store := newStoreOver(newMemBackend(t))
		require.NoError(t, store.SetUserKey(ctx, "alice", "privateKey", []byte("k"), testModule))

		assert.NoError(t, store.DeleteUserKey(ctx, "alice", "privateKey", testModule))
		assert.NoError(t, store.DeleteUserKey(ctx, "alice", "privateKey", testModule))
		assert.NoError(t, store.DeleteFileKey(ctx, "/alice/files/none.txt", "fileKey", testModule))

		blob, err := store.GetUserKey(ctx, "alice", "privateKey", testModule)
		require.NoError(t, err)
		assert.False(t, blob.IsPresent())
	})

	t.Run("Success_RenameMoves", func(t *testing.T) {
		backend := newMemBackend(t)
		store := newStoreOver(backend)
		require.NoError(t, store.SetFileKey(ctx, "/alice/files/a.txt", "fileKey", []byte("ABC123"), testModule))
		require.NoError(t, store.SetFileKey(ctx, "/alice/files/a.txt", "fileKey", []byte("XYZ"), "encryption_module_1"))

		require.NoError(t, store.RenameKeys(ctx, "/alice/files/a.txt", "/alice/files/sub/b.txt"))

		blob, err := store.GetFileKey(ctx, "/alice/files/sub/b.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", blob.String())

		blob, err = store.GetFileKey(ctx, "/alice/files/sub/b.txt", "fileKey", "encryption_module_1")
		require.NoError(t, err)
		assert.Equal(t, "XYZ", blob.String())

		blob, err = store.GetFileKey(ctx, "/alice/files/a.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.False(t, blob.IsPresent())

		exists, err := backend.FileExists(ctx, "/alice/files_encryption/keys/files/a.txt")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Success_CopyDuplicates", func(t *testing.T) {
		store := newStoreOver(newMemBackend(t))
		require.NoError(t, store.SetFileKey(ctx, "/alice/files/a.txt", "fileKey", []byte("ABC123"), testModule))

		require.NoError(t, store.CopyKeys(ctx, "/alice/files/a.txt", "/alice/files/b.txt"))

		for _, p := range []string{"/alice/files/a.txt", "/alice/files/b.txt"} {
			blob, err := store.GetFileKey(ctx, p, "fileKey", testModule)
			require.NoError(t, err)
			assert.Equal(t, "ABC123", blob.String(), p)
		}

		require.NoError(t, store.DeleteFileKey(ctx, "/alice/files/a.txt", "fileKey", testModule))
		blob, err := store.GetFileKey(ctx, "/alice/files/b.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", blob.String())
	})

	t.Run("Success_TransferOntoItselfKeepsKeys", func(t *testing.T) {
		backend := newMemBackend(t)
		doc := "/alice/files/doc.txt"
		require.NoError(t, newStoreOver(backend).SetFileKey(ctx, doc, "fileKey", []byte("ABC123"), testModule))
		require.NoError(t, newStoreOver(backend).SetFileKey(ctx, doc, "fileKey", []byte("XYZ"), "encryption_module_1"))
		before := countObjects(t, backend)

		require.NoError(t, newStoreOver(backend).RenameKeys(ctx, doc, doc))
		require.NoError(t, newStoreOver(backend).CopyKeys(ctx, doc, doc))

		store := newStoreOver(backend)
		blob, err := store.GetFileKey(ctx, doc, "fileKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", blob.String())
		blob, err = store.GetFileKey(ctx, doc, "fileKey", "encryption_module_1")
		require.NoError(t, err)
		assert.Equal(t, "XYZ", blob.String())
		assert.Equal(t, before, countObjects(t, backend))
	})

	t.Run("Success_CopyReplacesTargetKeys", func(t *testing.T) {
		backend := newMemBackend(t)
		require.NoError(t, newStoreOver(backend).SetFileKey(ctx, "/alice/files/a.txt", "fileKey", []byte("new"), testModule))
		require.NoError(t, newStoreOver(backend).SetFileKey(ctx, "/alice/files/b.txt", "fileKey", []byte("old"), "encryption_module_1"))

		require.NoError(t, newStoreOver(backend).CopyKeys(ctx, "/alice/files/a.txt", "/alice/files/b.txt"))

		store := newStoreOver(backend)
		blob, err := store.GetFileKey(ctx, "/alice/files/b.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "new", blob.String())
		blob, err = store.GetFileKey(ctx, "/alice/files/b.txt", "fileKey", "encryption_module_1")
		require.NoError(t, err)
		assert.False(t, blob.IsPresent())
	})

	t.Run("Success_NoopOnAbsentSource", func(t *testing.T) {
		backend := newMemBackend(t)
		store := newStoreOver(backend)
		require.NoError(t, store.SetUserKey(ctx, "alice", "privateKey", []byte("k"), testModule))
		before := countObjects(t, backend)

		require.NoError(t, store.RenameKeys(ctx, "/alice/files/a.txt", "/alice/files/b.txt"))
		require.NoError(t, store.CopyKeys(ctx, "/alice/files/a.txt", "/alice/files/c.txt"))

		assert.Equal(t, before, countObjects(t, backend))
	})

	t.Run("Success_SystemWideMountIsShared", func(t *testing.T) {
		store := newStoreOver(newMemBackend(t), keysDomain.MountPoint{Path: "/shared"})

		require.NoError(t, store.SetFileKey(ctx, "/alice/files/shared/plan.txt", "fileKey", []byte("S"), testModule))

		blob, err := store.GetFileKey(ctx, "/bob/files/shared/plan.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.Equal(t, "S", blob.String())

		blob, err = store.GetFileKey(ctx, "/bob/files/plan.txt", "fileKey", testModule)
		require.NoError(t, err)
		assert.False(t, blob.IsPresent())
	})

	t.Run("Error_FileKeyOnDirectory", func(t *testing.T) {
		backend := newMemBackend(t)
		store := newStoreOver(backend)
		require.NoError(t, backend.Mkdir(ctx, "/alice"))
		require.NoError(t, backend.Mkdir(ctx, "/alice/files"))
		require.NoError(t, backend.Mkdir(ctx, "/alice/files/photos"))

		_, err := store.GetFileKey(ctx, "/alice/files/photos", "fileKey", testModule)
		assert.ErrorIs(t, err, keysDomain.ErrNotAFile)
	})
}

func TestKeyStore_OverSealedBackend(t *testing.T) {
	ctx := context.Background()
	inner := newMemBackend(t)
	store := newStoreOver(NewSealedBackend(inner, openTestKeeper(t)))

	require.NoError(t, store.SetFileKey(ctx, "/alice/files/doc.txt", "fileKey", []byte("ABC123"), testModule))

	raw, err := inner.ReadFile(ctx, "/alice/files_encryption/keys/files/doc.txt/encryption_module_0/fileKey")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ABC123")

	store.Close()
	blob, err := store.GetFileKey(ctx, "/alice/files/doc.txt", "fileKey", testModule)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", blob.String())
}
