package usecase

import (
	"context"
	"time"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	"github.com/allisson/keystorage/internal/metrics"
)

// keyStoreWithMetrics decorates KeyStore with metrics instrumentation.
type keyStoreWithMetrics struct {
	next    KeyStore
	metrics metrics.BusinessMetrics
}

// NewKeyStoreWithMetrics wraps a KeyStore with metrics recording.
func NewKeyStoreWithMetrics(store KeyStore, m metrics.BusinessMetrics) KeyStore {
	return &keyStoreWithMetrics{
		next:    store,
		metrics: m,
	}
}

// GetUserKey records metrics for user key reads.
func (k *keyStoreWithMetrics) GetUserKey(
	ctx context.Context,
	uid, keyID, moduleID string,
) (keysDomain.KeyBlob, error) {
	start := time.Now()
	blob, err := k.next.GetUserKey(ctx, uid, keyID, moduleID)
	k.record(ctx, "user_key_get", start, err)
	k.recordBlobSize(ctx, "user_key_get", blob, err)
	return blob, err
}

// GetFileKey records metrics for file key reads.
func (k *keyStoreWithMetrics) GetFileKey(
	ctx context.Context,
	path, keyID, moduleID string,
) (keysDomain.KeyBlob, error) {
	start := time.Now()
	blob, err := k.next.GetFileKey(ctx, path, keyID, moduleID)
	k.record(ctx, "file_key_get", start, err)
	k.recordBlobSize(ctx, "file_key_get", blob, err)
	return blob, err
}

// GetSystemUserKey records metrics for system user key reads.
func (k *keyStoreWithMetrics) GetSystemUserKey(
	ctx context.Context,
	keyID, moduleID string,
) (keysDomain.KeyBlob, error) {
	start := time.Now()
	blob, err := k.next.GetSystemUserKey(ctx, keyID, moduleID)
	k.record(ctx, "system_user_key_get", start, err)
	k.recordBlobSize(ctx, "system_user_key_get", blob, err)
	return blob, err
}

// SetUserKey records metrics for user key writes.
func (k *keyStoreWithMetrics) SetUserKey(
	ctx context.Context,
	uid, keyID string,
	key []byte,
	moduleID string,
) error {
	start := time.Now()
	err := k.next.SetUserKey(ctx, uid, keyID, key, moduleID)
	k.record(ctx, "user_key_set", start, err)
	k.recordKeySize(ctx, "user_key_set", key, err)
	return err
}

// SetFileKey records metrics for file key writes.
func (k *keyStoreWithMetrics) SetFileKey(
	ctx context.Context,
	path, keyID string,
	key []byte,
	moduleID string,
) error {
	start := time.Now()
	err := k.next.SetFileKey(ctx, path, keyID, key, moduleID)
	k.record(ctx, "file_key_set", start, err)
	k.recordKeySize(ctx, "file_key_set", key, err)
	return err
}

// SetSystemUserKey records metrics for system user key writes.
func (k *keyStoreWithMetrics) SetSystemUserKey(
	ctx context.Context,
	keyID string,
	key []byte,
	moduleID string,
) error {
	start := time.Now()
	err := k.next.SetSystemUserKey(ctx, keyID, key, moduleID)
	k.record(ctx, "system_user_key_set", start, err)
	k.recordKeySize(ctx, "system_user_key_set", key, err)
	return err
}

// DeleteUserKey records metrics for user key deletions.
func (k *keyStoreWithMetrics) DeleteUserKey(ctx context.Context, uid, keyID, moduleID string) error {
	start := time.Now()
	err := k.next.DeleteUserKey(ctx, uid, keyID, moduleID)
	k.record(ctx, "user_key_delete", start, err)
	return err
}

// DeleteFileKey records metrics for file key deletions.
func (k *keyStoreWithMetrics) DeleteFileKey(ctx context.Context, path, keyID, moduleID string) error {
	start := time.Now()
	err := k.next.DeleteFileKey(ctx, path, keyID, moduleID)
	k.record(ctx, "file_key_delete", start, err)
	return err
}

// DeleteAllFileKeys records metrics for whole-file key deletions.
func (k *keyStoreWithMetrics) DeleteAllFileKeys(ctx context.Context, path, moduleID string) error {
	start := time.Now()
	err := k.next.DeleteAllFileKeys(ctx, path, moduleID)
	k.record(ctx, "file_keys_delete_all", start, err)
	return err
}

// DeleteSystemUserKey records metrics for system user key deletions.
func (k *keyStoreWithMetrics) DeleteSystemUserKey(ctx context.Context, keyID, moduleID string) error {
	start := time.Now()
	err := k.next.DeleteSystemUserKey(ctx, keyID, moduleID)
	k.record(ctx, "system_user_key_delete", start, err)
	return err
}

// RenameKeys records metrics for key renames.
func (k *keyStoreWithMetrics) RenameKeys(ctx context.Context, source, target string) error {
	start := time.Now()
	err := k.next.RenameKeys(ctx, source, target)
	k.record(ctx, "keys_rename", start, err)
	return err
}

// CopyKeys records metrics for key copies.
func (k *keyStoreWithMetrics) CopyKeys(ctx context.Context, source, target string) error {
	start := time.Now()
	err := k.next.CopyKeys(ctx, source, target)
	k.record(ctx, "keys_copy", start, err)
	return err
}

// Close closes the wrapped store.
func (k *keyStoreWithMetrics) Close() {
	k.next.Close()
}

func (k *keyStoreWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	k.metrics.RecordOperation(ctx, "keys", operation, status)
	k.metrics.RecordDuration(ctx, "keys", operation, time.Since(start), status)
}

// recordBlobSize records the size of a key that was found.
func (k *keyStoreWithMetrics) recordBlobSize(ctx context.Context, operation string, blob keysDomain.KeyBlob, err error) {
	if err != nil || !blob.IsPresent() {
		return
	}
	k.metrics.RecordKeySize(ctx, "keys", operation, len(blob.Bytes()))
}

// recordKeySize records the size of a key that was stored.
func (k *keyStoreWithMetrics) recordKeySize(ctx context.Context, operation string, key []byte, err error) {
	if err != nil {
		return
	}
	k.metrics.RecordKeySize(ctx, "keys", operation, len(key))
}
