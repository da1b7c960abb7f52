// Package storage provides StorageBackend implementations on top of
// gocloud.dev blob buckets, plus a decorator that seals key material with a
// KMS keeper before it reaches the backend.
package storage

import (
	"context"
	"io"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	"golang.org/x/sync/errgroup"

	// Register bucket drivers
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/allisson/keystorage/internal/errors"
)

// dirMarker is the object name that materializes an empty directory.
// Buckets are flat; a directory exists if its marker or any object below it exists.
const dirMarker = ".dir"

// DefaultCopyConcurrency bounds the number of objects copied or deleted in parallel.
const DefaultCopyConcurrency = 8

// BlobBackend stores the virtual filesystem in a gocloud.dev bucket.
// A virtual path /a/b/c maps to object key a/b/c.
type BlobBackend struct {
	bucket      *blob.Bucket
	concurrency int
}

// NewBlobBackend creates a BlobBackend over bucket. A concurrency below one
// falls back to DefaultCopyConcurrency.
func NewBlobBackend(bucket *blob.Bucket, concurrency int) *BlobBackend {
	if concurrency < 1 {
		concurrency = DefaultCopyConcurrency
	}
	return &BlobBackend{bucket: bucket, concurrency: concurrency}
}

// OpenBlobBackend opens the bucket at bucketURL (mem://, file:///var/keys, ...).
func OpenBlobBackend(ctx context.Context, bucketURL string, concurrency int) (*BlobBackend, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "failed to open bucket %q: %s", bucketURL, err.Error())
	}
	return NewBlobBackend(bucket, concurrency), nil
}

// FileExists reports whether path is a file or a directory.
func (b *BlobBackend) FileExists(ctx context.Context, path string) (bool, error) {
	key := objectKey(path)
	if key == "" {
		return true, nil
	}

	exists, err := b.bucket.Exists(ctx, key)
	if err != nil {
		return false, errors.Wrapf(err, "exists %s", path)
	}
	if exists {
		return true, nil
	}
	return b.IsDir(ctx, path)
}

// IsDir reports whether any object lives below path.
func (b *BlobBackend) IsDir(ctx context.Context, path string) (bool, error) {
	key := objectKey(path)
	if key == "" {
		return true, nil
	}

	iter := b.bucket.List(&blob.ListOptions{Prefix: key + "/"})
	_, err := iter.Next(ctx)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "list %s", path)
	}
	return true, nil
}

// ReadFile returns the content of the object at path.
func (b *BlobBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, objectKey(path))
	if err != nil {
		return nil, mapBlobError(err, "read", path)
	}
	return data, nil
}

// WriteFile replaces the object at path with data.
func (b *BlobBackend) WriteFile(ctx context.Context, path string, data []byte) (int, error) {
	key := objectKey(path)
	if key == "" {
		return 0, errors.Wrap(errors.ErrInvalidInput, "cannot write to the root directory")
	}

	if err := b.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return 0, mapBlobError(err, "write", path)
	}
	return len(data), nil
}

// Unlink removes the object at path.
func (b *BlobBackend) Unlink(ctx context.Context, path string) error {
	if err := b.bucket.Delete(ctx, objectKey(path)); err != nil {
		return mapBlobError(err, "unlink", path)
	}
	return nil
}

// DeleteAll removes the object at path and every object below it.
func (b *BlobBackend) DeleteAll(ctx context.Context, path string) error {
	key := objectKey(path)
	if key != "" {
		if err := b.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			return mapBlobError(err, "delete", path)
		}
	}

	keys, err := b.listKeys(ctx, subtreePrefix(key))
	if err != nil {
		return errors.Wrapf(err, "list %s", path)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, k := range keys {
		g.Go(func() error {
			if err := b.bucket.Delete(gctx, k); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
				return mapBlobError(err, "delete", "/"+k)
			}
			return nil
		})
	}
	return g.Wait()
}

// Mkdir creates the marker object of path.
func (b *BlobBackend) Mkdir(ctx context.Context, path string) error {
	exists, err := b.FileExists(ctx, path)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(errors.ErrConflict, "%s already exists", path)
	}

	if err := b.bucket.WriteAll(ctx, objectKey(path)+"/"+dirMarker, nil, nil); err != nil {
		return mapBlobError(err, "mkdir", path)
	}
	return nil
}

// Rename copies source to target and then removes source. Buckets have no
// atomic rename, so a failure halfway leaves both trees in place.
func (b *BlobBackend) Rename(ctx context.Context, source, target string) error {
	if objectKey(source) == objectKey(target) {
		return b.Copy(ctx, source, target)
	}
	if err := b.Copy(ctx, source, target); err != nil {
		return err
	}
	return b.DeleteAll(ctx, source)
}

// Copy duplicates the object or object tree at source to target, replacing
// whatever target held before. Copying a path onto itself only checks that
// source exists.
func (b *BlobBackend) Copy(ctx context.Context, source, target string) error {
	sourceKey, targetKey := objectKey(source), objectKey(target)
	if sourceKey == "" || targetKey == "" {
		return errors.Wrap(errors.ErrInvalidInput, "cannot copy from or to the root directory")
	}

	isFile, err := b.bucket.Exists(ctx, sourceKey)
	if err != nil {
		return errors.Wrapf(err, "exists %s", source)
	}

	var keys []string
	if !isFile {
		keys, err = b.listKeys(ctx, sourceKey+"/")
		if err != nil {
			return errors.Wrapf(err, "list %s", source)
		}
		if len(keys) == 0 {
			return errors.Wrapf(errors.ErrNotFound, "%s", source)
		}
	}
	if sourceKey == targetKey {
		return nil
	}

	if err := b.DeleteAll(ctx, target); err != nil {
		return err
	}
	if isFile {
		if err := b.bucket.Copy(ctx, targetKey, sourceKey, nil); err != nil {
			return mapBlobError(err, "copy", source)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, k := range keys {
		if strings.HasPrefix(k, targetKey+"/") {
			continue
		}
		g.Go(func() error {
			dst := targetKey + strings.TrimPrefix(k, sourceKey)
			if err := b.bucket.Copy(gctx, dst, k, nil); err != nil {
				return mapBlobError(err, "copy", "/"+k)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close closes the underlying bucket.
func (b *BlobBackend) Close() error {
	return b.bucket.Close()
}

func (b *BlobBackend) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, obj.Key)
	}
}

// objectKey maps a virtual path to its object key.
func objectKey(path string) string {
	return strings.Trim(path, "/")
}

// subtreePrefix is the listing prefix of everything below key.
func subtreePrefix(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

func mapBlobError(err error, op, path string) error {
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return errors.Wrapf(errors.ErrNotFound, "%s %s", op, path)
	case gcerrors.InvalidArgument:
		return errors.Wrapf(errors.ErrInvalidInput, "%s %s: %s", op, path, err.Error())
	default:
		return errors.Wrapf(err, "%s %s", op, path)
	}
}
