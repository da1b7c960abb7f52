package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	validation "github.com/jellydator/validation"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	keysUsecase "github.com/allisson/keystorage/internal/keys/usecase"
	appValidation "github.com/allisson/keystorage/internal/validation"
)

// RunGetKey reads the key named by identity and prints it base64 encoded.
// An absent key prints nothing in text mode and "present": false in JSON mode.
func RunGetKey(
	ctx context.Context,
	store keysUsecase.KeyStore,
	logger *slog.Logger,
	writer io.Writer,
	identity keysDomain.KeyIdentity,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	blob, err := getKey(ctx, store, identity)
	if err != nil {
		return fmt.Errorf("failed to get %s key: %w", identity.Kind, err)
	}
	key := blob.Bytes()
	defer keysDomain.Zero(key)

	logger.Info("key read",
		slog.String("kind", string(identity.Kind)),
		slog.String("key_id", identity.KeyID),
		slog.String("module_id", identity.ModuleID),
		slog.Bool("present", blob.IsPresent()),
	)

	if format == "json" {
		result := map[string]interface{}{
			"kind":      identity.Kind,
			"key_id":    identity.KeyID,
			"module_id": identity.ModuleID,
			"present":   blob.IsPresent(),
		}
		if blob.IsPresent() {
			result["value"] = base64.StdEncoding.EncodeToString(key)
		}
		return writeJSON(writer, result)
	}

	if !blob.IsPresent() {
		return nil
	}
	_, err = fmt.Fprintln(writer, base64.StdEncoding.EncodeToString(key))
	return err
}

// RunSetKey stores a base64 encoded key under identity. When value is empty
// the encoded key is read from stdio.Reader instead.
func RunSetKey(
	ctx context.Context,
	store keysUsecase.KeyStore,
	logger *slog.Logger,
	stdio IOTuple,
	identity keysDomain.KeyIdentity,
	value string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if value == "" {
		value = readValue(stdio.Reader)
	}

	key, err := decodeKey(value)
	if err != nil {
		return err
	}
	defer keysDomain.Zero(key)

	if err := setKey(ctx, store, identity, key); err != nil {
		return fmt.Errorf("failed to set %s key: %w", identity.Kind, err)
	}

	logger.Info("key stored",
		slog.String("kind", string(identity.Kind)),
		slog.String("key_id", identity.KeyID),
		slog.String("module_id", identity.ModuleID),
		slog.Int("size", len(key)),
	)

	if format == "json" {
		return writeJSON(stdio.Writer, map[string]interface{}{
			"kind":      identity.Kind,
			"key_id":    identity.KeyID,
			"module_id": identity.ModuleID,
			"size":      len(key),
		})
	}

	_, err = fmt.Fprintf(stdio.Writer, "Stored %s key %s (%d byte(s))\n", identity.Kind, identity.KeyID, len(key))
	return err
}

// RunDeleteKey removes the key named by identity. Deleting an absent key succeeds.
func RunDeleteKey(
	ctx context.Context,
	store keysUsecase.KeyStore,
	logger *slog.Logger,
	writer io.Writer,
	identity keysDomain.KeyIdentity,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if err := deleteKey(ctx, store, identity); err != nil {
		return fmt.Errorf("failed to delete %s key: %w", identity.Kind, err)
	}

	logger.Info("key deleted",
		slog.String("kind", string(identity.Kind)),
		slog.String("key_id", identity.KeyID),
		slog.String("module_id", identity.ModuleID),
	)

	if format == "json" {
		return writeJSON(writer, map[string]interface{}{
			"kind":      identity.Kind,
			"key_id":    identity.KeyID,
			"module_id": identity.ModuleID,
			"deleted":   true,
		})
	}

	_, err := fmt.Fprintf(writer, "Deleted %s key %s\n", identity.Kind, identity.KeyID)
	return err
}

// RunDeleteAllFileKeys removes every key stored for the file at path.
func RunDeleteAllFileKeys(
	ctx context.Context,
	store keysUsecase.KeyStore,
	logger *slog.Logger,
	writer io.Writer,
	path string,
	moduleID string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if err := store.DeleteAllFileKeys(ctx, path, moduleID); err != nil {
		return fmt.Errorf("failed to delete file keys: %w", err)
	}

	logger.Info("file keys deleted",
		slog.String("path", path),
		slog.String("module_id", moduleID),
	)

	if format == "json" {
		return writeJSON(writer, map[string]interface{}{
			"path":      path,
			"module_id": moduleID,
			"deleted":   true,
		})
	}

	_, err := fmt.Fprintf(writer, "Deleted all keys of %s\n", path)
	return err
}

func getKey(
	ctx context.Context,
	store keysUsecase.KeyStore,
	identity keysDomain.KeyIdentity,
) (keysDomain.KeyBlob, error) {
	switch identity.Kind {
	case keysDomain.UserKey:
		return store.GetUserKey(ctx, identity.Owner, identity.KeyID, identity.ModuleID)
	case keysDomain.FileKey:
		return store.GetFileKey(ctx, identity.LogicalPath, identity.KeyID, identity.ModuleID)
	case keysDomain.SystemUserKey:
		return store.GetSystemUserKey(ctx, identity.KeyID, identity.ModuleID)
	default:
		return keysDomain.Absent(), unsupportedKind(identity.Kind)
	}
}

func setKey(ctx context.Context, store keysUsecase.KeyStore, identity keysDomain.KeyIdentity, key []byte) error {
	switch identity.Kind {
	case keysDomain.UserKey:
		return store.SetUserKey(ctx, identity.Owner, identity.KeyID, key, identity.ModuleID)
	case keysDomain.FileKey:
		return store.SetFileKey(ctx, identity.LogicalPath, identity.KeyID, key, identity.ModuleID)
	case keysDomain.SystemUserKey:
		return store.SetSystemUserKey(ctx, identity.KeyID, key, identity.ModuleID)
	default:
		return unsupportedKind(identity.Kind)
	}
}

func deleteKey(ctx context.Context, store keysUsecase.KeyStore, identity keysDomain.KeyIdentity) error {
	switch identity.Kind {
	case keysDomain.UserKey:
		return store.DeleteUserKey(ctx, identity.Owner, identity.KeyID, identity.ModuleID)
	case keysDomain.FileKey:
		return store.DeleteFileKey(ctx, identity.LogicalPath, identity.KeyID, identity.ModuleID)
	case keysDomain.SystemUserKey:
		return store.DeleteSystemUserKey(ctx, identity.KeyID, identity.ModuleID)
	default:
		return unsupportedKind(identity.Kind)
	}
}

func unsupportedKind(kind keysDomain.EntityKind) error {
	return fmt.Errorf("%w: unsupported key kind %q", keysDomain.ErrInvalidIdentifier, kind)
}

// readValue reads an encoded key from reader, ignoring surrounding whitespace.
func readValue(reader io.Reader) string {
	if reader == nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// decodeKey validates and decodes a base64 encoded key value.
func decodeKey(value string) ([]byte, error) {
	if err := validation.Validate(value, validation.Required, appValidation.EncodedKey); err != nil {
		return nil, fmt.Errorf("invalid key value: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid key value: %w", err)
	}
	return key, nil
}
