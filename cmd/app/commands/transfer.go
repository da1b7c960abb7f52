package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	keysUsecase "github.com/allisson/keystorage/internal/keys/usecase"
)

// Transfer operations accepted by RunTransferKeys.
const (
	TransferRename = "rename"
	TransferCopy   = "copy"
)

// RunTransferKeys propagates the keys of source to target after the file or
// folder was renamed or copied. A source without keys, or a target that
// shares the source's key location, leaves the store unchanged and is still
// reported as transferred.
func RunTransferKeys(
	ctx context.Context,
	store keysUsecase.KeyStore,
	logger *slog.Logger,
	writer io.Writer,
	op string,
	source string,
	target string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	var err error
	switch op {
	case TransferRename:
		err = store.RenameKeys(ctx, source, target)
	case TransferCopy:
		err = store.CopyKeys(ctx, source, target)
	default:
		return fmt.Errorf("invalid transfer operation: %s (valid options: rename, copy)", op)
	}
	if err != nil {
		return fmt.Errorf("failed to %s keys: %w", op, err)
	}

	logger.Info("keys transferred",
		slog.String("operation", op),
		slog.String("source", source),
		slog.String("target", target),
	)

	if format == "json" {
		return writeJSON(writer, map[string]interface{}{
			"operation": op,
			"source":    source,
			"target":    target,
		})
	}

	verb := "Renamed"
	if op == TransferCopy {
		verb = "Copied"
	}
	_, err = fmt.Fprintf(writer, "%s keys of %s to %s\n", verb, source, target)
	return err
}
