package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/keystorage/internal/config"
	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	keysRepository "github.com/allisson/keystorage/internal/keys/repository"
	keysService "github.com/allisson/keystorage/internal/keys/service"
	keysStorage "github.com/allisson/keystorage/internal/keys/storage"
	keysUsecase "github.com/allisson/keystorage/internal/keys/usecase"
)

// keysComponents holds the shared, long-lived parts of the key storage module.
// Key stores themselves are not shared: NewKeyStore builds one per session.
type keysComponents struct {
	kmsService     keysStorage.KMSService
	keeper         keysStorage.Keeper
	blobBackend    *keysStorage.BlobBackend
	storageBackend keysUsecase.StorageBackend
	pathDeriver    keysService.PathDeriver

	kmsServiceInit     sync.Once
	keeperInit         sync.Once
	storageBackendInit sync.Once
	pathDeriverInit    sync.Once
}

// KMSService returns the KMS service.
func (c *Container) KMSService() keysStorage.KMSService {
	c.keys.kmsServiceInit.Do(func() {
		c.keys.kmsService = keysStorage.NewKMSService()
	})
	return c.keys.kmsService
}

// Keeper returns the keeper used to seal stored keys, or nil when KMS_KEY_URI is empty.
func (c *Container) Keeper() (keysStorage.Keeper, error) {
	var err error
	c.keys.keeperInit.Do(func() {
		c.keys.keeper, err = c.initKeeper()
		if err != nil {
			c.initErrors["keeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keeper"]; exists {
		return nil, storedErr
	}
	return c.keys.keeper, nil
}

// StorageBackend returns the storage backend selected by STORAGE_DRIVER,
// sealed with the KMS keeper when one is configured.
func (c *Container) StorageBackend() (keysUsecase.StorageBackend, error) {
	var err error
	c.keys.storageBackendInit.Do(func() {
		c.keys.storageBackend, err = c.initStorageBackend()
		if err != nil {
			c.initErrors["storageBackend"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["storageBackend"]; exists {
		return nil, storedErr
	}
	return c.keys.storageBackend, nil
}

// PathDeriver returns the path deriver configured with the system-wide mount points.
func (c *Container) PathDeriver() (keysService.PathDeriver, error) {
	var err error
	c.keys.pathDeriverInit.Do(func() {
		c.keys.pathDeriver, err = c.initPathDeriver()
		if err != nil {
			c.initErrors["pathDeriver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pathDeriver"]; exists {
		return nil, storedErr
	}
	return c.keys.pathDeriver, nil
}

// NewKeyStore creates a key store with a fresh key cache. The caller owns the
// returned store and must Close it at the end of its session.
func (c *Container) NewKeyStore() (keysUsecase.KeyStore, error) {
	backend, err := c.StorageBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage backend for key store: %w", err)
	}

	deriver, err := c.PathDeriver()
	if err != nil {
		return nil, fmt.Errorf("failed to get path deriver for key store: %w", err)
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key store session id: %w", err)
	}
	logger := c.Logger().With(slog.String("session_id", sessionID.String()))

	store := keysUsecase.NewKeyStore(backend, deriver, logger)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for key store: %w", err)
		}
		return keysUsecase.NewKeyStoreWithMetrics(store, businessMetrics), nil
	}

	return store, nil
}

// initKeeper opens the configured KMS keeper.
func (c *Container) initKeeper() (keysStorage.Keeper, error) {
	if c.config.KMSKeyURI == "" {
		return nil, nil
	}

	keeper, err := c.KMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
	if err != nil {
		return nil, err
	}

	c.Logger().Info("key sealing enabled")
	return keeper, nil
}

// initStorageBackend creates the storage backend for the configured driver.
func (c *Container) initStorageBackend() (keysUsecase.StorageBackend, error) {
	var backend keysUsecase.StorageBackend

	switch c.config.StorageDriver {
	case config.StorageDriverBlob:
		blobBackend, err := keysStorage.OpenBlobBackend(
			context.Background(),
			c.config.StorageBlobURL,
			c.config.StorageCopyConcurrency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open blob storage backend: %w", err)
		}
		c.keys.blobBackend = blobBackend
		backend = blobBackend
	case config.StorageDriverPostgres, config.StorageDriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for storage backend: %w", err)
		}
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for storage backend: %w", err)
		}

		if c.config.StorageDriver == config.StorageDriverMySQL {
			backend = keysRepository.NewMySQLBackend(db, txManager)
		} else {
			backend = keysRepository.NewPostgreSQLBackend(db, txManager)
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", c.config.StorageDriver)
	}

	keeper, err := c.Keeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get keeper for storage backend: %w", err)
	}
	if keeper != nil {
		backend = keysStorage.NewSealedBackend(backend, keeper)
	}

	return backend, nil
}

// initPathDeriver parses SYSTEM_WIDE_MOUNT_POINTS and builds the path deriver.
func (c *Container) initPathDeriver() (keysService.PathDeriver, error) {
	mountPoints, err := keysDomain.ParseMountPoints(c.config.SystemWideMountPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system-wide mount points: %w", err)
	}

	resolver := keysService.NewPathResolver(mountPoints)
	return keysService.NewPathDeriver(resolver), nil
}

// close releases the bucket and keeper opened for the key storage module.
func (k *keysComponents) close() error {
	var errs []error
	if k.blobBackend != nil {
		if err := k.blobBackend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("blob backend close: %w", err))
		}
	}
	if k.keeper != nil {
		if err := k.keeper.Close(); err != nil {
			errs = append(errs, fmt.Errorf("keeper close: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("key storage shutdown: %v", errs)
	}
	return nil
}
