package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/gcp"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

var newBucketService = gcp.NewBucketService

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBucketService returns the export artifact bucket. It returns nil without error when
// storage is disabled or no bucket is configured; exports are then recorded as metadata only.
func resolveBucketService(log *logger.Logger, cfg Config) (gcp.BucketService, error) {
	metrics := observability.Current()

	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.ObjectStorageMode, cfg.StorageEmulatorHost)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		code := storageProviderBootstrapErrorCode(classified)
		metrics.ObserveStorageBootstrap(string(storageCfg.Mode), "error", string(code))
		log.Error(
			"Object storage provider selection failed",
			"mode", strings.TrimSpace(cfg.ObjectStorageMode),
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}

	if !storageCfg.Enabled() {
		metrics.ObserveStorageBootstrap(string(storageCfg.Mode), "skipped", "")
		log.Info("Object storage disabled; export artifacts keep metadata only")
		return nil, nil
	}
	if strings.TrimSpace(cfg.ExportBucketName) == "" {
		metrics.ObserveStorageBootstrap(string(storageCfg.Mode), "skipped", "")
		log.Warn("EXPORT_GCS_BUCKET_NAME not set; export artifacts keep metadata only", "mode", storageCfg.Mode)
		return nil, nil
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
	)

	bucket, err := newBucketService(log, storageCfg, gcp.BucketConfig{
		Name:          strings.TrimSpace(cfg.ExportBucketName),
		CDNDomain:     strings.TrimSpace(cfg.ExportCDNDomain),
		PublicBaseURL: strings.TrimSpace(cfg.ExportPublicBaseURL),
		Credentials:   cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		code := storageProviderBootstrapErrorCode(classified)
		metrics.ObserveStorageBootstrap(string(storageCfg.Mode), "error", string(code))
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", storageCfg.ModeSource(),
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}
	metrics.ObserveStorageBootstrap(string(storageCfg.Mode), "success", "")
	return bucket, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	mode := string(storageCfg.Mode)
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
		if mode == "" {
			mode = cfgErr.Mode
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
