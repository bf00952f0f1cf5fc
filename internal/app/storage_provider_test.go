package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/playbook-backend/internal/platform/gcp"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		cfg  gcp.ObjectStorageConfig
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{
			name: "invalid mode",
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode, Mode: "bad-mode"},
			want: StorageProviderBootstrapErrorInvalidMode,
		},
		{
			name: "missing emulator host",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost},
			want: StorageProviderBootstrapErrorMissingEmulatorHost,
		},
		{
			name: "invalid emulator host",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator, EmulatorHost: "fake-gcs:4443"},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost},
			want: StorageProviderBootstrapErrorInvalidEmulatorHost,
		},
		{
			name: "connect failed",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS},
			err:  errors.New("dial tcp: connection refused"),
			want: StorageProviderBootstrapErrorConnectFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(tc.cfg, tc.err)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause not preserved: %v", err)
			}
		})
	}
}

func TestResolveBucketServiceInvalidMode(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "invalid"})
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T (%v)", err, err)
	}
	if got.Code != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidMode, got.Code)
	}
	if got.Mode != "invalid" {
		t.Fatalf("mode: want=%q got=%q", "invalid", got.Mode)
	}
}

func TestResolveBucketServiceMissingEmulatorHost(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), Config{
		ObjectStorageMode: string(gcp.ObjectStorageModeGCSEmulator),
		ExportBucketName:  "exports",
	})
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T (%v)", err, err)
	}
	if got.Code != StorageProviderBootstrapErrorMissingEmulatorHost {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorMissingEmulatorHost, got.Code)
	}
}

func TestResolveBucketServiceInvalidEmulatorHost(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), Config{
		ObjectStorageMode:   string(gcp.ObjectStorageModeGCSEmulator),
		StorageEmulatorHost: "not-a-url",
		ExportBucketName:    "exports",
	})
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T (%v)", err, err)
	}
	if got.Code != StorageProviderBootstrapErrorInvalidEmulatorHost {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidEmulatorHost, got.Code)
	}
}

func TestResolveBucketServiceDisabledOrUnnamedIsNil(t *testing.T) {
	stubBucketService(t, func(gcp.ObjectStorageConfig, gcp.BucketConfig) {
		t.Fatalf("bucket service must not be constructed")
	})
	for _, cfg := range []Config{
		{ObjectStorageMode: string(gcp.ObjectStorageModeDisabled), ExportBucketName: "exports"},
		{ObjectStorageMode: string(gcp.ObjectStorageModeGCS)},
	} {
		got, err := resolveBucketService(logger.Nop(), cfg)
		if err != nil {
			t.Fatalf("resolveBucketService(%+v): %v", cfg, err)
		}
		if got != nil {
			t.Fatalf("resolveBucketService(%+v): want nil bucket", cfg)
		}
	}
}

func TestResolveBucketServiceGCSMode(t *testing.T) {
	var gotStorage gcp.ObjectStorageConfig
	var gotBucket gcp.BucketConfig
	expected := stubBucketService(t, func(s gcp.ObjectStorageConfig, b gcp.BucketConfig) {
		gotStorage, gotBucket = s, b
	})

	got, err := resolveBucketService(logger.Nop(), Config{
		ObjectStorageMode:   string(gcp.ObjectStorageModeGCS),
		ExportBucketName:    " exports ",
		ExportCDNDomain:     "cdn.example.com",
		ExportPublicBaseURL: "https://files.example.com",
	})
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if got != expected {
		t.Fatalf("bucket: expected stub bucket instance")
	}
	if gotStorage.Mode != gcp.ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", gcp.ObjectStorageModeGCS, gotStorage.Mode)
	}
	if gotBucket.Name != "exports" || gotBucket.CDNDomain != "cdn.example.com" || gotBucket.PublicBaseURL != "https://files.example.com" {
		t.Fatalf("bucket config: %+v", gotBucket)
	}
}

func TestResolveBucketServiceEmulatorFallback(t *testing.T) {
	var gotStorage gcp.ObjectStorageConfig
	stubBucketService(t, func(s gcp.ObjectStorageConfig, _ gcp.BucketConfig) { gotStorage = s })

	if _, err := resolveBucketService(logger.Nop(), Config{
		StorageEmulatorHost: "http://fake-gcs:4443",
		ExportBucketName:    "exports",
	}); err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if gotStorage.Mode != gcp.ObjectStorageModeGCSEmulator || !gotStorage.CompatibilityFallback {
		t.Fatalf("storage config: %+v", gotStorage)
	}
	if gotStorage.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: got=%q", gotStorage.EmulatorHost)
	}
}

func TestResolveBucketServiceConnectFailure(t *testing.T) {
	orig := newBucketService
	t.Cleanup(func() { newBucketService = orig })
	newBucketService = func(*logger.Logger, gcp.ObjectStorageConfig, gcp.BucketConfig) (gcp.BucketService, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := resolveBucketService(logger.Nop(), Config{
		ObjectStorageMode: string(gcp.ObjectStorageModeGCS),
		ExportBucketName:  "exports",
	})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, got)
	}
}

func stubBucketService(t *testing.T, capture func(gcp.ObjectStorageConfig, gcp.BucketConfig)) gcp.BucketService {
	t.Helper()
	orig := newBucketService
	t.Cleanup(func() { newBucketService = orig })
	expected := &testBucketService{}
	newBucketService = func(_ *logger.Logger, s gcp.ObjectStorageConfig, b gcp.BucketConfig) (gcp.BucketService, error) {
		capture(s, b)
		return expected, nil
	}
	return expected
}

type testBucketService struct{}

func (*testBucketService) Upload(ctx context.Context, key, contentType string, data []byte) error {
	return nil
}

func (*testBucketService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (*testBucketService) Delete(ctx context.Context, key string) error { return nil }

func (*testBucketService) PublicURL(key string) string { return "" }
