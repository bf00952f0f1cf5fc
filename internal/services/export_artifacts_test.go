package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/playbook-backend/internal/data/repos"
	"github.com/yungbote/playbook-backend/internal/data/repos/testutil"
	"github.com/yungbote/playbook-backend/internal/export"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (m *memStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	if m.failPut != nil {
		return m.failPut
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStore) PublicURL(key string) string { return "https://cdn.test/" + key }

func TestExportArtifactServiceStoresAndOpens(t *testing.T) {
	db := testutil.DB(t)
	r := repos.New(db, testutil.Logger(t))
	store := newMemStore()
	svc := NewExportArtifactService(testutil.Logger(t), r.ExportArtifacts, store)
	sessionID := uuid.New()
	ctx := context.Background()

	art, err := svc.ForSession(sessionID).Store(ctx, export.Artifact{
		Kind:        "kit",
		Filename:    export.KitFilename,
		ContentType: export.ContentTypeZIP,
		Data:        []byte("PK-data"),
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	wantPrefix := "exports/" + sessionID.String() + "/" + art.Key + "/"
	if !strings.HasPrefix(art.StorageKey, wantPrefix) || !strings.HasSuffix(art.StorageKey, export.KitFilename) {
		t.Fatalf("unexpected storage key %q", art.StorageKey)
	}
	if art.URL != "https://cdn.test/"+art.StorageKey {
		t.Fatalf("unexpected url %q", art.URL)
	}
	if art.SizeBytes != 7 {
		t.Fatalf("size: want 7 got %d", art.SizeBytes)
	}

	got, err := svc.Get(ctx, art.Key)
	if err != nil || got == nil {
		t.Fatalf("Get: err=%v got=%v", err, got)
	}
	rc, err := svc.Open(ctx, got)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "PK-data" {
		t.Fatalf("body: want %q got %q", "PK-data", body)
	}

	list, err := svc.ListBySession(ctx, sessionID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListBySession: err=%v len=%d", err, len(list))
	}
}

func TestExportArtifactServiceWithoutStoreRecordsMetadataOnly(t *testing.T) {
	db := testutil.DB(t)
	r := repos.New(db, testutil.Logger(t))
	svc := NewExportArtifactService(testutil.Logger(t), r.ExportArtifacts, nil)
	ctx := context.Background()

	art, err := svc.ForSession(uuid.New()).Store(ctx, export.Artifact{
		Kind:        "full",
		Filename:    export.KindFull.Filename(),
		ContentType: export.ContentTypePDF,
		Data:        []byte("%PDF"),
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if art.StorageKey != "" || art.URL != "" {
		t.Fatalf("expected no storage location, got %q %q", art.StorageKey, art.URL)
	}
	if _, err := svc.Open(ctx, art); !errors.Is(err, ErrArtifactNotStored) {
		t.Fatalf("Open: want ErrArtifactNotStored, got %v", err)
	}
}

func TestExportArtifactServiceUploadFailureWritesNoRow(t *testing.T) {
	db := testutil.DB(t)
	r := repos.New(db, testutil.Logger(t))
	store := newMemStore()
	store.failPut = errors.New("bucket unavailable")
	svc := NewExportArtifactService(testutil.Logger(t), r.ExportArtifacts, store)
	sessionID := uuid.New()
	ctx := context.Background()

	if _, err := svc.ForSession(sessionID).Store(ctx, export.Artifact{Kind: "asset", Filename: "a.pdf", Data: []byte("x")}); err == nil {
		t.Fatalf("expected upload error")
	}
	list, err := svc.ListBySession(ctx, sessionID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no rows, err=%v len=%d", err, len(list))
	}
}
