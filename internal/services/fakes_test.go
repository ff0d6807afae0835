package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/config"
	"github.com/lernwerk/backend/internal/models"
)

// fakeStore counts every remote call and can gate uploads so tests control
// exactly when each file finishes.
type fakeStore struct {
	mu             sync.Mutex
	uploads        []string // filenames that completed
	uploadAttempts int
	deletes        []string
	checks         int

	uploadErr map[string]error
	checkErr  error
	existing  map[string]assets.AssetExistence // by kind name

	// When gated, each upload announces itself on step and waits for
	// release (or context cancellation).
	step    chan string
	release chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploadErr: map[string]error{}, existing: map[string]assets.AssetExistence{}}
}

func (f *fakeStore) gate() {
	f.step = make(chan string)
	f.release = make(chan struct{})
}

func (f *fakeStore) UploadAsset(ctx context.Context, ref assets.EntityReference, kind assets.Kind, file assets.FileUpload) (assets.UploadResult, error) {
	f.mu.Lock()
	f.uploadAttempts++
	f.mu.Unlock()

	if f.step != nil {
		select {
		case f.step <- file.Name:
		case <-ctx.Done():
			return assets.UploadResult{}, ctx.Err()
		}
		select {
		case <-f.release:
		case <-ctx.Done():
			return assets.UploadResult{}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return assets.UploadResult{}, err
	}
	if err := f.uploadErr[file.Name]; err != nil {
		return assets.UploadResult{}, err
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, file.Name)
	f.mu.Unlock()
	return assets.UploadResult{Filename: file.Name, Size: file.Size, URL: "https://store.test/" + file.Name, Key: file.Name}, nil
}

func (f *fakeStore) DeleteAsset(ctx context.Context, ref assets.EntityReference, kind assets.Kind, filename string, module int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, filename)
	return nil
}

func (f *fakeStore) CheckAssetExists(ctx context.Context, ref assets.EntityReference, kind assets.Kind) (assets.AssetExistence, error) {
	f.mu.Lock()
	f.checks++
	f.mu.Unlock()
	if f.checkErr != nil {
		return assets.AssetExistence{}, f.checkErr
	}
	return f.existing[kind.String()], nil
}

func (f *fakeStore) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadAttempts + len(f.deletes) + f.checks
}

func (f *fakeStore) uploadedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *fakeStore) deletedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

// remaining reports uploaded files not deleted again, i.e. what the remote
// store still holds from this test.
func (f *fakeStore) remaining() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := map[string]int{}
	for _, d := range f.deletes {
		deleted[d]++
	}
	var out []string
	for _, u := range f.uploads {
		if deleted[u] > 0 {
			deleted[u]--
			continue
		}
		out = append(out, u)
	}
	return out
}

type fakePatcher struct {
	mu       sync.Mutex
	calls    []map[string]interface{}
	fail     bool
	noRecord bool
}

func (p *fakePatcher) PatchRecordFields(ctx context.Context, recordID uuid.UUID, fields map[string]interface{}) (*models.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fields)
	if p.fail {
		return nil, errors.New("patch endpoint unavailable")
	}
	if p.noRecord {
		return nil, nil
	}
	return &models.Product{ID: recordID}, nil
}

func (p *fakePatcher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type stubDecider struct {
	mu     sync.Mutex
	choice assets.CleanupChoice
	calls  int
}

func (d *stubDecider) Decide(ctx context.Context, sessionID uuid.UUID, summary assets.SessionSummary) (assets.CleanupChoice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.choice, nil
}

func (d *stubDecider) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func testConfig(delay time.Duration) *config.Config {
	return &config.Config{
		UploadMaxImageSize:    10 * 1024 * 1024,
		UploadMaxVideoSize:    500 * 1024 * 1024,
		UploadMaxDocumentSize: 50 * 1024 * 1024,
		UploadMaxAudioSize:    200 * 1024 * 1024,
		UploadMaxSlideSize:    20 * 1024 * 1024,
		UploadMaxDefaultSize:  100 * 1024 * 1024,
		UploadMaxBatchFiles:   20,
		UploadInterFileDelay:  delay,
		SessionRetention:      time.Minute,
		CleanupDecisionWait:   2 * time.Second,
	}
}

func newTestEngine(store *fakeStore, patcher *fakePatcher, decider assets.CleanupDecider, delay time.Duration) *UploadService {
	syncService := NewSyncService(patcher)
	existenceService := NewExistenceService(store)
	return NewUploadService(store, syncService, existenceService, decider, testConfig(delay))
}

func courseProduct(entityID string) *models.Product {
	return &models.Product{ID: uuid.New(), Type: models.ProductTypeCourse, EntityID: entityID, Title: "Grundkurs"}
}

func seminarProduct(entityID string) *models.Product {
	return &models.Product{ID: uuid.New(), Type: models.ProductTypeSeminar, EntityID: entityID, Title: "Seminar"}
}

// pngData is a minimal payload http.DetectContentType sniffs as image/png.
func pngData() []byte {
	return []byte("\x89PNG\r\n\x1a\n0000000000")
}

func slideFiles(names ...string) []assets.FileUpload {
	files := make([]assets.FileUpload, 0, len(names))
	for i, n := range names {
		files = append(files, assets.FileUpload{Name: n, Size: 512, ModTime: int64(1700000000000 + i), Data: []byte("%PDF-1.4 test")})
	}
	return files
}
