package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/config"
	"github.com/lernwerk/backend/internal/models"
)

// UploadOptions carries the per-batch context.
type UploadOptions struct {
	Kind assets.Kind
	// Module is the optional slot context (e.g. slide batches per module).
	Module int
	// Replace allows an explicit swap of an occupied single-slot kind:
	// the occupant is deleted before the new file is transferred.
	Replace bool
}

// UploadService drives batch uploads: pre-flight validation, strictly
// sequential transfer, per-file status tracking, cooperative cancellation
// and the keep/rollback/continue cleanup negotiation.
type UploadService struct {
	store   assets.RemoteStore
	sync    *SyncService
	exist   *ExistenceService
	decider assets.CleanupDecider
	cfg     *config.Config

	mu       sync.Mutex
	sessions map[uuid.UUID]*assets.Session
}

func NewUploadService(store assets.RemoteStore, syncService *SyncService, existService *ExistenceService, decider assets.CleanupDecider, cfg *config.Config) *UploadService {
	if decider == nil {
		decider = assets.KeepDecider{}
	}
	return &UploadService{
		store:    store,
		sync:     syncService,
		exist:    existService,
		decider:  decider,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*assets.Session),
	}
}

// Upload validates the batch, starts the session goroutine and returns the
// live session handle. Validation failures block before any network call.
func (s *UploadService) Upload(ctx context.Context, product *models.Product, files []assets.FileUpload, opts UploadOptions) (*assets.Session, error) {
	kind := opts.Kind

	if len(files) == 0 {
		return nil, &assets.ValidationError{Field: "files", Reason: "batch is empty"}
	}
	if len(files) > s.cfg.UploadMaxBatchFiles {
		return nil, &assets.ValidationError{
			Field:  "files",
			Reason: fmt.Sprintf("batch of %d exceeds limit of %d", len(files), s.cfg.UploadMaxBatchFiles),
		}
	}
	if kind.SingleSlot() && len(files) > 1 {
		return nil, &assets.ValidationError{
			Field:  "files",
			Reason: fmt.Sprintf("%s accepts a single file, got %d", kind, len(files)),
		}
	}

	// Task identity is (name, size, modtime); a duplicate would make two
	// order entries share one task and corrupt the per-file accounting.
	seen := make(map[assets.TaskKey]struct{}, len(files))
	for _, f := range files {
		if err := validateFile(f, kind, s.cfg); err != nil {
			return nil, err
		}
		key := f.Key()
		if _, dup := seen[key]; dup {
			return nil, &assets.ValidationError{
				Field:  f.Name,
				Reason: "duplicate file in batch (same name, size and modification time)",
			}
		}
		seen[key] = struct{}{}
	}

	// Slot check consults only local product fields for single-slot kinds,
	// so a rejected batch has issued zero network calls.
	var swap bool
	if kind.SingleSlot() {
		existence := s.exist.Exists(ctx, product, kind)
		if existence.Exists {
			if !opts.Replace {
				return nil, &assets.ValidationError{
					Field:  kind.String(),
					Reason: "slot already occupied; pass replace to swap",
				}
			}
			swap = true
		}
	}

	ref, err := assets.Resolve(product, kind)
	if err != nil {
		return nil, err
	}

	session := assets.NewSession(product.ID, kind, files)
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	go s.run(session, product, ref, opts, swap)
	return session, nil
}

// Get returns a live or recently finished session.
func (s *UploadService) Get(id uuid.UUID) (*assets.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Cancel requests cooperative cancellation of a running session. It takes
// effect at the next per-file checkpoint or aborts the in-flight transfer.
func (s *UploadService) Cancel(id uuid.UUID) (*assets.Session, error) {
	session, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	state := session.State()
	if state == assets.SessionCompleted || state == assets.SessionCancelled {
		return session, fmt.Errorf("session %s already %s", id, state)
	}
	session.Token().Trip()
	return session, nil
}

// SubmitCleanupChoice resolves a pending keep/rollback/continue negotiation.
func (s *UploadService) SubmitCleanupChoice(id uuid.UUID, choice assets.CleanupChoice) error {
	session, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	if session.State() != assets.SessionAwaitingDecision {
		return fmt.Errorf("session %s is not awaiting a cleanup decision", id)
	}
	hub, ok := s.decider.(*DecisionHub)
	if !ok {
		return fmt.Errorf("cleanup decisions are not accepted externally")
	}
	if !hub.Submit(id, choice) {
		return fmt.Errorf("session %s is not awaiting a cleanup decision", id)
	}
	return nil
}

// DeleteAsset removes an existing asset: remote delete, then derived-field
// clear with the usual partial-sync discipline.
func (s *UploadService) DeleteAsset(ctx context.Context, product *models.Product, kind assets.Kind) error {
	existence := s.exist.Exists(ctx, product, kind)
	if !existence.Exists {
		return &assets.ValidationError{Field: kind.String(), Reason: "no asset to delete"}
	}

	ref, err := assets.Resolve(product, kind)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAsset(ctx, ref, kind, existence.Filename, 0); err != nil {
		return &assets.TransportError{Op: "delete " + kind.String(), Err: err}
	}
	if _, err := s.sync.SyncDelete(ctx, product, kind); err != nil {
		// Asset is gone remotely but the record still claims it exists.
		return err
	}
	return nil
}

// run is the session goroutine. Exactly one file transfer is ever in flight;
// a single file's failure never aborts its siblings.
func (s *UploadService) run(session *assets.Session, product *models.Product, ref assets.EntityReference, opts UploadOptions, swap bool) {
	log.Printf("[Upload] session %s: %d file(s), kind=%s, entity=%s/%s",
		session.ID, len(session.Tasks()), session.Kind, ref.EntityType, ref.EntityID)

	if swap {
		// Explicit single-slot replacement: delete the occupant first.
		existence := s.exist.Exists(context.Background(), product, session.Kind)
		if existence.Exists {
			if err := s.store.DeleteAsset(context.Background(), ref, session.Kind, existence.Filename, 0); err != nil {
				log.Printf("[Upload] session %s: swap delete failed: %v", session.ID, err)
			}
			if _, err := s.sync.SyncDelete(context.Background(), product, session.Kind); err != nil {
				log.Printf("[Upload] session %s: swap field clear unconfirmed: %v", session.ID, err)
			}
		}
	}

	tasks := session.Tasks()
	for i, task := range tasks {
		if session.Token().Tripped() {
			if !s.negotiate(session, product, ref) {
				s.finalizeCancelled(session)
				return
			}
		}

		session.SetCurrent(i)
		s.uploadOne(session, product, ref, task, opts)

		// Fixed pause between files so the receiving endpoint is not
		// hammered by back-to-back transfers.
		if i < len(tasks)-1 && s.cfg.UploadInterFileDelay > 0 {
			select {
			case <-time.After(s.cfg.UploadInterFileDelay):
			case <-session.Token().Done():
			}
		}
	}

	if session.Token().Tripped() {
		// Cancellation arrived during the tail of the batch. Nothing is left
		// to upload, but already-persisted files still need a disposition.
		if !s.negotiate(session, product, ref) {
			s.finalizeCancelled(session)
			return
		}
	}

	session.SetState(assets.SessionCompleted)
	summary := session.Summary()
	log.Printf("[Upload] session %s done: %d completed, %d failed, %d cancelled",
		session.ID, summary.Completed, summary.Failed, summary.Cancelled)
	s.scheduleSweep(session)
}

// uploadOne transfers a single file and records its terminal status. The
// session token is wired into the transfer's context so an in-flight upload
// aborts promptly on cancellation.
func (s *UploadService) uploadOne(session *assets.Session, product *models.Product, ref assets.EntityReference, task *assets.Task, opts UploadOptions) {
	key := task.Key
	file := task.File
	session.Transition(key, assets.TaskUploading, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tokenDone := session.Token().Done()
	go func() {
		select {
		case <-tokenDone:
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := s.store.UploadAsset(ctx, ref, session.Kind, file)
	if err != nil {
		if session.Token().Tripped() || errors.Is(err, context.Canceled) {
			session.Transition(key, assets.TaskCancelled, &assets.CancellationError{}, nil)
			log.Printf("[Upload] session %s: %s cancelled in flight", session.ID, file.Name)
		} else {
			session.Transition(key, assets.TaskFailed, &assets.TransportError{Op: "upload " + file.Name, Err: err}, nil)
			log.Printf("[Upload] session %s: %s failed: %v", session.ID, file.Name, err)
		}
		return
	}

	session.Transition(key, assets.TaskCompleted, nil, &result)

	// Persist derived fields; the upload itself already succeeded, so a
	// failed patch is a partial condition, not a file failure.
	if _, err := s.sync.SyncUpload(context.Background(), product, session.Kind, result); err != nil {
		session.MarkPartialSync(key)
		log.Printf("[Upload] session %s: %s stored but fields unconfirmed: %v", session.ID, file.Name, err)
	}
}

// negotiate handles a cancellation request. Returns true if uploading should
// resume ("continue"), false if the session ends.
func (s *UploadService) negotiate(session *assets.Session, product *models.Product, ref assets.EntityReference) bool {
	if session.CompletedCount() == 0 {
		// Nothing persisted yet; cancel outright without asking.
		return false
	}

	session.SetState(assets.SessionAwaitingDecision)
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CleanupDecisionWait)
	defer cancel()

	choice, err := s.decider.Decide(ctx, session.ID, session.Summary())
	if err != nil {
		log.Printf("[Cleanup] session %s: decider error, keeping uploads: %v", session.ID, err)
		choice = assets.CleanupKeep
	}

	switch choice {
	case assets.CleanupContinue:
		session.Token().Reset()
		session.SetState(assets.SessionRunning)
		log.Printf("[Cleanup] session %s: cancellation withdrawn, resuming", session.ID)
		return true
	case assets.CleanupRollback:
		s.rollback(session, product, ref)
		return false
	default:
		log.Printf("[Cleanup] session %s: keeping %d uploaded file(s)", session.ID, session.CompletedCount())
		return false
	}
}

// rollback deletes every file that reached completed in this session. A
// failed delete is logged and skipped; local state reflects intent and the
// caller reconciles later.
func (s *UploadService) rollback(session *assets.Session, product *models.Product, ref assets.EntityReference) {
	completed := session.CompletedTasks()
	log.Printf("[Cleanup] session %s: rolling back %d file(s)", session.ID, len(completed))
	for _, task := range completed {
		if err := s.store.DeleteAsset(context.Background(), ref, session.Kind, task.File.Name, task.File.Module); err != nil {
			log.Printf("[Cleanup] session %s: rollback delete of %s failed: %v", session.ID, task.File.Name, err)
		}
		if _, err := s.sync.SyncDelete(context.Background(), product, session.Kind); err != nil {
			log.Printf("[Cleanup] session %s: field clear for %s unconfirmed: %v", session.ID, task.File.Name, err)
		}
	}
}

// finalizeCancelled marks every non-terminal task cancelled and ends the
// session.
func (s *UploadService) finalizeCancelled(session *assets.Session) {
	for _, task := range session.Tasks() {
		if !task.Status.Terminal() {
			session.Transition(task.Key, assets.TaskCancelled, &assets.CancellationError{}, nil)
		}
	}
	session.SetState(assets.SessionCancelled)
	summary := session.Summary()
	log.Printf("[Upload] session %s cancelled: %d completed, %d failed, %d cancelled",
		session.ID, summary.Completed, summary.Failed, summary.Cancelled)
	s.scheduleSweep(session)
}

// scheduleSweep removes a terminal session after the display-grace period
// so late status polls still see the final summary.
func (s *UploadService) scheduleSweep(session *assets.Session) {
	retention := s.cfg.SessionRetention
	if retention <= 0 {
		retention = time.Minute
	}
	time.AfterFunc(retention, func() {
		s.mu.Lock()
		delete(s.sessions, session.ID)
		s.mu.Unlock()
	})
}

// allowedExtensions per kind; generic files accept anything within the size
// ceiling.
var allowedExtensions = map[assets.Kind]map[string]bool{
	assets.KindImage: {".jpg": true, ".jpeg": true, ".png": true, ".webp": true},
	assets.KindLogo:  {".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".svg": true},
	assets.KindMarketingVideo: {".mp4": true, ".mov": true, ".webm": true},
	assets.KindContentVideo:   {".mp4": true, ".mov": true, ".webm": true},
	assets.KindDocument:       {".pdf": true, ".doc": true, ".docx": true},
	assets.KindSlide:          {".pdf": true, ".jpg": true, ".jpeg": true, ".png": true},
	assets.KindAudio:          {".mp3": true, ".wav": true, ".flac": true, ".m4a": true, ".ogg": true},
}

var mimePrefixes = map[assets.Kind]string{
	assets.KindImage:          "image/",
	assets.KindLogo:           "image/",
	assets.KindMarketingVideo: "video/",
	assets.KindContentVideo:   "video/",
	assets.KindAudio:          "audio/",
}

func validateFile(file assets.FileUpload, kind assets.Kind, cfg *config.Config) error {
	if file.Name == "" {
		return &assets.ValidationError{Field: "file", Reason: "filename is empty"}
	}

	if exts, ok := allowedExtensions[kind]; ok {
		ext := strings.ToLower(filepath.Ext(file.Name))
		if !exts[ext] {
			return &assets.ValidationError{
				Field:  file.Name,
				Reason: fmt.Sprintf("extension %q not allowed for %s", ext, kind),
			}
		}
	}

	if prefix, ok := mimePrefixes[kind]; ok && len(file.Data) > 0 {
		detected := http.DetectContentType(file.Data)
		// SVG sniffs as text/xml; the extension check already covered it.
		if !strings.HasPrefix(detected, prefix) && !strings.HasSuffix(strings.ToLower(file.Name), ".svg") {
			return &assets.ValidationError{
				Field:  file.Name,
				Reason: fmt.Sprintf("content type %s not allowed for %s", detected, kind),
			}
		}
	}

	max := cfg.MaxSizeForKind(kind.String())
	size := file.Size
	if size == 0 {
		size = int64(len(file.Data))
	}
	if size > max {
		return &assets.ValidationError{
			Field:  file.Name,
			Reason: fmt.Sprintf("file too large: %d bytes (max %d)", size, max),
		}
	}
	return nil
}
