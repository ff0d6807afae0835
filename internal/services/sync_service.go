package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/models"
)

// RecordPatcher persists derived fields on the owning record. Implemented by
// ProductService; tests substitute fakes.
type RecordPatcher interface {
	PatchRecordFields(ctx context.Context, recordID uuid.UUID, fields map[string]interface{}) (*models.Product, error)
}

// SyncOutcome distinguishes a confirmed field update from a partial one.
type SyncOutcome int

const (
	SyncOK SyncOutcome = iota
	// SyncPartial: the asset is persisted remotely but the owning record's
	// derived fields were not confirmed updated. Needs reconciliation.
	SyncPartial
)

// SyncService keeps the owning record's derived asset fields aligned with
// what the remote store holds. The local product struct is updated first so
// callers see the new state before any further round trip.
type SyncService struct {
	patcher RecordPatcher
}

func NewSyncService(patcher RecordPatcher) *SyncService {
	return &SyncService{patcher: patcher}
}

// SyncUpload runs after a file's transfer succeeded.
func (s *SyncService) SyncUpload(ctx context.Context, product *models.Product, kind assets.Kind, result assets.UploadResult) (SyncOutcome, error) {
	fields := applyUploadFields(product, kind, result.Filename)
	return s.patch(ctx, product, fields)
}

// SyncDelete runs after an asset was removed from the store.
func (s *SyncService) SyncDelete(ctx context.Context, product *models.Product, kind assets.Kind) (SyncOutcome, error) {
	fields := applyDeleteFields(product, kind)
	return s.patch(ctx, product, fields)
}

func (s *SyncService) patch(ctx context.Context, product *models.Product, fields map[string]interface{}) (SyncOutcome, error) {
	if len(fields) == 0 {
		return SyncOK, nil
	}
	updated, err := s.patcher.PatchRecordFields(ctx, product.ID, fields)
	if err != nil {
		log.Printf("[Sync] patch failed for product %s: %v", product.ID, err)
		return SyncPartial, &assets.PartialSyncError{RecordID: product.ID.String(), Reason: err.Error()}
	}
	if updated == nil || updated.ID == uuid.Nil {
		return SyncPartial, &assets.PartialSyncError{
			RecordID: product.ID.String(),
			Reason:   "patch returned no identifiable record",
		}
	}
	return SyncOK, nil
}

// applyUploadFields mutates the local product optimistically and returns the
// field map to persist.
func applyUploadFields(product *models.Product, kind assets.Kind, filename string) map[string]interface{} {
	switch kind {
	case assets.KindImage:
		product.HasImage = true
		product.ImageFilename = filename
		return map[string]interface{}{"has_image": true, "image_filename": filename}
	case assets.KindMarketingVideo:
		product.VideoType = models.VideoTypeUpload
		product.VideoFilename = filename
		return map[string]interface{}{"video_type": models.VideoTypeUpload, "video_filename": filename}
	case assets.KindLogo:
		product.HasLogo = true
		product.LogoFilename = filename
		return map[string]interface{}{"has_logo": true, "logo_filename": filename}
	case assets.KindAudio:
		product.HasAudio = true
		product.AudioFilename = filename
		return map[string]interface{}{"has_audio": true, "audio_filename": filename}
	case assets.KindDocument:
		product.HasDocument = true
		product.DocumentFilename = filename
		return map[string]interface{}{"has_document": true, "document_filename": filename}
	case assets.KindSlide:
		product.SlideCount++
		return map[string]interface{}{"slide_count": product.SlideCount}
	default:
		// content-video and generic-file carry no derived fields.
		return nil
	}
}

func applyDeleteFields(product *models.Product, kind assets.Kind) map[string]interface{} {
	switch kind {
	case assets.KindImage:
		product.HasImage = false
		product.ImageFilename = ""
		return map[string]interface{}{"has_image": false, "image_filename": ""}
	case assets.KindMarketingVideo:
		product.VideoType = models.VideoTypeNone
		product.VideoFilename = ""
		return map[string]interface{}{"video_type": models.VideoTypeNone, "video_filename": ""}
	case assets.KindLogo:
		product.HasLogo = false
		product.LogoFilename = ""
		return map[string]interface{}{"has_logo": false, "logo_filename": ""}
	case assets.KindAudio:
		product.HasAudio = false
		product.AudioFilename = ""
		return map[string]interface{}{"has_audio": false, "audio_filename": ""}
	case assets.KindDocument:
		product.HasDocument = false
		product.DocumentFilename = ""
		return map[string]interface{}{"has_document": false, "document_filename": ""}
	case assets.KindSlide:
		if product.SlideCount > 0 {
			product.SlideCount--
		}
		return map[string]interface{}{"slide_count": product.SlideCount}
	default:
		return nil
	}
}
