package assets

import (
	"context"

	"github.com/google/uuid"
)

// AssetExistence is the answer to "does an asset already occupy this slot".
// Derived from the owning record's fields when possible, from a remote
// check otherwise.
type AssetExistence struct {
	Exists   bool   `json:"exists"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
	URL      string `json:"url,omitempty"`
}

// RemoteStore is the abstract asset store the engine talks to. The S3
// implementation lives in the services package; tests use counting fakes.
type RemoteStore interface {
	UploadAsset(ctx context.Context, ref EntityReference, kind Kind, file FileUpload) (UploadResult, error)
	DeleteAsset(ctx context.Context, ref EntityReference, kind Kind, filename string, module int) error
	CheckAssetExists(ctx context.Context, ref EntityReference, kind Kind) (AssetExistence, error)
}

// CleanupDecider answers the keep/rollback/continue question when a session
// is cancelled with at least one completed file. Implementations decide how
// the question reaches a human (HTTP wait, default policy, test stub).
type CleanupDecider interface {
	Decide(ctx context.Context, sessionID uuid.UUID, summary SessionSummary) (CleanupChoice, error)
}

// KeepDecider always keeps already-uploaded files, the data-loss-safe
// default.
type KeepDecider struct{}

func (KeepDecider) Decide(ctx context.Context, sessionID uuid.UUID, summary SessionSummary) (CleanupChoice, error) {
	return CleanupKeep, nil
}
