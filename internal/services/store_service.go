package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/logging"
	"gorm.io/gorm"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/config"
	"github.com/lernwerk/backend/internal/models"
)

// StoreService is the S3-backed remote asset store. Alongside each object it
// keeps an Asset log row in the database so uploads are traceable and
// rollback can clean both sides.
type StoreService struct {
	client *s3.Client
	db     *gorm.DB
	cfg    *config.Config
}

func NewStoreService(db *gorm.DB, cfg *config.Config) (*StoreService, error) {
	client, err := buildClient(cfg.StoreS3Endpoint, cfg.StoreS3Region, cfg.StoreS3AccessKeyID, cfg.StoreS3SecretAccessKey, cfg.StoreS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &StoreService{client: client, db: db, cfg: cfg}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	resolver := awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
		func(service, rgn string, options ...interface{}) (aws.Endpoint, error) {
			if endpoint != "" {
				return aws.Endpoint{URL: endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}))
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		resolver,
		awsconfig.WithLogger(logging.NewStandardLogger(nil)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	})
	return client, nil
}

// ObjectKey builds the storage key for an asset. Single-slot kinds use a
// fixed key so a swap overwrites in place; multi-file kinds keep the
// filename (and module slot, when given) in the key.
func ObjectKey(ref assets.EntityReference, kind assets.Kind, filename string, module int) string {
	base := fmt.Sprintf("%s/%s/%s", ref.EntityType, ref.EntityID, kind)
	if kind.SingleSlot() {
		return fmt.Sprintf("%s/%s", base, filename)
	}
	if module > 0 {
		return fmt.Sprintf("%s/m%d/%s", base, module, filename)
	}
	return fmt.Sprintf("%s/%s", base, filename)
}

// UploadAsset transfers one file to the store and records the Asset row.
func (s *StoreService) UploadAsset(ctx context.Context, ref assets.EntityReference, kind assets.Kind, file assets.FileUpload) (assets.UploadResult, error) {
	key := ObjectKey(ref, kind, file.Name, file.Module)
	contentType := detectMimeType(file)

	uploader := manager.NewUploader(s.client)
	in := &s3.PutObjectInput{
		Bucket:      &s.cfg.AssetsBucket,
		Key:         &key,
		Body:        bytes.NewReader(file.Data),
		ContentType: &contentType,
		ACL:         s3types.ObjectCannedACLPrivate,
	}
	if _, err := uploader.Upload(ctx, in, func(u *manager.Uploader) { u.PartSize = 10 * 1024 * 1024 }); err != nil {
		return assets.UploadResult{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if s.db != nil {
		asset := newAssetRecord(ref, kind, key, file)
		if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
			// Remove the orphaned object so store and DB stay aligned.
			_ = s.deleteObject(ctx, key)
			return assets.UploadResult{}, fmt.Errorf("failed to create asset record: %w", err)
		}
	}

	return assets.UploadResult{
		Filename: file.Name,
		Size:     fileSize(file),
		URL:      s.objectURL(key),
		Key:      key,
	}, nil
}

// newAssetRecord builds the log row for a stored object, including its media
// type and content checksum.
func newAssetRecord(ref assets.EntityReference, kind assets.Kind, key string, file assets.FileUpload) *models.Asset {
	sum := sha256.Sum256(file.Data)
	return &models.Asset{
		EntityType: ref.EntityType,
		EntityID:   ref.EntityID,
		Kind:       kind.String(),
		Key:        key,
		Filename:   file.Name,
		MimeType:   detectMimeType(file),
		SizeBytes:  fileSize(file),
		Checksum:   hex.EncodeToString(sum[:]),
	}
}

// detectMimeType prefers the declared content type and falls back to content
// sniffing.
func detectMimeType(file assets.FileUpload) string {
	if file.ContentType != "" {
		return file.ContentType
	}
	if len(file.Data) > 0 {
		return http.DetectContentType(file.Data)
	}
	return "application/octet-stream"
}

func fileSize(file assets.FileUpload) int64 {
	if file.Size > 0 {
		return file.Size
	}
	return int64(len(file.Data))
}

// DeleteAsset removes the object and its Asset row. Used both by explicit
// deletes and by session rollback.
func (s *StoreService) DeleteAsset(ctx context.Context, ref assets.EntityReference, kind assets.Kind, filename string, module int) error {
	key := ObjectKey(ref, kind, filename, module)
	if err := s.deleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if s.db != nil {
		s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Asset{})
	}
	return nil
}

// CheckAssetExists issues a HEAD request for the asset. A missing object is
// a normal non-existence result, not an error.
func (s *StoreService) CheckAssetExists(ctx context.Context, ref assets.EntityReference, kind assets.Kind) (assets.AssetExistence, error) {
	key := ObjectKey(ref, kind, "", 0)
	if kind.SingleSlot() {
		// Single-slot objects carry the original filename; look up the log
		// row first to learn it.
		var asset models.Asset
		if s.db != nil {
			prefix := fmt.Sprintf("%s/%s/%s/", ref.EntityType, ref.EntityID, kind)
			if err := s.db.WithContext(ctx).Where("key LIKE ?", prefix+"%").First(&asset).Error; err == nil {
				key = asset.Key
			}
		}
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.cfg.AssetsBucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return assets.AssetExistence{Exists: false}, nil
		}
		return assets.AssetExistence{}, &assets.TransportError{Op: "check asset", Err: err}
	}

	existence := assets.AssetExistence{
		Exists: true,
		Size:   aws.ToInt64(out.ContentLength),
		URL:    s.objectURL(key),
	}
	if s.db != nil {
		var asset models.Asset
		if err := s.db.WithContext(ctx).Where("key = ?", key).First(&asset).Error; err == nil {
			existence.Filename = asset.Filename
		}
	}
	return existence, nil
}

// PresignGet generates a presigned GET URL for direct downloads.
func (s *StoreService) PresignGet(ctx context.Context, key string) (string, error) {
	ttl := time.Duration(s.cfg.PresignedURLTTLMins) * time.Minute
	presigner := s3.NewPresignClient(s.client)
	out, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.cfg.AssetsBucket, Key: &key}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (s *StoreService) deleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.AssetsBucket,
		Key:    &key,
	})
	return err
}

func (s *StoreService) objectURL(key string) string {
	e := s.client.Options().BaseEndpoint
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", *e, s.cfg.AssetsBucket, url.PathEscape(key))
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return false
}
