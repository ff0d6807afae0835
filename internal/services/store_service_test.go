package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/config"
)

func TestObjectKeyShapes(t *testing.T) {
	ref := assets.EntityReference{EntityType: "course_module", EntityID: "kurs-go-1"}

	cases := []struct {
		name     string
		kind     assets.Kind
		filename string
		module   int
		want     string
	}{
		{"single slot ignores module", assets.KindImage, "titel.png", 3, "course_module/kurs-go-1/image/titel.png"},
		{"multi file without module", assets.KindDocument, "skript.pdf", 0, "course_module/kurs-go-1/document/skript.pdf"},
		{"multi file with module slot", assets.KindSlide, "folie.pdf", 2, "course_module/kurs-go-1/slide/m2/folie.pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ObjectKey(ref, tc.kind, tc.filename, tc.module))
		})
	}
}

func TestPresignGetSignsObjectKey(t *testing.T) {
	cfg := &config.Config{
		StoreS3Endpoint:        "http://localhost:9000",
		StoreS3Region:          "us-east-1",
		StoreS3AccessKeyID:     "test-key",
		StoreS3SecretAccessKey: "test-secret",
		StoreS3UsePathStyle:    true,
		AssetsBucket:           "lernwerk-assets",
		PresignedURLTTLMins:    15,
	}
	svc, err := NewStoreService(nil, cfg)
	require.NoError(t, err)

	// Presigning is pure request signing; no round trip to the store.
	signed, err := svc.PresignGet(context.Background(), "course_module/kurs-go-1/image/titel.png")
	require.NoError(t, err)
	assert.Contains(t, signed, "lernwerk-assets")
	assert.Contains(t, signed, "titel.png")
	assert.Contains(t, signed, "X-Amz-Signature")
}

func TestNewAssetRecordCapturesMimeAndChecksum(t *testing.T) {
	ref := assets.EntityReference{EntityType: "course_module", EntityID: "kurs-go-1"}
	data := []byte("%PDF-1.4 test")
	file := assets.FileUpload{Name: "skript.pdf", Size: int64(len(data)), Data: data, ContentType: "application/pdf"}

	row := newAssetRecord(ref, assets.KindDocument, "course_module/kurs-go-1/document/skript.pdf", file)

	sum := sha256.Sum256(data)
	assert.Equal(t, "application/pdf", row.MimeType)
	assert.Equal(t, hex.EncodeToString(sum[:]), row.Checksum)
	assert.Equal(t, int64(len(data)), row.SizeBytes)
	assert.Equal(t, "skript.pdf", row.Filename)
	assert.Equal(t, "kurs-go-1", row.EntityID)
}

func TestDetectMimeTypeSniffsWhenUndeclared(t *testing.T) {
	sniffed := detectMimeType(assets.FileUpload{Name: "titel.png", Data: pngData()})
	assert.Equal(t, "image/png", sniffed)

	declared := detectMimeType(assets.FileUpload{Name: "a.bin", ContentType: "application/zip", Data: []byte("PK")})
	assert.Equal(t, "application/zip", declared)

	empty := detectMimeType(assets.FileUpload{Name: "leer.bin"})
	assert.Equal(t, "application/octet-stream", empty)
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"typed NotFound", &s3types.NotFound{}, true},
		{"typed NoSuchKey", &s3types.NoSuchKey{}, true},
		{"wrapped NotFound", fmt.Errorf("head failed: %w", &s3types.NotFound{}), true},
		{"api error code", &smithy.GenericAPIError{Code: "NotFound", Message: "no such object"}, true},
		{"404 code", &smithy.GenericAPIError{Code: "404"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("connection refused"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isNotFound(tc.err))
		})
	}
}
