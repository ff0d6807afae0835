package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/models"
)

func TestSyncUploadPatchesDerivedFields(t *testing.T) {
	patcher := &fakePatcher{}
	svc := NewSyncService(patcher)
	product := courseProduct("kurs-go-1")

	outcome, err := svc.SyncUpload(context.Background(), product, assets.KindImage, assets.UploadResult{Filename: "titel.png"})
	require.NoError(t, err)
	assert.Equal(t, SyncOK, outcome)

	assert.True(t, product.HasImage)
	assert.Equal(t, "titel.png", product.ImageFilename)
	require.Len(t, patcher.calls, 1)
	assert.Equal(t, true, patcher.calls[0]["has_image"])
	assert.Equal(t, "titel.png", patcher.calls[0]["image_filename"])
}

func TestSyncUploadVideoSetsUploadType(t *testing.T) {
	patcher := &fakePatcher{}
	svc := NewSyncService(patcher)
	product := courseProduct("kurs-go-1")

	_, err := svc.SyncUpload(context.Background(), product, assets.KindMarketingVideo, assets.UploadResult{Filename: "trailer.mp4"})
	require.NoError(t, err)
	assert.Equal(t, models.VideoTypeUpload, product.VideoType)
	assert.Equal(t, "trailer.mp4", product.VideoFilename)
}

func TestSyncSlideCountTracksUploadsAndDeletes(t *testing.T) {
	patcher := &fakePatcher{}
	svc := NewSyncService(patcher)
	product := seminarProduct("sem-envs-1")

	for i := 0; i < 3; i++ {
		_, err := svc.SyncUpload(context.Background(), product, assets.KindSlide, assets.UploadResult{Filename: "f.pdf"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, product.SlideCount)

	_, err := svc.SyncDelete(context.Background(), product, assets.KindSlide)
	require.NoError(t, err)
	assert.Equal(t, 2, product.SlideCount)
	require.Len(t, patcher.calls, 4)
	assert.Equal(t, 2, patcher.calls[3]["slide_count"])
}

func TestSyncDeleteNeverGoesNegative(t *testing.T) {
	svc := NewSyncService(&fakePatcher{})
	product := seminarProduct("sem-envs-1")

	_, err := svc.SyncDelete(context.Background(), product, assets.KindSlide)
	require.NoError(t, err)
	assert.Equal(t, 0, product.SlideCount)
}

func TestSyncKindsWithoutDerivedFields(t *testing.T) {
	patcher := &fakePatcher{}
	svc := NewSyncService(patcher)
	product := courseProduct("kurs-go-1")

	outcome, err := svc.SyncUpload(context.Background(), product, assets.KindContentVideo, assets.UploadResult{Filename: "lektion.mp4"})
	require.NoError(t, err)
	assert.Equal(t, SyncOK, outcome)
	assert.Equal(t, 0, patcher.callCount(), "no fields, no patch call")
}

func TestSyncPartialWhenPatchFails(t *testing.T) {
	patcher := &fakePatcher{fail: true}
	svc := NewSyncService(patcher)
	product := courseProduct("kurs-go-1")

	outcome, err := svc.SyncUpload(context.Background(), product, assets.KindImage, assets.UploadResult{Filename: "titel.png"})
	assert.Equal(t, SyncPartial, outcome)
	require.Error(t, err)
	assert.True(t, assets.IsPartialSync(err))

	// The local struct keeps the optimistic state so the caller can see what
	// the record should say once reconciled.
	assert.True(t, product.HasImage)
}

func TestSyncPartialWhenPatchReturnsNoRecord(t *testing.T) {
	patcher := &fakePatcher{noRecord: true}
	svc := NewSyncService(patcher)

	outcome, err := svc.SyncDelete(context.Background(), courseProductWithImage(), assets.KindImage)
	assert.Equal(t, SyncPartial, outcome)
	require.Error(t, err)
	assert.True(t, assets.IsPartialSync(err))
}

func courseProductWithImage() *models.Product {
	p := courseProduct("kurs-go-1")
	p.HasImage = true
	p.ImageFilename = "titel.png"
	return p
}
