package services

import (
	"context"
	"log"

	"github.com/lernwerk/backend/internal/assets"
	"github.com/lernwerk/backend/internal/models"
)

// contentKindOwners maps each content-layer kind to the product type whose
// sub-entity owns it. A remote check for these kinds is only worth issuing
// when the product actually is of the owning type.
var contentKindOwners = map[assets.Kind]models.ProductType{
	assets.KindDocument:     models.ProductTypeCourse,
	assets.KindContentVideo: models.ProductTypeCourse,
	assets.KindSlide:        models.ProductTypeSeminar,
	assets.KindGenericFile:  models.ProductTypeDownload,
}

// ExistenceService answers whether an asset already occupies a slot. Local
// authoritative fields are preferred; the remote store is only consulted
// when they cannot answer.
type ExistenceService struct {
	store assets.RemoteStore
}

func NewExistenceService(store assets.RemoteStore) *ExistenceService {
	return &ExistenceService{store: store}
}

// Exists never returns an error: known-absent conditions, including a remote
// "not found", degrade to a non-existence result.
func (s *ExistenceService) Exists(ctx context.Context, product *models.Product, kind assets.Kind) assets.AssetExistence {
	switch kind {
	case assets.KindImage:
		return assets.AssetExistence{Exists: product.HasImage, Filename: product.ImageFilename}
	case assets.KindLogo:
		return assets.AssetExistence{Exists: product.HasLogo, Filename: product.LogoFilename}
	case assets.KindAudio:
		return assets.AssetExistence{Exists: product.HasAudio, Filename: product.AudioFilename}
	case assets.KindMarketingVideo:
		return videoExistence(product)
	default:
		return s.remoteExistence(ctx, product, kind)
	}
}

// videoExistence needs no network: the video-type field already says what is
// attached, and external links only count with a non-empty entity id.
func videoExistence(product *models.Product) assets.AssetExistence {
	switch product.VideoType {
	case models.VideoTypeUpload:
		return assets.AssetExistence{Exists: true, Filename: product.VideoFilename}
	case models.VideoTypeExternal:
		return assets.AssetExistence{Exists: product.EntityID != ""}
	default:
		return assets.AssetExistence{Exists: false}
	}
}

func (s *ExistenceService) remoteExistence(ctx context.Context, product *models.Product, kind assets.Kind) assets.AssetExistence {
	// Don't issue remote checks for products that cannot own this kind.
	if owner, ok := contentKindOwners[kind]; ok && product.Type != owner {
		return assets.AssetExistence{Exists: false}
	}

	// Resolve validates the identifier; a bad one means no call goes out.
	ref, err := assets.Resolve(product, kind)
	if err != nil {
		return assets.AssetExistence{Exists: false}
	}

	existence, err := s.store.CheckAssetExists(ctx, ref, kind)
	if err != nil {
		log.Printf("[Existence] remote check failed for %s/%s: %v", ref.EntityType, ref.EntityID, err)
		return assets.AssetExistence{Exists: false}
	}
	return existence
}
