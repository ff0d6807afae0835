package assets

import (
	"fmt"

	"github.com/lernwerk/backend/internal/models"
	"github.com/lernwerk/backend/pkg/validation"
)

// EntityReference identifies the backend record an asset belongs to.
// Created per operation, never persisted.
type EntityReference struct {
	EntityType string
	EntityID   string
	Layer      Layer
}

// contentEntityTypes maps a product type to the entity type its content-layer
// assets attach to. Types without an entry fall back to the product type itself.
var contentEntityTypes = map[models.ProductType]string{
	models.ProductTypeCourse:  "course_module",
	models.ProductTypeSeminar: "seminar_session",
	models.ProductTypeBundle:  "bundle_item",
}

// Resolve computes the entity reference for one upload, delete or existence
// check. Every computed identifier is validated before the reference is
// returned; a bad identifier is a *ValidationError, never a silent nil.
func Resolve(product *models.Product, kind Kind) (EntityReference, error) {
	layer := kind.Layer()

	var ref EntityReference
	switch layer {
	case LayerMarketing:
		// Marketing assets key off the product record itself, always the
		// primary ID even when a secondary identifier is present.
		ref = EntityReference{
			EntityType: string(product.Type),
			EntityID:   product.ID.String(),
			Layer:      layer,
		}
	case LayerContent:
		// Mapped types attach strictly to the secondary identifier; an empty
		// one fails validation below instead of silently falling back.
		if entityType, ok := contentEntityTypes[product.Type]; ok {
			ref = EntityReference{
				EntityType: entityType,
				EntityID:   product.EntityID,
				Layer:      layer,
			}
		} else {
			ref = EntityReference{
				EntityType: string(product.Type),
				EntityID:   secondaryOrPrimary(product),
				Layer:      layer,
			}
		}
	case LayerSystem:
		ref = EntityReference{
			EntityType: kind.String(),
			EntityID:   secondaryOrPrimary(product),
			Layer:      layer,
		}
	default:
		return EntityReference{}, &ValidationError{
			Field:  "assetKind",
			Reason: fmt.Sprintf("kind %s has no layer mapping", kind),
		}
	}

	if err := validation.ValidateEntityID(ref.EntityID); err != nil {
		return EntityReference{}, &ValidationError{
			Field:  fmt.Sprintf("entityId (%s layer)", layer),
			Reason: err.Error(),
		}
	}
	return ref, nil
}

// ContentEntityType returns the entity type content-layer assets of this
// product attach to. Exposed for the existence oracle's ownership check.
func ContentEntityType(productType models.ProductType) string {
	if t, ok := contentEntityTypes[productType]; ok {
		return t
	}
	return string(productType)
}

func secondaryOrPrimary(product *models.Product) string {
	if product.EntityID != "" {
		return product.EntityID
	}
	return product.ID.String()
}
