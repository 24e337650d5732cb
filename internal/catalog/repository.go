package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
)

// Repository exposes read access to products and their recipes. The
// availability engine is the only consumer; catalog CRUD lives elsewhere.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindProduct loads the product without associations.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProducts loads the given products keyed by id. Missing ids are simply
// absent from the map; the caller decides whether that is an error.
func (r *Repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

// ListRecipeLines returns the active bill-of-materials lines for a product
// with the warehouse item preloaded. Soft-deleted lines are excluded.
func (r *Repository) ListRecipeLines(ctx context.Context, productID uuid.UUID) ([]models.ProductRecipe, error) {
	var lines []models.ProductRecipe
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ListRecipeLinesForProducts returns active recipe lines grouped by product id.
func (r *Repository) ListRecipeLinesForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.ProductRecipe, error) {
	grouped := make(map[uuid.UUID][]models.ProductRecipe, len(productIDs))
	if len(productIDs) == 0 {
		return grouped, nil
	}
	var lines []models.ProductRecipe
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("product_id IN ?", productIDs).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		grouped[line.ProductID] = append(grouped[line.ProductID], line)
	}
	return grouped, nil
}
