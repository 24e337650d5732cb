package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
)

// unconstrainedCeiling is the availability ceiling for products without a
// bill of materials (externally sourced goods). High but finite so downstream
// arithmetic stays in int range.
const unconstrainedCeiling = 100000

// CheckAvailability evaluates one product against current effective stock.
// Pure read; an unknown or disabled product reports unavailable rather than
// erroring.
func (s *service) CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int) (*AvailabilityResult, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result := evaluateProduct(productID, nil, quantity, nil, nil)
			return &result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	lines, err := s.catalog.ListRecipeLines(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading recipe lines")
	}

	reserved, err := s.repo.ReservedQuantities(ctx, itemIDsOf(lines))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservation sums")
	}

	result := evaluateProduct(productID, product, quantity, lines, reserved)
	return &result, nil
}

// CheckBatchAvailability evaluates a list of requests against a single
// up-front load of products, recipes, and reservation sums. Duplicate product
// ids are merged with a recorded warning.
func (s *service) CheckBatchAvailability(ctx context.Context, requests []ItemRequest) (*BatchAvailabilityResult, error) {
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
		}
	}

	merged, warnings := coalesceRequests(requests)

	ids := make([]uuid.UUID, 0, len(merged))
	for _, req := range merged {
		ids = append(ids, req.ProductID)
	}

	products, err := s.catalog.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	linesByProduct, err := s.catalog.ListRecipeLinesForProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading recipe lines")
	}

	itemIDs := []uuid.UUID{}
	seen := map[uuid.UUID]bool{}
	for _, lines := range linesByProduct {
		for _, line := range lines {
			if !seen[line.WarehouseItemID] {
				seen[line.WarehouseItemID] = true
				itemIDs = append(itemIDs, line.WarehouseItemID)
			}
		}
	}
	reserved, err := s.repo.ReservedQuantities(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservation sums")
	}

	batch := &BatchAvailabilityResult{Available: true, Warnings: warnings}
	for _, req := range merged {
		var product *models.Product
		if found, ok := products[req.ProductID]; ok {
			p := found
			product = &p
		}
		result := evaluateProduct(req.ProductID, product, req.Quantity, linesByProduct[req.ProductID], reserved)
		batch.Results = append(batch.Results, result)
		if result.Available {
			continue
		}
		batch.Available = false
		batch.Warnings = append(batch.Warnings, shortfallFor(req, product, result))
	}
	return batch, nil
}

// coalesceRequests merges duplicate product ids by summing quantities,
// preserving first-seen order, and records one duplicate warning per repeated
// product.
func coalesceRequests(requests []ItemRequest) ([]ItemRequest, []ShortfallReason) {
	merged := make([]ItemRequest, 0, len(requests))
	index := map[uuid.UUID]int{}
	warned := map[uuid.UUID]bool{}
	warnings := []ShortfallReason{}
	for _, req := range requests {
		if at, ok := index[req.ProductID]; ok {
			merged[at].Quantity += req.Quantity
			if !warned[req.ProductID] {
				warned[req.ProductID] = true
				warnings = append(warnings, ShortfallReason{
					Cause:     ShortfallDuplicateRequest,
					ProductID: req.ProductID,
				})
			}
			continue
		}
		index[req.ProductID] = len(merged)
		merged = append(merged, req)
	}
	return merged, warnings
}

// evaluateProduct replays the per-product availability logic against cached
// inputs. A nil product means not found; reserved maps warehouse item id to
// the ledger sum across all orders.
func evaluateProduct(productID uuid.UUID, product *models.Product, requested int, lines []models.ProductRecipe, reserved map[uuid.UUID]int) AvailabilityResult {
	result := AvailabilityResult{
		ProductID: productID,
		Requested: requested,
	}
	if product == nil || !product.IsActive {
		if product != nil {
			result.ProductName = product.Name
		}
		return result
	}
	result.ProductName = product.Name

	if len(lines) == 0 {
		result.MaxQuantity = unconstrainedCeiling
		result.Available = requested <= unconstrainedCeiling
		return result
	}

	maxQuantity := unconstrainedCeiling
	allSufficient := true
	for _, line := range lines {
		var onHand int
		var name string
		if line.Item != nil {
			onHand = line.Item.Quantity
			name = line.Item.Name
		}
		held := reserved[line.WarehouseItemID]
		effective := onHand - held
		required := line.Quantity * requested

		ingredient := IngredientAvailability{
			WarehouseItemID: line.WarehouseItemID,
			Name:            name,
			Required:        required,
			Available:       onHand,
			Reserved:        held,
			Optional:        line.Optional,
			Sufficient:      true,
		}
		// A line requiring zero units constrains nothing, same as an
		// optional line.
		if !line.Optional && line.Quantity > 0 {
			ingredient.Sufficient = effective >= required
			if !ingredient.Sufficient {
				allSufficient = false
			}
			lineMax := 0
			if effective > 0 {
				lineMax = effective / line.Quantity
			}
			if lineMax < maxQuantity {
				maxQuantity = lineMax
			}
		}
		result.Ingredients = append(result.Ingredients, ingredient)
	}

	result.MaxQuantity = maxQuantity
	result.Available = allSufficient && maxQuantity >= requested
	return result
}

func shortfallFor(req ItemRequest, product *models.Product, result AvailabilityResult) ShortfallReason {
	reason := ShortfallReason{
		ProductID:    req.ProductID,
		ProductName:  result.ProductName,
		Requested:    req.Quantity,
		MaxAvailable: result.MaxQuantity,
	}
	switch {
	case product == nil:
		reason.Cause = ShortfallProductNotFound
	case !product.IsActive:
		reason.Cause = ShortfallProductDisabled
	default:
		reason.Cause = ShortfallInsufficientStock
	}
	return reason
}

func itemIDsOf(lines []models.ProductRecipe) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := map[uuid.UUID]bool{}
	for _, line := range lines {
		if !seen[line.WarehouseItemID] {
			seen[line.WarehouseItemID] = true
			ids = append(ids, line.WarehouseItemID)
		}
	}
	return ids
}
