package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/internal/catalog"
	"github.com/fleurly/fleurly-backend/internal/orders"
	"github.com/fleurly/fleurly-backend/pkg/logger"
	"github.com/fleurly/fleurly-backend/pkg/outbox"
	"github.com/fleurly/fleurly-backend/pkg/pagination"
)

// Service is the inventory engine boundary: availability checks, the
// reservation ledger, deduction conversion, reporting, and the cleanup sweep.
type Service interface {
	CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int) (*AvailabilityResult, error)
	CheckBatchAvailability(ctx context.Context, requests []ItemRequest) (*BatchAvailabilityResult, error)
	CreateReservations(ctx context.Context, orderID uuid.UUID, requests []ItemRequest, validate bool) error
	ReleaseReservations(ctx context.Context, orderID uuid.UUID) (int, error)
	GetReservations(ctx context.Context, orderID uuid.UUID) ([]ReservationDetail, error)
	ConvertReservationsToDeductions(ctx context.Context, orderID uuid.UUID) ([]AuditRecord, error)
	GetInventorySummary(ctx context.Context) (*InventorySummary, error)
	ListWarehouseItems(ctx context.Context, params pagination.Params) (*WarehouseItemPage, error)
	CleanupExpiredReservations(ctx context.Context, maxAgeHours int, dryRun bool) (*CleanupStats, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams collects the engine's dependencies.
type ServiceParams struct {
	Repo    *Repository
	Catalog *catalog.Repository
	Orders  *orders.Repository
	DB      txRunner
	Outbox  outboxEmitter
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	catalog *catalog.Repository
	orders  *orders.Repository
	db      txRunner
	outbox  outboxEmitter
	logg    *logger.Logger
}

// NewService constructs the inventory engine. Outbox and Logger are optional;
// everything else is required.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		orders:  params.Orders,
		db:      params.DB,
		outbox:  params.Outbox,
		logg:    params.Logger,
	}, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *service) logInfo(ctx context.Context, fields map[string]any, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func (s *service) logWarn(ctx context.Context, fields map[string]any, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}
