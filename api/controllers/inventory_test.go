package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleurly/fleurly-backend/internal/inventory"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
	"github.com/fleurly/fleurly-backend/pkg/pagination"
	"github.com/fleurly/fleurly-backend/pkg/types"
)

type fakeInventoryService struct {
	availability    *inventory.AvailabilityResult
	availabilityErr error
	batch           *inventory.BatchAvailabilityResult
	createErr       error
	reservations    []inventory.ReservationDetail
	released        int
	records         []inventory.AuditRecord
	summary         *inventory.InventorySummary
	page            *inventory.WarehouseItemPage
	stats           *inventory.CleanupStats

	lastProductID uuid.UUID
	lastQuantity  int
	lastOrderID   uuid.UUID
	lastRequests  []inventory.ItemRequest
	lastValidate  bool
	lastMaxAge    int
	lastDryRun    bool
}

func (f *fakeInventoryService) CheckAvailability(_ context.Context, productID uuid.UUID, quantity int) (*inventory.AvailabilityResult, error) {
	f.lastProductID = productID
	f.lastQuantity = quantity
	return f.availability, f.availabilityErr
}

func (f *fakeInventoryService) CheckBatchAvailability(_ context.Context, requests []inventory.ItemRequest) (*inventory.BatchAvailabilityResult, error) {
	f.lastRequests = requests
	return f.batch, nil
}

func (f *fakeInventoryService) CreateReservations(_ context.Context, orderID uuid.UUID, requests []inventory.ItemRequest, validate bool) error {
	f.lastOrderID = orderID
	f.lastRequests = requests
	f.lastValidate = validate
	return f.createErr
}

func (f *fakeInventoryService) ReleaseReservations(_ context.Context, orderID uuid.UUID) (int, error) {
	f.lastOrderID = orderID
	return f.released, nil
}

func (f *fakeInventoryService) GetReservations(_ context.Context, orderID uuid.UUID) ([]inventory.ReservationDetail, error) {
	f.lastOrderID = orderID
	return f.reservations, nil
}

func (f *fakeInventoryService) ConvertReservationsToDeductions(_ context.Context, orderID uuid.UUID) ([]inventory.AuditRecord, error) {
	f.lastOrderID = orderID
	return f.records, nil
}

func (f *fakeInventoryService) GetInventorySummary(context.Context) (*inventory.InventorySummary, error) {
	return f.summary, nil
}

func (f *fakeInventoryService) ListWarehouseItems(_ context.Context, params pagination.Params) (*inventory.WarehouseItemPage, error) {
	return f.page, nil
}

func (f *fakeInventoryService) CleanupExpiredReservations(_ context.Context, maxAgeHours int, dryRun bool) (*inventory.CleanupStats, error) {
	f.lastMaxAge = maxAgeHours
	f.lastDryRun = dryRun
	return f.stats, nil
}

func requestWithOrderID(method, target, orderID string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderID", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCheckAvailabilityParsesQuery(t *testing.T) {
	productID := uuid.New()
	svc := &fakeInventoryService{
		availability: &inventory.AvailabilityResult{ProductID: productID, Requested: 3, Available: true, MaxQuantity: 10},
	}
	handler := CheckAvailability(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/availability?product_id="+productID.String()+"&quantity=3", nil)
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastProductID != productID {
		t.Fatalf("expected product id to pass through")
	}
	if svc.lastQuantity != 3 {
		t.Fatalf("expected quantity 3, got %d", svc.lastQuantity)
	}
}

func TestCheckAvailabilityRejectsBadProductID(t *testing.T) {
	handler := CheckAvailability(&fakeInventoryService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/availability?product_id=nope", nil)
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckBatchAvailabilityDecodesItems(t *testing.T) {
	productID := uuid.New()
	svc := &fakeInventoryService{batch: &inventory.BatchAvailabilityResult{Available: true}}
	handler := CheckBatchAvailability(svc, nil)

	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/availability/batch", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.lastRequests) != 1 || svc.lastRequests[0].ProductID != productID || svc.lastRequests[0].Quantity != 2 {
		t.Fatalf("unexpected requests %+v", svc.lastRequests)
	}
}

func TestCheckBatchAvailabilityRejectsEmptyItems(t *testing.T) {
	handler := CheckBatchAvailability(&fakeInventoryService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/availability/batch", strings.NewReader(`{"items":[]}`))
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateReservationsReturnsCreated(t *testing.T) {
	orderID := uuid.New()
	productID := uuid.New()
	svc := &fakeInventoryService{
		reservations: []inventory.ReservationDetail{{OrderID: orderID, Quantity: 5}},
	}
	handler := CreateReservations(svc, nil)

	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":5}],"validate":false}`
	req := requestWithOrderID(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/reservations", orderID.String(), body)
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastOrderID != orderID {
		t.Fatalf("expected order id to pass through")
	}
	if svc.lastValidate {
		t.Fatalf("expected validate=false to pass through")
	}
}

func TestCreateReservationsMapsShortfallToConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &fakeInventoryService{
		createErr: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for reservation"),
	}
	handler := CreateReservations(svc, nil)

	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":5}]}`
	req := requestWithOrderID(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/reservations", orderID.String(), body)
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
}

func TestReleaseReservationsReportsCount(t *testing.T) {
	orderID := uuid.New()
	svc := &fakeInventoryService{released: 2}
	handler := ReleaseReservations(svc, nil)

	req := requestWithOrderID(http.MethodDelete, "/api/v1/orders/"+orderID.String()+"/reservations", orderID.String(), "")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Data["released"] != 2 {
		t.Fatalf("expected released=2, got %v", payload.Data)
	}
}

func TestAssembleOrderRejectsBadOrderID(t *testing.T) {
	handler := AssembleOrder(&fakeInventoryService{}, nil)

	req := requestWithOrderID(http.MethodPost, "/api/v1/orders/nope/assemble", "nope", "")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCleanupReservationsUsesDefaultAge(t *testing.T) {
	svc := &fakeInventoryService{stats: &inventory.CleanupStats{DryRun: true}}
	handler := CleanupReservations(svc, 72, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/reservations/cleanup", strings.NewReader(`{"dry_run":true}`))
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastMaxAge != 72 {
		t.Fatalf("expected default max age 72, got %d", svc.lastMaxAge)
	}
	if !svc.lastDryRun {
		t.Fatalf("expected dry run to pass through")
	}
}
