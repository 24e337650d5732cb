package outbox

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleurly/fleurly-backend/pkg/db/models"
	"github.com/fleurly/fleurly-backend/pkg/enums"
	"github.com/fleurly/fleurly-backend/pkg/logger"
	"github.com/fleurly/fleurly-backend/pkg/outbox/payloads"
)

const outboxTestSchema = `CREATE TABLE outbox_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at DATETIME,
	published_at DATETIME,
	attempt_count INTEGER NOT NULL DEFAULT 0,
	last_error TEXT
)`

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(outboxTestSchema).Error)
	return db
}

func seedEvent(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	db := newOutboxTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	service := NewService(NewRepository(db), logg)

	event := DomainEvent{
		EventType:     enums.EventReservationCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data: payloads.ReservationCreatedEvent{
			OrderID:     uuid.New(),
			OrderNumber: "FL-1001",
		},
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return service.Emit(context.Background(), tx, event)
	}))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, enums.EventReservationCreated, stored.EventType)
	require.Contains(t, string(stored.Payload), `"eventId"`)
	require.Contains(t, string(stored.Payload), `"FL-1001"`)
	require.Nil(t, stored.PublishedAt)
}

func TestFetchUnpublishedForPublishSkipsExhaustedRows(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)

	fresh := seedEvent(t, db, enums.EventReservationCreated, time.Now().Add(-2*time.Minute))
	exhausted := seedEvent(t, db, enums.EventReservationReleased, time.Now().Add(-time.Minute))
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", exhausted.ID).Update("attempt_count", 10).Error)
	published := seedEvent(t, db, enums.EventStockDeducted, time.Now())
	require.NoError(t, repo.MarkPublishedTx(db, published.ID))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, fresh.ID, rows[0].ID)
}

func TestFetchUnpublishedForPublishOrdersOldestFirst(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)

	later := seedEvent(t, db, enums.EventStockLow, time.Now())
	earlier := seedEvent(t, db, enums.EventReservationCreated, time.Now().Add(-time.Hour))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, earlier.ID, rows[0].ID)
	require.Equal(t, later.ID, rows[1].ID)
}

func TestMarkFailedTxIncrementsAttemptsAndTruncatesError(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedEvent(t, db, enums.EventReservationCreated, time.Now())

	longCause := errors.New(strings.Repeat("x", maxStoredErrorLen+100))
	require.NoError(t, repo.MarkFailedTx(db, event.ID, longCause))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	require.Equal(t, 1, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	require.Len(t, *stored.LastError, maxStoredErrorLen)

	require.NoError(t, repo.MarkFailedTx(db, event.ID, errors.New("still failing")))
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	require.Equal(t, 2, stored.AttemptCount)
	require.Equal(t, "still failing", *stored.LastError)
	require.Nil(t, stored.PublishedAt)
}

func TestDeletePublishedBeforePrunesDeliveredAndExhausted(t *testing.T) {
	db := newOutboxTestDB(t)
	repo := NewRepository(db)

	oldPublished := seedEvent(t, db, enums.EventReservationCreated, time.Now().Add(-72*time.Hour))
	oldAt := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", oldPublished.ID).Update("published_at", oldAt).Error)

	recentPublished := seedEvent(t, db, enums.EventStockDeducted, time.Now())
	require.NoError(t, repo.MarkPublishedTx(db, recentPublished.ID))

	exhausted := seedEvent(t, db, enums.EventStockLow, time.Now().Add(-72*time.Hour))
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", exhausted.ID).Update("attempt_count", 5).Error)

	pending := seedEvent(t, db, enums.EventReservationReleased, time.Now().Add(-72*time.Hour))

	deleted, err := repo.DeletePublishedBefore(context.Background(), db, time.Now().Add(-24*time.Hour), 5)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	require.Contains(t, ids, recentPublished.ID)
	require.Contains(t, ids, pending.ID)
}
