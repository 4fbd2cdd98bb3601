package services

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/store"
)

type fakeScanStore struct {
	ticket  models.Ticket
	getErr  error
	marked  []uuid.UUID
	markErr error
}

func (f *fakeScanStore) GetTicket(_ context.Context, id uuid.UUID) (models.Ticket, error) {
	if f.getErr != nil {
		return models.Ticket{}, f.getErr
	}
	return f.ticket, nil
}

func (f *fakeScanStore) MarkScanned(_ context.Context, id uuid.UUID) (models.Ticket, error) {
	f.marked = append(f.marked, id)
	if f.markErr != nil {
		return models.Ticket{}, f.markErr
	}
	scanned := f.ticket
	scanned.Scanned = true
	return scanned, nil
}

func confirmedTicket(id uuid.UUID) models.Ticket {
	return models.Ticket{ID: id, TicketType: "general", Status: models.StatusConfirmed}
}

func TestScanGrantsEntryOnce(t *testing.T) {
	id := uuid.New()
	rdb, mock := redismock.NewClientMock()
	tickets := &fakeScanStore{ticket: confirmedTicket(id)}
	svc := NewScanService(tickets, rdb)

	mock.ExpectSetNX("scan_lock:"+id.String(), 1, scanLockTTL).SetVal(true)
	mock.ExpectDel("scan_lock:" + id.String()).SetVal(1)

	ticket, err := svc.Scan(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, ticket.Scanned)
	assert.Equal(t, []uuid.UUID{id}, tickets.marked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRejectsConcurrentAttempt(t *testing.T) {
	id := uuid.New()
	rdb, mock := redismock.NewClientMock()
	tickets := &fakeScanStore{ticket: confirmedTicket(id)}
	svc := NewScanService(tickets, rdb)

	mock.ExpectSetNX("scan_lock:"+id.String(), 1, scanLockTTL).SetVal(false)

	_, err := svc.Scan(context.Background(), id)

	assert.ErrorIs(t, err, ErrScanInFlight)
	assert.Empty(t, tickets.marked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRejectsAlreadyScanned(t *testing.T) {
	id := uuid.New()
	rdb, mock := redismock.NewClientMock()
	ticket := confirmedTicket(id)
	ticket.Scanned = true
	tickets := &fakeScanStore{ticket: ticket}
	svc := NewScanService(tickets, rdb)

	mock.ExpectSetNX("scan_lock:"+id.String(), 1, scanLockTTL).SetVal(true)
	mock.ExpectDel("scan_lock:" + id.String()).SetVal(1)

	_, err := svc.Scan(context.Background(), id)

	assert.ErrorIs(t, err, ErrAlreadyScanned)
	assert.Empty(t, tickets.marked)
}

func TestScanRejectsUnconfirmed(t *testing.T) {
	id := uuid.New()
	rdb, mock := redismock.NewClientMock()
	ticket := confirmedTicket(id)
	ticket.Status = models.StatusAvailable
	tickets := &fakeScanStore{ticket: ticket}
	svc := NewScanService(tickets, rdb)

	mock.ExpectSetNX("scan_lock:"+id.String(), 1, scanLockTTL).SetVal(true)
	mock.ExpectDel("scan_lock:" + id.String()).SetVal(1)

	_, err := svc.Scan(context.Background(), id)

	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, tickets.marked)
}

func TestScanUnknownTicket(t *testing.T) {
	id := uuid.New()
	rdb, mock := redismock.NewClientMock()
	tickets := &fakeScanStore{getErr: store.ErrNotFound}
	svc := NewScanService(tickets, rdb)

	mock.ExpectSetNX("scan_lock:"+id.String(), 1, scanLockTTL).SetVal(true)
	mock.ExpectDel("scan_lock:" + id.String()).SetVal(1)

	_, err := svc.Scan(context.Background(), id)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, tickets.marked)
}
