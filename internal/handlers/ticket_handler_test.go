package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themancarve/tickets/internal/services"
	"github.com/themancarve/tickets/internal/store"
)

func ticketRouter(s *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTicketHandler(s, services.EventInfo{Name: "80s Flashbacks", Date: "2025-08-09", Venue: "DUT"})
	r := gin.New()
	r.GET("/api/ticket/:id", h.Get)
	r.PUT("/api/ticket/:id", h.Update)
	r.GET("/api/tickets/:id/qr.png", h.QRImage)
	return r
}

func TestGetTicket(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTicketBatch(context.Background(), "general", 150, 1)
	require.NoError(t, err)

	r := ticketRouter(s)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ticket/"+created[0].ID.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created[0].ID.String())
}

func TestGetTicketNotFound(t *testing.T) {
	r := ticketRouter(newTestStore(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ticket/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTicketBadID(t *testing.T) {
	r := ticketRouter(newTestStore(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ticket/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTicketDropsUnknownFields(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTicketBatch(context.Background(), "general", 150, 1)
	require.NoError(t, err)

	r := ticketRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/ticket/"+created[0].ID.String(),
		strings.NewReader(`{"price": 200, "id": "evil", "qrData": "evil"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	ticket, err := s.GetTicket(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 200, ticket.Price)
	assert.Equal(t, created[0].ID, ticket.ID)
	assert.Equal(t, created[0].ID.String(), ticket.QRData, "identity fields are not editable")
}

func TestUpdateTicketScannedFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateTicketBatch(ctx, "general", 150, 1)
	require.NoError(t, err)
	ticket, err := s.ClaimAvailable(ctx, "general", store.Assignment{UserID: "user-1"})
	require.NoError(t, err)

	r := ticketRouter(s)

	// Admins can mark a confirmed ticket as used.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/ticket/"+ticket.ID.String(),
		strings.NewReader(`{"scanned": true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	updated, err := s.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, updated.Scanned)
	require.NotNil(t, updated.ScannedAt)

	// And back, which clears the scan timestamp.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/ticket/"+ticket.ID.String(),
		strings.NewReader(`{"scanned": false}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	updated, err = s.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, updated.Scanned)
	assert.Nil(t, updated.ScannedAt)
}

func TestUpdateTicketScannedRequiresConfirmed(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTicketBatch(context.Background(), "general", 150, 1)
	require.NoError(t, err)

	r := ticketRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/ticket/"+created[0].ID.String(),
		strings.NewReader(`{"scanned": true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	ticket, err := s.GetTicket(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.False(t, ticket.Scanned)
}

func TestUpdateTicketRejectsUnknownStatus(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTicketBatch(context.Background(), "general", 150, 1)
	require.NoError(t, err)

	r := ticketRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/ticket/"+created[0].ID.String(),
		strings.NewReader(`{"status": "refunded"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQRImage(t *testing.T) {
	s := newTestStore(t)
	created, err := s.CreateTicketBatch(context.Background(), "general", 150, 1)
	require.NoError(t, err)

	r := ticketRouter(s)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets/"+created[0].ID.String()+"/qr.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestStaffScanFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateTicketBatch(ctx, "general", 150, 1)
	require.NoError(t, err)
	ticket, err := s.ClaimAvailable(ctx, "general", store.Assignment{UserID: "user-1"})
	require.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	lockKey := "scan_lock:" + ticket.ID.String()
	mock.ExpectSetNX(lockKey, 1, 5*time.Second).SetVal(true)
	mock.ExpectDel(lockKey).SetVal(1)
	mock.ExpectSetNX(lockKey, 1, 5*time.Second).SetVal(true)
	mock.ExpectDel(lockKey).SetVal(1)

	gin.SetMode(gin.TestMode)
	h := NewStaffHandler(s, services.NewScanService(s, rdb), nil)
	r := gin.New()
	r.POST("/api/staff/scan/:id", h.Scan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/staff/scan/"+ticket.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Entry granted")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/staff/scan/"+ticket.ID.String(), nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	scanned, err := s.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, scanned.Scanned)
	require.NotNil(t, scanned.ScannedAt)
}

func TestStaffAttendees(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateTicketBatch(ctx, "general", 150, 2)
	require.NoError(t, err)
	_, err = s.ClaimAvailable(ctx, "general", store.Assignment{UserID: "user-1"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	h := NewStaffHandler(s, nil, nil)
	r := gin.New()
	r.GET("/api/staff/attendees", h.Attendees)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/staff/attendees", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestAdminCreateAndStats(t *testing.T) {
	s := newTestStore(t)
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(s)
	r := gin.New()
	r.POST("/api/admin/tickets", h.CreateTickets)
	r.GET("/api/admin/stats", h.Stats)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/tickets",
		strings.NewReader(`{"ticketType":"general","price":150,"quantity":3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalTickets":3`)

	// Batch size is capped.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/tickets",
		strings.NewReader(`{"ticketType":"general","price":150,"quantity":101}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tickets, err := s.ListTickets(context.Background(), store.TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}
