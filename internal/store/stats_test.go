package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketStatsSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTicketBatch(ctx, "general", 150, 4)
	require.NoError(t, err)
	_, err = s.CreateTicketBatch(ctx, "vip", 300, 2)
	require.NoError(t, err)

	sold, err := s.ClaimAvailable(ctx, "general", Assignment{UserID: "user-1"})
	require.NoError(t, err)
	_, err = s.ClaimAvailable(ctx, "vip", Assignment{UserID: "user-2"})
	require.NoError(t, err)
	_, err = s.MarkScanned(ctx, sold.ID)
	require.NoError(t, err)

	stats, err := s.TicketStatsSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalTickets)
	assert.Equal(t, int64(2), stats.SoldTickets)
	assert.Equal(t, int64(1), stats.ScannedTickets)
	assert.Equal(t, int64(6), stats.QRGenerated)
	assert.Equal(t, int64(450), stats.Revenue)
}

func TestAvailableByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTicketBatch(ctx, "general", 150, 3)
	require.NoError(t, err)
	_, err = s.CreateTicketBatch(ctx, "vip", 300, 1)
	require.NoError(t, err)
	_, err = s.ClaimAvailable(ctx, "vip", Assignment{UserID: "user-1"})
	require.NoError(t, err)

	counts, err := s.AvailableByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"general": 3}, counts)
}
