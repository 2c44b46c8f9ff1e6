package application

import (
	"context"
	"testing"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientService_Lifecycle(t *testing.T) {
	svc := NewClientService(newMemClientRepo(), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateClient(ctx, ClientRequest{Type: "B2C", Name: "Maya Lind", Email: "maya@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "active", created.Status)

	_, err = svc.CreateClient(ctx, ClientRequest{Type: "B2C", Name: "Zed Ortiz"})
	require.NoError(t, err)

	found, err := svc.SearchClients(ctx, "maya", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), found.Total)
	assert.Equal(t, created.ID, found.Items[0].ID)

	updated, err := svc.UpdateClient(ctx, created.ID, ClientRequest{Type: "B2C", Name: "Maya Lind-Berg", Email: "maya@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Maya Lind-Berg", updated.Name)

	snap, err := svc.ClientSnapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maya Lind-Berg", snap.Name)

	require.NoError(t, svc.ArchiveClient(ctx, created.ID))
	_, err = svc.ClientSnapshot(ctx, created.ID)
	assert.Error(t, err, "archived clients cannot be selected")

	all, err := svc.SearchClients(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)

	_, err = svc.GetClient(ctx, uuid.New())
	assert.True(t, domain.IsNotFound(err))
}

func TestClientService_CreateValidates(t *testing.T) {
	svc := NewClientService(newMemClientRepo(), zap.NewNop())
	_, err := svc.CreateClient(context.Background(), ClientRequest{Type: "B2X", Name: "Nobody"})
	assert.Error(t, err)
}
