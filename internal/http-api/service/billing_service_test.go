package service

import (
	"testing"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type billingTestEnv struct {
	db   *gorm.DB
	svc  BillingService
	gate AccessGate
}

func newBillingTestEnv(t *testing.T) *billingTestEnv {
	t.Helper()
	db := setupTestDB(t)
	billingRepo := repository.NewBillingRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &billingTestEnv{
		db:   db,
		svc:  NewBillingService(billingRepo, userRepo),
		gate: NewAccessGate(billingRepo),
	}
}

func (e *billingTestEnv) reload(t *testing.T, id string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, e.db.First(&user, "id = ?", id).Error)
	return &user
}

func TestApplyWebhookActiveElevatesTier(t *testing.T) {
	env := newBillingTestEnv(t)
	user := createTestUser(t, env.db, "carl")

	resp, err := env.svc.ApplyWebhook(dto.BillingWebhookDTO{
		UserID:   user.ID,
		Status:   models.BillingStatusActive,
		Provider: "stripe",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TierElevated, resp.Tier)

	reloaded := env.reload(t, user.ID)
	assert.Equal(t, models.TierElevated, reloaded.Tier)
	assert.True(t, env.gate.CanRate(reloaded))
}

func TestApplyWebhookCancellationRevokes(t *testing.T) {
	env := newBillingTestEnv(t)
	user := createTestUser(t, env.db, "dana")

	_, err := env.svc.ApplyWebhook(dto.BillingWebhookDTO{
		UserID: user.ID, Status: models.BillingStatusActive, Provider: "stripe",
	})
	require.NoError(t, err)

	resp, err := env.svc.ApplyWebhook(dto.BillingWebhookDTO{
		UserID: user.ID, Status: models.BillingStatusCanceled, Provider: "stripe",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TierBase, resp.Tier)

	// latest record wins; the earlier active row no longer grants access
	assert.False(t, env.gate.CanRate(env.reload(t, user.ID)))
}

func TestApplyWebhookUnknownUser(t *testing.T) {
	env := newBillingTestEnv(t)

	_, err := env.svc.ApplyWebhook(dto.BillingWebhookDTO{
		UserID:   "00000000-0000-0000-0000-000000000000",
		Status:   models.BillingStatusActive,
		Provider: "stripe",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBillingStatusWithoutRecords(t *testing.T) {
	env := newBillingTestEnv(t)
	user := createTestUser(t, env.db, "erin")

	resp, err := env.svc.Status(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierBase, resp.Tier)
	assert.Empty(t, resp.Status)
}
