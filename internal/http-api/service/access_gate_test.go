package service

import (
	"errors"
	"testing"

	"markethub/internal/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) Create(record *models.BillingRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockBillingRepository) LatestByUser(userID string) (*models.BillingRecord, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BillingRecord), args.Error(1)
}

func TestCanRateElevatedTier(t *testing.T) {
	billingRepo := new(MockBillingRepository)
	gate := NewAccessGate(billingRepo)

	user := &models.User{ID: "u1", Tier: models.TierElevated}
	assert.True(t, gate.CanRate(user))

	// no billing lookup needed for elevated users
	billingRepo.AssertNotCalled(t, "LatestByUser", mock.Anything)
}

func TestCanRateByBillingStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{models.BillingStatusActive, true},
		{models.BillingStatusTrialing, true},
		{models.BillingStatusPastDue, false},
		{models.BillingStatusCanceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			billingRepo := new(MockBillingRepository)
			billingRepo.On("LatestByUser", "u1").
				Return(&models.BillingRecord{UserID: "u1", Status: tt.status}, nil)

			gate := NewAccessGate(billingRepo)
			user := &models.User{ID: "u1", Tier: models.TierBase}

			assert.Equal(t, tt.want, gate.CanRate(user))
			billingRepo.AssertExpectations(t)
		})
	}
}

func TestCanRateOnlyLatestRecordCounts(t *testing.T) {
	// the repo already returns only the newest row; a canceled latest record
	// denies even if older active rows exist
	billingRepo := new(MockBillingRepository)
	billingRepo.On("LatestByUser", "u1").
		Return(&models.BillingRecord{UserID: "u1", Status: models.BillingStatusCanceled}, nil)

	gate := NewAccessGate(billingRepo)
	assert.False(t, gate.CanRate(&models.User{ID: "u1", Tier: models.TierBase}))
}

func TestCanRateFailsClosed(t *testing.T) {
	user := &models.User{ID: "u1", Tier: models.TierBase}

	t.Run("no billing record", func(t *testing.T) {
		billingRepo := new(MockBillingRepository)
		billingRepo.On("LatestByUser", "u1").Return(nil, errors.New("record not found"))

		gate := NewAccessGate(billingRepo)
		assert.False(t, gate.CanRate(user))
	})

	t.Run("billing store down", func(t *testing.T) {
		billingRepo := new(MockBillingRepository)
		billingRepo.On("LatestByUser", "u1").Return(nil, errors.New("connection refused"))

		gate := NewAccessGate(billingRepo)
		assert.False(t, gate.CanRate(user))
	})

	t.Run("nil user", func(t *testing.T) {
		gate := NewAccessGate(new(MockBillingRepository))
		assert.False(t, gate.CanRate(nil))
	})
}
