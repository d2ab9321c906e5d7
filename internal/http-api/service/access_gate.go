package service

import (
	"errors"

	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"
)

// ErrUpgradeRequired is what handlers answer with when the gate rejects;
// the gate itself never returns an error.
var ErrUpgradeRequired = errors.New("upgrade to rate others")

// AccessGate decides whether a user may submit ratings. It is a pure read:
// it never mutates the stored tier (billing webhooks own that sync).
type AccessGate interface {
	CanRate(user *models.User) bool
}

type accessGate struct {
	billingRepo repository.BillingRepository
}

func NewAccessGate(billingRepo repository.BillingRepository) AccessGate {
	return &accessGate{billingRepo: billingRepo}
}

// CanRate returns true for elevated-tier users, otherwise consults the most
// recent billing record. Every failure mode of the lookup — no record, store
// down — denies instead of erroring, so the caller can answer with a clean
// 403 rather than turning an authorization decision into a 500.
func (g *accessGate) CanRate(user *models.User) bool {
	if user == nil {
		return false
	}
	if user.Tier == models.TierElevated {
		return true
	}

	record, err := g.billingRepo.LatestByUser(user.ID)
	if err != nil {
		// fail closed, whatever the cause
		return false
	}

	return record.GrantsRating()
}
