package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mhutchens/waypoint/internal/models"
	"github.com/mhutchens/waypoint/internal/repositories"
	pkglogger "github.com/mhutchens/waypoint/pkg/logger"
)

// AdminService handles administrative account operations: lockout override,
// soft-deactivation, and full account removal.
type AdminService struct {
	store  repositories.Store
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewAdminService creates a new AdminService
func NewAdminService(store repositories.Store, logger *slog.Logger, audit *pkglogger.AuditLogger) *AdminService {
	return &AdminService{store: store, logger: logger, audit: audit}
}

// UnlockAccount clears an account's lockout expiry and failure counter.
// This is the only way a lockout is lifted other than expiry.
func (s *AdminService) UnlockAccount(ctx context.Context, adminID, accountID string) error {
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		acct, err := tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		acct.FailedLogins = 0
		acct.LockedUntil = nil
		return tx.Accounts().UpdateAuthState(ctx, acct)
	})
	if err != nil {
		return s.mapError("unlock account", accountID, err)
	}

	s.audit.LogAccountAction("account_unlocked", accountID, "", map[string]string{"admin_id": adminID})
	return nil
}

// DeactivateAccount soft-deactivates an account and revokes all of its
// refresh sessions. The account row is never physically deleted here.
func (s *AdminService) DeactivateAccount(ctx context.Context, adminID, accountID string) error {
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		if err := tx.Accounts().SetActive(ctx, accountID, false); err != nil {
			return err
		}
		return tx.Sessions().DeleteByAccount(ctx, accountID)
	})
	if err != nil {
		return s.mapError("deactivate account", accountID, err)
	}

	s.audit.LogAccountAction("account_deactivated", accountID, "", map[string]string{"admin_id": adminID})
	return nil
}

// ReactivateAccount reverses a soft-deactivation.
func (s *AdminService) ReactivateAccount(ctx context.Context, adminID, accountID string) error {
	if err := s.store.Accounts().SetActive(ctx, accountID, true); err != nil {
		return s.mapError("reactivate account", accountID, err)
	}

	s.audit.LogAccountAction("account_reactivated", accountID, "", map[string]string{"admin_id": adminID})
	return nil
}

// DeleteAccount removes an account and everything it owns (sessions,
// action tokens, profile) in one transaction. The schema's ON DELETE
// CASCADE is a safety net, not the mechanism.
func (s *AdminService) DeleteAccount(ctx context.Context, adminID, accountID string) error {
	err := s.store.InTx(ctx, func(tx repositories.Store) error {
		if err := tx.Sessions().DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		if err := tx.Tokens().DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		if err := tx.Accounts().DeleteProfile(ctx, accountID); err != nil {
			return err
		}
		return tx.Accounts().Delete(ctx, accountID)
	})
	if err != nil {
		return s.mapError("delete account", accountID, err)
	}

	s.audit.LogAccountAction("account_deleted", accountID, "", map[string]string{"admin_id": adminID})
	return nil
}

func (s *AdminService) mapError(op, accountID string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	if errors.Is(err, models.ErrStorageUnavailable) {
		return err
	}
	s.logger.Error("admin operation failed",
		slog.String("op", op),
		slog.String("account_id", accountID),
		slog.Any("error", err))
	return models.ErrInternalServer
}
