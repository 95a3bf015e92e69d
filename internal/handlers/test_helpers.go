package handlers

import (
	"context"

	"github.com/mhutchens/waypoint/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc             func(ctx context.Context, email, password, fullName, phone string) error
	VerifyEmailFunc          func(ctx context.Context, token string) error
	LoginFunc                func(ctx context.Context, email, password string, remember bool, ipAddress, userAgent string) (*services.AuthResponse, error)
	RefreshFunc              func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ResetPasswordFunc        func(ctx context.Context, token, newPassword string) error
	LogoutFunc               func(ctx context.Context, refreshToken string) error
	ResendVerificationFunc   func(ctx context.Context, email string) error
	CurrentAccountFunc       func(ctx context.Context, accountID string) (*services.AccountResponse, error)
}

func (m *MockAuthService) Register(ctx context.Context, email, password, fullName, phone string) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, fullName, phone)
	}
	return nil
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, remember bool, ipAddress, userAgent string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, remember, ipAddress, userAgent)
	}
	return &services.AuthResponse{}, nil
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return &services.AuthResponse{}, nil
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return nil
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) CurrentAccount(ctx context.Context, accountID string) (*services.AccountResponse, error) {
	if m.CurrentAccountFunc != nil {
		return m.CurrentAccountFunc(ctx, accountID)
	}
	return &services.AccountResponse{ID: accountID}, nil
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	UnlockAccountFunc     func(ctx context.Context, adminID, accountID string) error
	DeactivateAccountFunc func(ctx context.Context, adminID, accountID string) error
	ReactivateAccountFunc func(ctx context.Context, adminID, accountID string) error
	DeleteAccountFunc     func(ctx context.Context, adminID, accountID string) error
}

func (m *MockAdminService) UnlockAccount(ctx context.Context, adminID, accountID string) error {
	if m.UnlockAccountFunc != nil {
		return m.UnlockAccountFunc(ctx, adminID, accountID)
	}
	return nil
}

func (m *MockAdminService) DeactivateAccount(ctx context.Context, adminID, accountID string) error {
	if m.DeactivateAccountFunc != nil {
		return m.DeactivateAccountFunc(ctx, adminID, accountID)
	}
	return nil
}

func (m *MockAdminService) ReactivateAccount(ctx context.Context, adminID, accountID string) error {
	if m.ReactivateAccountFunc != nil {
		return m.ReactivateAccountFunc(ctx, adminID, accountID)
	}
	return nil
}

func (m *MockAdminService) DeleteAccount(ctx context.Context, adminID, accountID string) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, adminID, accountID)
	}
	return nil
}
