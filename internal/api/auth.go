package api

import (
	"context"
	"fmt"

	"github.com/SEP490-G11/Project-Round/internal/session"
)

// AuthAPI shapes requests for the authentication endpoints. The flows that
// precede a session go through the public client; logout and password
// change require the authenticated one.
type AuthAPI struct {
	public *Public
	client *Client
	sess   *session.Store
}

// NewAuthAPI creates the auth module over the two transports and the
// session store it writes on login and clears on logout.
func NewAuthAPI(public *Public, client *Client, sess *session.Store) *AuthAPI {
	return &AuthAPI{public: public, client: client, sess: sess}
}

// Login exchanges credentials for an access token and profile, and stores
// both in the session.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := a.public.Post(ctx, "/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	profile := resp.User
	if err := a.sess.SetSession(resp.AccessToken, &profile); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return &resp, nil
}

// Logout terminates the server session and clears the local one. The local
// session is cleared even when the server call fails, so a dead server
// cannot pin a stale credential on this machine.
func (a *AuthAPI) Logout(ctx context.Context) error {
	err := a.client.Post(ctx, "/auth/logout", nil, nil)
	a.sess.Clear()
	return err
}

// RegisterRequestOTP starts registration by asking the server to email a
// one-time code.
func (a *AuthAPI) RegisterRequestOTP(ctx context.Context, email, password, fullName string) error {
	return a.public.Post(ctx, "/auth/register/request-otp", RegisterRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}, nil)
}

// RegisterVerifyOTP completes registration with the emailed code. A
// successful verification issues a session like a login does.
func (a *AuthAPI) RegisterVerifyOTP(ctx context.Context, otp string) (*LoginResponse, error) {
	var resp LoginResponse
	err := a.public.Post(ctx, "/auth/register/verify-otp", VerifyOTPRequest{OTP: otp}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.AccessToken != "" {
		profile := resp.User
		if err := a.sess.SetSession(resp.AccessToken, &profile); err != nil {
			return nil, fmt.Errorf("storing session: %w", err)
		}
	}

	return &resp, nil
}

// ForgotRequestOTP starts the password-reset flow.
func (a *AuthAPI) ForgotRequestOTP(ctx context.Context, email string) error {
	return a.public.Post(ctx, "/auth/forgot/request-otp", ForgotRequest{Email: email}, nil)
}

// ForgotVerifyOTP verifies the reset code.
func (a *AuthAPI) ForgotVerifyOTP(ctx context.Context, otp string) error {
	return a.public.Post(ctx, "/auth/forgot/verify-otp", VerifyOTPRequest{OTP: otp}, nil)
}

// ForgotResetPassword sets the new password after the OTP was verified.
func (a *AuthAPI) ForgotResetPassword(ctx context.Context, newPassword, confirm string) error {
	return a.public.Post(ctx, "/auth/forgot/reset-password", ResetPasswordRequest{
		NewPassword:        newPassword,
		ConfirmNewPassword: confirm,
	}, nil)
}

// ChangePassword changes the password of the logged-in user.
func (a *AuthAPI) ChangePassword(ctx context.Context, current, newPassword, confirm string) error {
	return a.client.Patch(ctx, "/auth/change-password", ChangePasswordRequest{
		CurrentPassword:    current,
		NewPassword:        newPassword,
		ConfirmNewPassword: confirm,
	}, nil)
}
