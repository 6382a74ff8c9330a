package oneblog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultEmailTimeout bounds a single reset email delivery
const DefaultEmailTimeout = 10 * time.Second

// AuthFlows runs signup, login and the two step password reset against the
// configured stores. Each method blocks until its flow completes.
type AuthFlows struct {
	Users  UserStore
	Hasher PasswordHasher
	Tokens *SessionTokens
	OTC    *OTCManager
	Email  SendEmail

	// EmailTimeout caps how long ForgotPassword waits on Email
	EmailTimeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

func (f *AuthFlows) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func (f *AuthFlows) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *AuthFlows) emailTimeout() time.Duration {
	if f.EmailTimeout <= 0 {
		return DefaultEmailTimeout
	}
	return f.EmailTimeout
}

// Signup registers a new user
func (f *AuthFlows) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, err := f.Users.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return nil, &Error{Kind: KindConflict, Message: MsgUserExists, Field: "email"}
	} else if !errors.Is(err, ErrUserNotFound) {
		f.logger().Error("signup: user lookup failed", "error", err)
		return nil, upstreamError("Error during signup", err)
	}

	hash, err := f.Hasher.Hash(req.Password)
	if err != nil {
		f.logger().Error("signup: hashing failed", "error", err)
		return nil, upstreamError("Error during signup", err)
	}

	now := f.now()
	user := &User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.Users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, ErrEmailExists) {
			return nil, &Error{Kind: KindConflict, Message: MsgUserExists, Field: "email"}
		}
		f.logger().Error("signup: create failed", "error", err)
		return nil, upstreamError("Error during signup", err)
	}
	f.logger().Info("user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and returns a fresh session token
func (f *AuthFlows) Login(ctx context.Context, req LoginRequest) (string, *User, error) {
	if err := req.Validate(); err != nil {
		return "", nil, err
	}
	invalid := &Error{Kind: KindUnauthorized, Message: MsgInvalidCredentials, Field: "password"}

	user, err := f.Users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return "", nil, invalid
	} else if err != nil {
		f.logger().Error("login: user lookup failed", "error", err)
		return "", nil, upstreamError("Error during login", err)
	}

	ok, err := f.Hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		f.logger().Warn("login: stored digest unusable", "user_id", user.ID, "error", err)
		return "", nil, invalid
	}
	if !ok {
		return "", nil, invalid
	}

	token, err := f.Tokens.Issue(user.ID)
	if err != nil {
		f.logger().Error("login: token issue failed", "error", err)
		return "", nil, upstreamError("Error during login", err)
	}
	return token, user, nil
}

// ForgotPassword issues a reset code and mails it. An unknown email returns
// nil so callers cannot tell which addresses are registered. A delivery
// failure for a known email is reported.
func (f *AuthFlows) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	_, err := f.Users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	} else if err != nil {
		f.logger().Error("forgot-password: user lookup failed", "error", err)
		return upstreamError("Error processing request", err)
	}

	code, err := f.OTC.Issue(ctx, req.Email)
	if err != nil {
		f.logger().Error("forgot-password: issuing code failed", "error", err)
		return upstreamError("Error processing request", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, f.emailTimeout())
	defer cancel()
	if err := f.Email.SendResetCode(sendCtx, req.Email, code); err != nil {
		f.logger().Error("forgot-password: email delivery failed", "error", err)
		return upstreamError(MsgEmailSendFailed, err)
	}
	return nil
}

// ResetPassword exchanges a valid code for a new password. The code is
// removed only after the new digest is stored.
func (f *AuthFlows) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if err := f.OTC.Consume(ctx, req.Email, req.Code); err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return &Error{Kind: KindInvalidCode, Message: MsgInvalidOTC, Field: "otp"}
		}
		f.logger().Error("reset-password: code lookup failed", "error", err)
		return upstreamError("Error resetting password", err)
	}

	user, err := f.Users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return NewError(KindNotFound, MsgUserNotFound)
	} else if err != nil {
		f.logger().Error("reset-password: user lookup failed", "error", err)
		return upstreamError("Error resetting password", err)
	}

	hash, err := f.Hasher.Hash(req.NewPassword)
	if err != nil {
		f.logger().Error("reset-password: hashing failed", "error", err)
		return upstreamError("Error resetting password", err)
	}
	if err := f.Users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		f.logger().Error("reset-password: update failed", "error", err)
		return upstreamError("Error resetting password", err)
	}
	if err := f.OTC.Discard(ctx, req.Email); err != nil {
		f.logger().Error("reset-password: discarding code failed", "error", err)
		return upstreamError("Error resetting password", err)
	}
	f.logger().Info("password reset", "user_id", user.ID)
	return nil
}

// VerifyToken resolves a session token to a user id
func (f *AuthFlows) VerifyToken(token string) (string, error) {
	return f.Tokens.Verify(token)
}
