package oneblog

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

// DefaultSessionTokenKey is the session variable holding the session token
const DefaultSessionTokenKey = "oneblogAuthToken"

// LocalAuth exposes the email/password flows over HTTP. Bodies may be JSON
// or urlencoded forms; responses are always JSON.
type LocalAuth struct {
	Flows *AuthFlows

	// Optional. When set, login also stores the token in the session so
	// browser clients can authenticate with the session cookie alone.
	Session         *scs.SessionManager
	SessionTokenKey string
}

func (a *LocalAuth) sessionTokenKey() string {
	if a.SessionTokenKey != "" {
		return a.SessionTokenKey
	}
	return DefaultSessionTokenKey
}

// HandleSignup handles POST /signup
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(w, r)
	if err != nil {
		badBody(w, err)
		return
	}
	req := SignupRequest{
		Name:     firstOf(values, "name"),
		Email:    firstOf(values, "email"),
		Password: firstOf(values, "password"),
	}
	if _, err := a.Flows.Signup(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Signup successful")
}

// HandleLogin handles POST /login
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(w, r)
	if err != nil {
		badBody(w, err)
		return
	}
	req := LoginRequest{
		Email:    firstOf(values, "email"),
		Password: firstOf(values, "password"),
	}
	token, _, err := a.Flows.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	if a.Session != nil {
		if err := a.Session.RenewToken(r.Context()); err != nil {
			slog.Warn("login: renewing session failed", "error", err)
		} else {
			a.Session.Put(r.Context(), a.sessionTokenKey(), token)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleLogout clears the server side session. Issued tokens stay valid.
func (a *LocalAuth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if a.Session != nil {
		if err := a.Session.Destroy(r.Context()); err != nil {
			slog.Warn("logout: destroying session failed", "error", err)
		}
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

// HandleForgotPassword handles POST /password/forgot-password
func (a *LocalAuth) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(w, r)
	if err != nil {
		badBody(w, err)
		return
	}
	req := ForgotPasswordRequest{Email: firstOf(values, "email")}
	if err := a.Flows.ForgotPassword(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, MsgForgotPasswordSent)
}

// HandleResetPassword handles POST /password/reset-password
func (a *LocalAuth) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(w, r)
	if err != nil {
		badBody(w, err)
		return
	}
	req := ResetPasswordRequest{
		Email:       firstOf(values, "email"),
		Code:        firstOf(values, "otp", "code"),
		NewPassword: firstOf(values, "newPassword", "new_password"),
	}
	if err := a.Flows.ResetPassword(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successful")
}
