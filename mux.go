package oneblog

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
)

// OneBlog wires the stores, auth flows and blog service into one HTTP app.
// Fill in the exported fields, call Init, then serve Handler().
type OneBlog struct {
	AppName string

	// Must be passed in
	Users UserStore
	Blogs BlogStore
	OTCs  OTCStore

	// Secret used to sign session tokens. Required.
	JWTSecretKey string

	// Optional; zero values pick defaults
	Hasher          PasswordHasher
	Email           SendEmail
	SessionTokenTTL time.Duration
	OTCExpiry       time.Duration
	EmailTimeout    time.Duration
	AllowedOrigins  []string
	Logger          *slog.Logger

	// Server side sessions for browser clients. Defaults to an in-memory
	// scs manager.
	Session *scs.SessionManager

	// How long is a session cookie valid for. Defaults to 1 day
	SessionTimeoutInSeconds int

	Flows      *AuthFlows
	BlogSvc    *BlogService
	LocalAuth  *LocalAuth
	Middleware *Middleware

	router *mux.Router
}

func New(appName string) *OneBlog {
	return &OneBlog{AppName: appName}
}

func (a *OneBlog) ensureDefaults() {
	if a.AppName == "" {
		a.AppName = "OneBlog"
	}
	if a.SessionTimeoutInSeconds <= 0 {
		a.SessionTimeoutInSeconds = 86400
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.Hasher == nil {
		a.Hasher = &BcryptHasher{}
	}
	if a.Email == nil {
		a.Email = &ConsoleEmailSender{Expiry: a.OTCExpiry}
	}
	if a.Session == nil {
		a.Session = scs.New()
		a.Session.Lifetime = time.Duration(a.SessionTimeoutInSeconds) * time.Second
		a.Session.Cookie.Name = fmt.Sprintf("%s_session", a.AppName)
		a.Session.Cookie.HttpOnly = true
		a.Session.Cookie.SameSite = http.SameSiteLaxMode
	}
}

// Init validates the configuration and builds the flows and handlers
func (a *OneBlog) Init() error {
	if a.Users == nil || a.Blogs == nil || a.OTCs == nil {
		return fmt.Errorf("user, blog and otc stores are required")
	}
	a.ensureDefaults()

	tokens, err := NewSessionTokens([]byte(a.JWTSecretKey), WithTokenTTL(a.SessionTokenTTL))
	if err != nil {
		return err
	}

	a.Flows = &AuthFlows{
		Users:        a.Users,
		Hasher:       a.Hasher,
		Tokens:       tokens,
		OTC:          NewOTCManager(a.OTCs, a.OTCExpiry),
		Email:        a.Email,
		EmailTimeout: a.EmailTimeout,
		Logger:       a.Logger,
	}
	a.BlogSvc = &BlogService{Users: a.Users, Blogs: a.Blogs, Logger: a.Logger}
	sessionKey := fmt.Sprintf("%sAuthToken", a.AppName)
	a.LocalAuth = &LocalAuth{Flows: a.Flows, Session: a.Session, SessionTokenKey: sessionKey}
	a.Middleware = &Middleware{Verifier: tokens, Session: a.Session, SessionTokenKey: sessionKey}
	a.router = nil
	return nil
}

func (a *OneBlog) setupRoutes() *mux.Router {
	if a.router != nil {
		return a.router
	}
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "Api is working")
	}).Methods(http.MethodGet)

	r.HandleFunc("/signup", a.LocalAuth.HandleSignup).Methods(http.MethodPost)
	r.HandleFunc("/login", a.LocalAuth.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", a.LocalAuth.HandleLogout).Methods(http.MethodPost)

	pw := r.PathPrefix("/password").Subrouter()
	pw.HandleFunc("/forgot-password", a.LocalAuth.HandleForgotPassword).Methods(http.MethodPost)
	pw.HandleFunc("/reset-password", a.LocalAuth.HandleResetPassword).Methods(http.MethodPost)

	blogs := &BlogHandlers{Service: a.BlogSvc}
	br := r.PathPrefix("/blogs").Subrouter()
	br.Use(a.Middleware.EnsureUser)
	br.HandleFunc("", blogs.HandleList).Methods(http.MethodGet)
	br.HandleFunc("/create", blogs.HandleCreate).Methods(http.MethodPost)
	br.HandleFunc("/edit/{blogID}", blogs.HandleEdit).Methods(http.MethodPatch)
	br.HandleFunc("/delete/{blogID}", blogs.HandleDelete).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	a.router = r
	return r
}

// Handler returns the full app with sessions and CORS applied
func (a *OneBlog) Handler() http.Handler {
	return CORS(a.AllowedOrigins, a.Session.LoadAndSave(a.setupRoutes()))
}
