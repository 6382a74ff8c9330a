package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	ob "github.com/panyam/oneblog"
)

// ErrNotLoggedIn is returned by calls that need a session when no usable
// credential is stored for the server.
var ErrNotLoggedIn = errors.New("not logged in")

// ResponseError is a non-2xx answer from the server
type ResponseError struct {
	StatusCode int
	Message    string
	Code       string
	Field      string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// BlogClient talks to a oneblog server
type BlogClient struct {
	mu            sync.Mutex
	serverURL     string
	store         CredentialStore
	httpClient    *http.Client
	authClient    *http.Client
	baseTransport http.RoundTripper
}

// ClientOption configures a BlogClient
type ClientOption func(*BlogClient)

// WithHTTPClient sets a custom base HTTP client (for timeouts, TLS config, etc.)
// The transport from this client will be wrapped with auth handling.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *BlogClient) {
		if client == nil {
			return
		}
		if client.Transport != nil {
			c.baseTransport = client.Transport
		}
		c.httpClient.Timeout = client.Timeout
		c.httpClient.Jar = client.Jar
	}
}

// WithTransport sets a custom base transport (for connection pooling, proxies, etc.)
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *BlogClient) {
		c.baseTransport = transport
	}
}

// NewBlogClient creates a client for the server at serverURL. Credentials
// are looked up in store by the server's scheme and host.
func NewBlogClient(serverURL string, store CredentialStore, opts ...ClientOption) *BlogClient {
	u, err := url.Parse(serverURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	}

	c := &BlogClient{
		serverURL:     serverURL,
		store:         store,
		httpClient:    &http.Client{},
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient.Transport = c.baseTransport
	c.authClient = &http.Client{
		Timeout: c.httpClient.Timeout,
		Jar:     c.httpClient.Jar,
		Transport: &oauth2.Transport{
			Source: &credentialTokenSource{client: c},
			Base:   c.baseTransport,
		},
	}
	return c
}

// ServerURL returns the server URL this client is configured for
func (c *BlogClient) ServerURL() string {
	return c.serverURL
}

// GetCredential returns the stored credential for this server
func (c *BlogClient) GetCredential() (*ServerCredential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.GetCredential(c.serverURL)
}

// IsLoggedIn returns true if there is a valid (non-expired) credential
func (c *BlogClient) IsLoggedIn() bool {
	cred, err := c.GetCredential()
	return err == nil && cred != nil && !cred.IsExpired()
}

func (c *BlogClient) Signup(ctx context.Context, req ob.SignupRequest) error {
	return c.call(ctx, c.httpClient, http.MethodPost, "/signup", req, nil)
}

// Login exchanges email and password for a session token and stores it
func (c *BlogClient) Login(ctx context.Context, email, password string) (*ServerCredential, error) {
	var resp struct {
		Token string `json:"token"`
	}
	req := ob.LoginRequest{Email: email, Password: password}
	if err := c.call(ctx, c.httpClient, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}

	cred := &ServerCredential{
		AccessToken: resp.Token,
		UserEmail:   email,
		ExpiresAt:   tokenExpiry(resp.Token),
		CreatedAt:   time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SetCredential(c.serverURL, cred); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}
	if err := c.store.Save(); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}
	return cred, nil
}

// Logout tells the server to end the session and drops the stored
// credential. The credential is removed even if the server call fails.
func (c *BlogClient) Logout(ctx context.Context) error {
	serverErr := c.call(ctx, c.httpClient, http.MethodPost, "/logout", nil, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.RemoveCredential(c.serverURL); err != nil {
		return err
	}
	if err := c.store.Save(); err != nil {
		return err
	}
	return serverErr
}

// ForgotPassword asks the server to email a reset code
func (c *BlogClient) ForgotPassword(ctx context.Context, email string) error {
	return c.call(ctx, c.httpClient, http.MethodPost, "/password/forgot-password", ob.ForgotPasswordRequest{Email: email}, nil)
}

func (c *BlogClient) ResetPassword(ctx context.Context, req ob.ResetPasswordRequest) error {
	return c.call(ctx, c.httpClient, http.MethodPost, "/password/reset-password", req, nil)
}

func (c *BlogClient) ListBlogs(ctx context.Context) ([]*ob.Blog, error) {
	var resp struct {
		Blogs []*ob.Blog `json:"blogs"`
	}
	if err := c.call(ctx, c.authClient, http.MethodGet, "/blogs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Blogs, nil
}

func (c *BlogClient) CreateBlog(ctx context.Context, req ob.CreateBlogRequest) (*ob.Blog, error) {
	var resp struct {
		Blog *ob.Blog `json:"blog"`
	}
	if err := c.call(ctx, c.authClient, http.MethodPost, "/blogs/create", req, &resp); err != nil {
		return nil, err
	}
	return resp.Blog, nil
}

// EditBlog applies the non-nil fields of update
func (c *BlogClient) EditBlog(ctx context.Context, blogID string, update ob.BlogUpdate) (*ob.Blog, error) {
	var resp struct {
		Blog *ob.Blog `json:"blog"`
	}
	path := "/blogs/edit/" + url.PathEscape(blogID)
	if err := c.call(ctx, c.authClient, http.MethodPatch, path, update, &resp); err != nil {
		return nil, err
	}
	return resp.Blog, nil
}

func (c *BlogClient) DeleteBlog(ctx context.Context, blogID string) error {
	return c.call(ctx, c.authClient, http.MethodDelete, "/blogs/delete/"+url.PathEscape(blogID), nil, nil)
}

// call sends body as JSON and decodes a 2xx answer into out
func (c *BlogClient) call(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &ResponseError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Code    string `json:"code"`
			Field   string `json:"field"`
		}
		if json.Unmarshal(data, &payload) == nil {
			rerr.Message = payload.Message
			rerr.Code = payload.Code
			rerr.Field = payload.Field
		}
		return rerr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response from server: %w", err)
	}
	return nil
}

// credentialTokenSource feeds the stored session token to oauth2.Transport.
// It reads the store on every request so logins and logouts apply at once.
type credentialTokenSource struct {
	client *BlogClient
}

func (s *credentialTokenSource) Token() (*oauth2.Token, error) {
	cred, err := s.client.GetCredential()
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.AccessToken == "" || cred.IsExpired() {
		return nil, ErrNotLoggedIn
	}
	return &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
		Expiry:      cred.ExpiresAt,
	}, nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client cannot verify server tokens; it only uses exp to stop sending a
// token the server would reject anyway.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
