package oneblog_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	ob "github.com/panyam/oneblog"
	"github.com/panyam/oneblog/stores"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	*ob.OneBlog
	sender *recordingSender
	server *httptest.Server
}

// setupTestApp starts the full HTTP app over FS stores in a temp dir
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	sender := newRecordingSender()

	app := ob.New("OneBlogTest")
	app.Users = stores.NewFSUserStore(dir)
	app.Blogs = stores.NewFSBlogStore(dir)
	app.OTCs = stores.NewFSOTCStore(dir)
	app.JWTSecretKey = "test-secret"
	app.Hasher = &ob.BcryptHasher{Cost: bcrypt.MinCost}
	app.Email = sender
	app.AllowedOrigins = []string{"https://blog.example.com"}
	if err := app.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	server := httptest.NewServer(app.Handler())
	t.Cleanup(server.Close)
	return &testApp{OneBlog: app, sender: sender, server: server}
}

type apiResponse struct {
	status int
	body   map[string]any
}

func (r apiResponse) str(key string) string {
	s, _ := r.body[key].(string)
	return s
}

// call sends a JSON request, optionally with a bearer token
func (a *testApp) call(t *testing.T, method, path, token string, body any) apiResponse {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rdr = strings.NewReader(string(data))
	}
	req, _ := http.NewRequest(method, a.server.URL+path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := apiResponse{status: resp.StatusCode, body: map[string]any{}}
	json.NewDecoder(resp.Body).Decode(&out.body)
	return out
}

func (a *testApp) signupAndLogin(t *testing.T, name, email, password string) string {
	t.Helper()
	if r := a.call(t, "POST", "/signup", "", map[string]string{"name": name, "email": email, "password": password}); r.status != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %v", r.status, r.body)
	}
	r := a.call(t, "POST", "/login", "", map[string]string{"email": email, "password": password})
	if r.status != http.StatusOK || r.str("token") == "" {
		t.Fatalf("login status = %d, body = %v", r.status, r.body)
	}
	return r.str("token")
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)
	r := app.call(t, "GET", "/health", "", nil)
	if r.status != http.StatusOK || r.str("message") != "Api is working" {
		t.Errorf("health = %d %v", r.status, r.body)
	}
}

func TestSignupHandler(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedMsg    string
	}{
		{"successful signup", map[string]string{"name": "A", "email": "a@x.com", "password": "p1"}, http.StatusCreated, "Signup successful"},
		{"duplicate email", map[string]string{"name": "B", "email": "a@x.com", "password": "p2"}, http.StatusConflict, ob.MsgUserExists},
		{"missing name", map[string]string{"email": "c@x.com", "password": "p"}, http.StatusBadRequest, ob.MsgAllFieldsRequired},
		{"missing password", map[string]string{"name": "C", "email": "c@x.com"}, http.StatusBadRequest, ob.MsgAllFieldsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := app.call(t, "POST", "/signup", "", tt.body)
			if r.status != tt.expectedStatus {
				t.Errorf("status = %d, want %d", r.status, tt.expectedStatus)
			}
			if r.str("message") != tt.expectedMsg {
				t.Errorf("message = %q, want %q", r.str("message"), tt.expectedMsg)
			}
		})
	}
}

func TestSignupHandler_FormEncoded(t *testing.T) {
	app := setupTestApp(t)
	form := url.Values{"name": {"F"}, "email": {"f@x.com"}, "password": {"pw"}}
	resp, err := http.PostForm(app.server.URL+"/signup", form)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestSignupHandler_BadBody(t *testing.T) {
	app := setupTestApp(t)
	resp, err := http.Post(app.server.URL+"/signup", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLoginHandler(t *testing.T) {
	app := setupTestApp(t)
	app.call(t, "POST", "/signup", "", map[string]string{"name": "A", "email": "a@x.com", "password": "p1"})

	r := app.call(t, "POST", "/login", "", map[string]string{"email": "a@x.com", "password": "p1"})
	if r.status != http.StatusOK {
		t.Fatalf("status = %d", r.status)
	}
	if r.str("message") != "Login successful" || r.str("token") == "" {
		t.Errorf("body = %v", r.body)
	}

	wrong := app.call(t, "POST", "/login", "", map[string]string{"email": "a@x.com", "password": "bad"})
	unknown := app.call(t, "POST", "/login", "", map[string]string{"email": "z@x.com", "password": "p1"})
	for _, r := range []apiResponse{wrong, unknown} {
		if r.status != http.StatusUnauthorized || r.str("message") != ob.MsgInvalidCredentials {
			t.Errorf("got %d %v, want 401 %q", r.status, r.body, ob.MsgInvalidCredentials)
		}
	}

	missing := app.call(t, "POST", "/login", "", map[string]string{"email": "a@x.com"})
	if missing.status != http.StatusBadRequest || missing.str("message") != ob.MsgEmailPasswordRequired {
		t.Errorf("got %d %v", missing.status, missing.body)
	}
	if missing.str("code") != string(ob.KindValidation) || missing.str("field") != "password" {
		t.Errorf("error code/field = %q/%q", missing.str("code"), missing.str("field"))
	}
}

func TestProtectedRoutes_Unauthenticated(t *testing.T) {
	app := setupTestApp(t)

	r := app.call(t, "GET", "/blogs", "", nil)
	if r.status != http.StatusUnauthorized || r.str("message") != ob.MsgLoginRequired {
		t.Errorf("no token: %d %v", r.status, r.body)
	}

	r = app.call(t, "GET", "/blogs", "garbage", nil)
	if r.status != http.StatusUnauthorized || r.str("message") != ob.MsgInvalidToken {
		t.Errorf("bad token: %d %v", r.status, r.body)
	}

	req, _ := http.NewRequest("GET", app.server.URL+"/blogs", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("non-bearer scheme: %d", resp.StatusCode)
	}
}

func TestSessionCookieLogin(t *testing.T) {
	app := setupTestApp(t)
	app.call(t, "POST", "/signup", "", map[string]string{"name": "A", "email": "a@x.com", "password": "p1"})

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}
	resp, err := client.Post(app.server.URL+"/login", "application/json", strings.NewReader(`{"email":"a@x.com","password":"p1"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, _ = client.Get(app.server.URL + "/blogs")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cookie session: status = %d, want 200", resp.StatusCode)
	}

	resp, _ = client.Post(app.server.URL+"/logout", "application/json", nil)
	resp.Body.Close()
	resp, _ = client.Get(app.server.URL + "/blogs")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("after logout: status = %d, want 401", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	app := setupTestApp(t)

	for _, origin := range []string{ob.DevFrontendOrigin, "https://blog.example.com"} {
		req, _ := http.NewRequest(http.MethodOptions, app.server.URL+"/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("preflight status = %d", resp.StatusCode)
		}
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("Allow-Origin = %q, want %q", got, origin)
		}
		if resp.Header.Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("credentials not allowed")
		}
	}

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin was allowed")
	}
}
