package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/spares-console/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUpstream(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// setup points the CLI at a fake marketplace API and a file backed session folder.
func setup(t *testing.T) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			writeUpstream(w, http.StatusUnprocessableEntity, `{"message":"Invalid credentials"}`)
			return
		}
		writeUpstream(w, http.StatusOK, `{"data":{"token":"tok-1"}}`)
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeUpstream(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
			return
		}
		writeUpstream(w, http.StatusOK, `{"data":{
			"user":{"id":1,"name":"Ada","email":"ada@example.com","roles":[{"name":"admin"}],"permissions":[{"name":"parts.view"}]},
			"organisation":[
				{"organisation_id":8,"role":"member","organisation_name":"Beta"},
				{"organisation_id":7,"role":"owner","organisation_name":"Acme"}
			]}}`)
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	t.Setenv("API_URL", upstream.URL)
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("FOLDER", t.TempDir())
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cmd.NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func login(t *testing.T) {
	t.Helper()
	out, errOut, err := run(t, "secret\n", "login", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as Ada\n", out)
	assert.Contains(t, errOut, "Welcome back, Ada!")
}

func TestLogin_PersistsAcrossCommands(t *testing.T) {
	setup(t)
	login(t)

	out, _, err := run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:         Ada")
	assert.Contains(t, out, "Email:        ada@example.com")
	assert.Contains(t, out, "Organisation: Acme (7)")
	assert.Contains(t, out, "Roles:        admin")
	assert.Contains(t, out, "Permissions:  parts.view")
	assert.NotContains(t, out, "Token expiry")
}

func TestLogin_WrongPassword(t *testing.T) {
	setup(t)

	_, errOut, err := run(t, "", "login", "-e", "ada@example.com", "-p", "nope")
	require.Error(t, err)
	assert.Contains(t, errOut, "Login failed")
	assert.Contains(t, errOut, "Invalid credentials")

	_, _, err = run(t, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestLogin_RequiresEmail(t *testing.T) {
	setup(t)

	_, _, err := run(t, "", "login", "-p", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestCheck(t *testing.T) {
	setup(t)

	out, errOut, err := run(t, "", "check", "/parts")
	require.NoError(t, err)
	assert.Equal(t, "redirect /parts (Parts) -> /unauthorized: unauthenticated\n", out)
	assert.Contains(t, errOut, "Please login to access this page")

	login(t)
	out, _, err = run(t, "", "check", "/parts")
	require.NoError(t, err)
	assert.Equal(t, "allow /parts (Parts)\n", out)

	_, _, err = run(t, "", "check")
	require.Error(t, err)
}

func TestCheck_RouteManifest(t *testing.T) {
	setup(t)
	manifest := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`routes:
  - name: Parts
    path: /parts
    meta:
      requiresAuth: true
      requiresPermission: parts.delete
  - name: Categories
    path: /part-categories
    meta:
      requiresAuth: true
      requiresRole: [admin, risk_manager]
`), 0o600))
	t.Setenv("ROUTES_FILE", manifest)
	login(t)

	out, errOut, err := run(t, "", "check", "/parts")
	require.NoError(t, err)
	assert.Equal(t, "redirect /parts (Parts) -> /not-found: missing_permission\n", out)
	assert.Contains(t, errOut, "Cannot Find Page")

	out, _, err = run(t, "", "check", "/part-categories")
	require.NoError(t, err)
	assert.Equal(t, "allow /part-categories (Categories)\n", out)
}

func TestSwitchOrg(t *testing.T) {
	setup(t)
	login(t)

	out, errOut, err := run(t, "", "switch-org", "8")
	require.NoError(t, err)
	assert.Equal(t, "Current organisation: Beta (8)\n", out)
	assert.Contains(t, errOut, "Now viewing Beta")

	_, _, err = run(t, "", "switch-org", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a member of organisation 99")
}

func TestLogout(t *testing.T) {
	setup(t)
	login(t)

	out, errOut, err := run(t, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)
	assert.Contains(t, errOut, "Logged out successfully!")

	out, _, err = run(t, "", "check", "/dashboard")
	require.NoError(t, err)
	assert.Equal(t, "redirect /dashboard (Dashboard) -> /unauthorized: unauthenticated\n", out)
}
