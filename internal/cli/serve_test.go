package cli

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/proullon/ramsql/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formcollect/internal/config"
	"github.com/goliatone/go-formcollect/pkg/formdef"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/sink"
	"github.com/goliatone/go-formcollect/pkg/testsupport"
)

func newTestApp(t *testing.T, deps Deps) *app {
	t.Helper()
	return &app{deps: deps, cfg: config.Default(), lggr: logger.Test(t)}
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func TestNewServer_ServesFormAssetsAndHealth(t *testing.T) {
	mem := sink.NewMemory()
	a := newTestApp(t, Deps{Sink: mem})

	srv, cleanup, err := a.newServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	assert.Equal(t, ":8383", srv.Addr)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	res, err := http.Get(ts.URL + "/signup")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `href="/assets/signup.css"`)
	assert.Contains(t, string(body), `data-variant="light"`)

	res, err = http.Get(ts.URL + "/assets/signup.css")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = noRedirectClient().PostForm(ts.URL+"/signup", testsupport.SignupValues(testsupport.Password))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.True(t, strings.HasPrefix(res.Header.Get("Location"), "/signup?submitted=sub_"))
	assert.Equal(t, 1, mem.Len())
}

func TestBuildSink_SQLStoresSubmissions(t *testing.T) {
	cfg := config.Default()
	cfg.Sink.Kinds = []string{config.SinkLog, config.SinkSQL}
	cfg.Sink.SQL.Driver = "ramsql"
	cfg.Sink.SQL.DSN = t.Name()
	cfg.Sink.SQL.Table = "cli_submissions"

	ctx := context.Background()
	def := formdef.Default()
	target, closeFn, err := buildSink(ctx, cfg, def, logger.Test(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, closeFn()) })

	require.NoError(t, target.Deliver(ctx, sink.Submission{
		ID:     sink.NewID(),
		Form:   def.ID,
		Record: def.Collect(nil),
	}))

	db, err := sql.Open("ramsql", t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := sink.NewSQL(db, "cli_submissions", nil)
	require.NoError(t, err)

	stored, err := store.ByForm(ctx, def.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestBuildSink_HTTPRequiresURL(t *testing.T) {
	cfg := config.Default()
	cfg.Sink.Kinds = []string{config.SinkHTTP}

	_, closeFn, err := buildSink(context.Background(), cfg, formdef.Default(), logger.Test(t))
	require.ErrorContains(t, err, "http target url is required")
	require.NoError(t, closeFn())
}

const twoForms = `
forms:
  signup:
    fields:
      - name: email
        type: email
  waitlist:
    title: Waitlist
    fields:
      - name: email
        type: email
        required: true
`

func TestLoadDefinition(t *testing.T) {
	ctx := context.Background()

	def, err := loadDefinition(ctx, config.FormConfig{})
	require.NoError(t, err)
	assert.Equal(t, formdef.SignupFormID, def.ID)

	path := filepath.Join(t.TempDir(), "forms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoForms), 0o600))

	_, err = loadDefinition(ctx, config.FormConfig{DefinitionFile: path})
	require.ErrorContains(t, err, "form.form_id is required")

	def, err = loadDefinition(ctx, config.FormConfig{DefinitionFile: path, FormID: "waitlist"})
	require.NoError(t, err)
	assert.Equal(t, "Waitlist", def.Title)
	assert.Equal(t, []string{"email"}, def.Order())

	_, err = loadDefinition(ctx, config.FormConfig{DefinitionFile: path, FormID: "missing"})
	require.ErrorContains(t, err, `form "missing" not found`)

	_, err = loadDefinition(ctx, config.FormConfig{OpenAPIFile: filepath.Join(t.TempDir(), "nope.yaml"), OperationID: "x"})
	require.ErrorContains(t, err, "read openapi")
}

func TestLoadDefinition_AppliesOverlay(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	overlay := "forms:\n  signup:\n    title: Join us\n    fields:\n      email:\n        label: Work email\n"
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))

	def, err := loadDefinition(ctx, config.FormConfig{FormID: formdef.SignupFormID, OverlayFile: path})
	require.NoError(t, err)
	assert.Equal(t, "Join us", def.Title)
	email, ok := def.Field("email")
	require.True(t, ok)
	assert.Equal(t, "Work email", email.Label)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("forms:\n  signup:\n    order: [nickname]\n"), 0o600))
	_, err = loadDefinition(ctx, config.FormConfig{FormID: formdef.SignupFormID, OverlayFile: bad})
	require.ErrorContains(t, err, "unknown field")
}
