package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/service"
	"github.com/and161185/stash/internal/store"
)

type stubAnnotator struct{ calls int }

func (s *stubAnnotator) Annotate(_ context.Context, url string) (model.Annotation, error) {
	s.calls++
	return model.Annotation{Title: "Title of " + url, Summary: "Short summary.", Tags: []string{"x", "y"}}, nil
}

type harness struct {
	t       *testing.T
	backend *store.Memory
	ann     *stubAnnotator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"STASH_API_KEY", "API_KEY", "STASH_BASE_URL", "STASH_MODEL", "STASH_STORE", "STASH_DSN"} {
		t.Setenv(k, "")
	}
	return &harness{t: t, backend: store.NewMemory(), ann: &stubAnnotator{}}
}

// run executes one CLI invocation against the shared backend.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root, done := NewRootCmd(BuildInfo{Version: "test"},
		WithBackend(h.backend),
		WithAnnotator(h.ann),
		WithLatency(service.Latency{}),
	)
	defer done()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--store", "memory"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_FullFlow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("signup", "--email", "a@x.com", "--password", "pw1")
	require.NoError(t, err)
	require.Contains(t, out, "a@x.com")

	out, err = h.run("whoami")
	require.NoError(t, err)
	require.Contains(t, out, "a@x.com")

	out, err = h.run("add", "https://example.com/first")
	require.NoError(t, err)
	require.Contains(t, out, "Title of https://example.com/first")
	require.Contains(t, out, "#x #y")

	_, err = h.run("add", "https://example.com/second")
	require.NoError(t, err)

	_, err = h.run("add", "https://example.com/first")
	require.ErrorIs(t, err, errs.ErrDuplicateLink)
	require.Equal(t, 2, h.ann.calls)

	out, err = h.run("list", "--json")
	require.NoError(t, err)
	var links []model.Link
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	require.Len(t, links, 2)
	require.Equal(t, "https://example.com/second", links[0].URL)
	require.Equal(t, "https://example.com/first", links[1].URL)

	_, err = h.run("rm", links[0].ID)
	require.NoError(t, err)

	out, err = h.run("list")
	require.NoError(t, err)
	require.Contains(t, out, "1 link(s)")
	require.Contains(t, out, "example.com")

	_, err = h.run("signout")
	require.NoError(t, err)
	_, err = h.run("list")
	require.ErrorIs(t, err, errs.ErrNotSignedIn)
}

func TestCLI_SignInAfterSignOut(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("signup", "-e", "a@x.com", "-p", "pw1")
	require.NoError(t, err)
	_, err = h.run("signout")
	require.NoError(t, err)

	_, err = h.run("signin", "-e", "a@x.com", "-p", "wrong")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, err = h.run("signin", "-e", "a@x.com", "-p", "pw1")
	require.NoError(t, err)
	out, err := h.run("whoami")
	require.NoError(t, err)
	require.Contains(t, out, "a@x.com")
}

func TestCLI_PasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	root, done := NewRootCmd(BuildInfo{}, WithBackend(h.backend), WithLatency(service.Latency{}))
	defer done()
	root.SetIn(strings.NewReader("pw1\n"))
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--store", "memory", "signup", "-e", "a@x.com", "-p", "-"})
	require.NoError(t, root.Execute())

	_, err := h.run("signin", "-e", "a@x.com", "-p", "pw1")
	require.NoError(t, err)
}

func TestCLI_ListEmpty(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("signup", "-e", "a@x.com", "-p", "pw1")
	require.NoError(t, err)

	out, err := h.run("list")
	require.NoError(t, err)
	require.Contains(t, out, "No links yet")

	out, err = h.run("list", "--json")
	require.NoError(t, err)
	require.JSONEq(t, "[]", out)
}

func TestCLI_AddRequiresSessionAndValidURL(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("add", "https://example.com")
	require.ErrorIs(t, err, errs.ErrNotSignedIn)

	_, err = h.run("signup", "-e", "a@x.com", "-p", "pw1")
	require.NoError(t, err)
	_, err = h.run("add", "not a url")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	require.Zero(t, h.ann.calls)
}

func TestCLI_AddWithoutAPIKey(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("signup", "-e", "a@x.com", "-p", "pw1")
	require.NoError(t, err)

	root, done := NewRootCmd(BuildInfo{}, WithBackend(h.backend), WithLatency(service.Latency{}))
	defer done()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--store", "memory", "add", "https://example.com"})
	err = root.Execute()
	require.ErrorIs(t, err, errs.ErrAnnotationUnavailable)
	require.Contains(t, err.Error(), "STASH_API_KEY")
}

func TestExecute_ExitCodeAndMessage(t *testing.T) {
	newHarness(t)
	var out, stderr bytes.Buffer

	code := Execute(context.Background(), BuildInfo{Version: "1.2.3"}, []string{"--store", "memory", "whoami"}, &out, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "not signed in")

	out.Reset()
	code = Execute(context.Background(), BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"}, []string{"version"}, &out, &stderr)
	require.Equal(t, 0, code)
	require.Equal(t, "stash 1.2.3 (commit: abc, built: today)\n", out.String())
}

func TestExecute_BadStoreDriver(t *testing.T) {
	newHarness(t)
	var stderr bytes.Buffer
	code := Execute(context.Background(), BuildInfo{}, []string{"--store", "redis", "whoami"}, &bytes.Buffer{}, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "unknown store driver")
}

func TestDescribe(t *testing.T) {
	require.Equal(t, "this link is already in your stash", describe(errs.ErrDuplicateLink))
	require.Equal(t, "invalid email or password", describe(errs.ErrInvalidCredentials))
	require.Equal(t, "boom", describe(errorString("boom")))
}

type errorString string

func (e errorString) Error() string { return string(e) }
