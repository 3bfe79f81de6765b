package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"near.org/web/internal/components"
	"near.org/web/internal/platform/config"
	"near.org/web/internal/routing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRoutesPrintsEffectiveTable(t *testing.T) {
	out, err := execute(t, "routes")
	require.NoError(t, err)

	table, err := routing.DecodeTable(bytes.NewBufferString(out))
	require.NoError(t, err)
	require.Len(t, table.Redirects, 12)
	require.Len(t, table.Rewrites, 1)
	require.Equal(t, routing.AnalyticsRewriteSource, table.Rewrites[0].Source)
}

func TestRoutesLintDefaultTableIsClean(t *testing.T) {
	out, err := execute(t, "routes", "lint", "--strict")
	require.NoError(t, err)
	require.Equal(t, "ok: 12 redirects, 1 rewrites, 1 header rules\n", out)
}

func TestRoutesLintFailsOnLoop(t *testing.T) {
	path := writeFile(t, t.TempDir(), "routes.yaml", `
redirects:
  - source: /a
    destination: /b
  - source: /b
    destination: /a
`)
	out, err := execute(t, "routes", "lint", "--file", path)
	require.Error(t, err)
	require.Contains(t, out, "redirect loop through redirects[0] -> redirects[1]")
}

func TestRoutesLintWarningsPassUnlessStrict(t *testing.T) {
	path := writeFile(t, t.TempDir(), "routes.yaml", `
redirects:
  - source: /a
    destination: /b
  - source: /b
    destination: https://example.com
`)
	out, err := execute(t, "routes", "lint", "--file", path)
	require.NoError(t, err)
	require.Contains(t, out, "warning: redirects[0]: redirect chain")

	_, err = execute(t, "routes", "lint", "--file", path, "--strict")
	require.Error(t, err)
}

func TestNewAppWiresRegistryFileAndContent(t *testing.T) {
	dir := t.TempDir()
	registryFile := writeFile(t, dir, "components.yaml", `
mainnet:
  nearOrg.papersPage: example.near/widget/Papers
`)
	cfg, err := config.Load(
		config.WithoutSystemEnv(),
		config.WithEnvFile(""),
		config.WithEnvMap(map[string]string{
			"NEAR_WEB_COMPONENTS_FILE": registryFile,
			"NEAR_WEB_CONTENT_DIR":     "../../content",
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a, err := newApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close(context.Background()) })

	ts := httptest.NewServer(a.server.Handler)
	t.Cleanup(ts.Close)

	viewerSrc := func(path string) string {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		require.NoError(t, err)
		src, _ := doc.Find("near-social-viewer").Attr("src")
		return src
	}
	require.Equal(t, "example.near/widget/Papers", viewerSrc("/papers"))
	require.Equal(t, "near/widget/NearOrg.HomePage", viewerSrc("/"))

	resp, err := http.Get(ts.URL + "/papers/the-official-near-white-paper")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	writeFile(t, dir, "components.yaml", `
mainnet:
  nearOrg.papersPage: example.near/widget/PapersV2
`)
	require.Eventually(t, func() bool {
		src, _ := a.registry.Lookup(components.PapersPage)
		return src == "example.near/widget/PapersV2"
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return promtestutil.ToFloat64(a.metrics.ComponentReloadsTotal) >= 1
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, float64(len(components.DefaultEntries()[components.Mainnet])), promtestutil.ToFloat64(a.metrics.ComponentEntries))
}
