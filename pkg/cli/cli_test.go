package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flashfusion/forge/pkg/cli"
	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/usecase/analytics"
	"github.com/m-mizutani/gt"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	argv := append([]string{"forge", "--log-level", "error"}, args...)
	gt.NoError(t, cli.RunForTest(context.Background(), argv, &buf))
	return buf.String()
}

func TestGenerateAndHistory(t *testing.T) {
	dir := t.TempDir()
	store := []string{"--store", "file", "--data-dir", dir}

	out := runCLI(t, append([]string{"generate", "--type", "content-pack", "--prompt", "spring launch", "--step-delay", "0s"}, store...)...)
	gt.S(t, out).Contains("Spring Launch Content Pack")
	id := strings.Fields(out)[0]
	gt.True(t, strings.HasPrefix(id, "gen_"))

	out = runCLI(t, append([]string{"history"}, append(store, "list")...)...)
	gt.S(t, out).Contains(id)
	gt.S(t, out).Contains("content-pack")

	out = runCLI(t, append([]string{"history"}, append(store, "favorite", id)...)...)
	gt.S(t, out).Contains("favorite=true")

	out = runCLI(t, append([]string{"history"}, append(store, "list", "--favorites")...)...)
	gt.S(t, out).Contains("* " + id)

	out = runCLI(t, append([]string{"history"}, append(store, "remove", id)...)...)
	gt.S(t, out).Contains("removed")

	out = runCLI(t, append([]string{"history"}, append(store, "list")...)...)
	gt.S(t, out).Contains("No generations found")
}

func TestGenerateRequiresPrompt(t *testing.T) {
	var buf bytes.Buffer
	err := cli.RunForTest(context.Background(),
		[]string{"forge", "--log-level", "error", "generate", "--store", "memory"}, &buf)
	gt.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	project := model.ExportableProject{
		Name:  "Recipe Hub",
		Files: []*model.ProjectFile{{Path: "/src/main.ts", Content: "console.log(1)"}},
	}
	data, err := json.Marshal(project)
	gt.NoError(t, err)
	input := filepath.Join(dir, "project.json")
	gt.NoError(t, os.WriteFile(input, data, 0o644))

	outDir := filepath.Join(dir, "out")
	out := runCLI(t, "export", "--input", input, "--output-dir", outDir)
	gt.S(t, out).Contains("Recipe-Hub.zip")

	_, err = os.Stat(filepath.Join(outDir, "Recipe-Hub.zip"))
	gt.NoError(t, err)
}

func TestAnalyticsJSON(t *testing.T) {
	out := runCLI(t, "analytics", "--subject", "alice", "--range", "30d", "--json")

	var resp analytics.Response
	gt.NoError(t, json.Unmarshal([]byte(out), &resp))
	gt.Equal(t, resp.Data.SubjectID, "alice")
	gt.Equal(t, resp.Data.TimeRange, "30d")
	gt.A(t, resp.Data.Activity).Length(30)
}

func TestAnalyticsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("max_tools: 2\ntime_range: 90d\n"), 0o644))

	out := runCLI(t, "analytics", "--subject", "bob", "--analytics-config", path, "--json")
	var resp analytics.Response
	gt.NoError(t, json.Unmarshal([]byte(out), &resp))
	gt.A(t, resp.Data.Tools).Length(2)
	gt.Equal(t, resp.Data.TimeRange, "90d")

	t.Run("flag overrides file", func(t *testing.T) {
		out := runCLI(t, "analytics", "--subject", "bob", "--analytics-config", path, "--range", "7d", "--json")
		var resp analytics.Response
		gt.NoError(t, json.Unmarshal([]byte(out), &resp))
		gt.Equal(t, resp.Data.TimeRange, "7d")
		gt.A(t, resp.Data.Tools).Length(2)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		var buf bytes.Buffer
		err := cli.RunForTest(context.Background(), []string{
			"forge", "--log-level", "error", "analytics", "--subject", "bob", "--refresh-interval", "1s",
		}, &buf)
		gt.Error(t, err)
	})
}

func TestROI(t *testing.T) {
	out := runCLI(t, "roi", "--reach", "10000", "--engagement", "5", "--budget", "1000")
	gt.S(t, out).Contains("profit  1500.00")
	gt.S(t, out).Contains("roi     150.0%")
}
