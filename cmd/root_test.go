package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/intel-cli/internal/config"
	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/internal/server"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"analyze", "score", "queries", "serve", "migrate", "cache", "token"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "intel-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "log-format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "root should have --%s flag", name)
	}
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n  format: json\nquery:\n  verbs: [acquires]\n"), 0o644))

	tests := []struct {
		name      string
		args      []string
		wantCode  int
		wantErr   string
		wantLevel string
	}{
		{
			name:      "flags override config file",
			args:      []string{"--config", path, "--log-level", "warn", "--log-format", "console", "queries", "Acme"},
			wantLevel: "warn",
		},
		{
			name:      "config file only",
			args:      []string{"--config", path, "queries", "Acme"},
			wantLevel: "info",
		},
		{
			name:     "missing config file",
			args:     []string{"--config", filepath.Join(dir, "missing.yaml"), "queries", "Acme"},
			wantCode: 1,
			wantErr:  "intel-cli: load config",
		},
		{
			name:     "bad log level",
			args:     []string{"--config", path, "--log-level", "loud", "queries", "Acme"},
			wantCode: 1,
			wantErr:  "init logger",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() {
				configPath, logLevel, logFormat = "", "", ""
				rootCmd.SetArgs(nil)
			})
			queriesCmd.SetOut(new(bytes.Buffer))

			var stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stderr)
			require.Equal(t, tt.wantCode, code, stderr.String())
			if tt.wantErr != "" {
				assert.Contains(t, stderr.String(), tt.wantErr)
				return
			}
			assert.Empty(t, stderr.String())
			assert.Equal(t, tt.wantLevel, cfg.Log.Level)
			assert.Equal(t, []string{"acquires"}, cfg.Query.Verbs)
		})
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"competitor", "refresh"} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), "analyze should have --%s flag", name)
	}
	assert.Error(t, analyzeCmd.Args(analyzeCmd, nil))
	assert.NoError(t, analyzeCmd.Args(analyzeCmd, []string{"Acme"}))
}

func TestScoreCommand_Flags(t *testing.T) {
	for _, name := range []string{"file", "company", "competitor", "all"} {
		assert.NotNil(t, scoreCmd.Flags().Lookup(name), "score should have --%s flag", name)
	}
}

func TestCacheCommand_HasPrune(t *testing.T) {
	var found bool
	for _, c := range cacheCmd.Commands() {
		if c.Name() == "prune" {
			found = true
		}
	}
	assert.True(t, found)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	c, err := config.Load()
	require.NoError(t, err)
	c.Store.DatabaseURL = filepath.Join(dir, "intel.db")
	return c
}

func TestScoreCommand_Stdin(t *testing.T) {
	cfg = testConfig(t)
	scoreCompany, scoreCompetitor, scoreFile, scoreAll = "Acme", "", "", false
	t.Cleanup(func() { scoreCompany = "" })

	results := []model.SearchResult{
		{Title: "Acme customers", URL: "https://acme.com/customers", Content: "Trusted by leading brands worldwide and more."},
		{
			Title:   "Acme to buy Globex",
			URL:     "https://www.reuters.com/business/2024/03/acme-acquires-globex-for-growth",
			Content: `On March 3, 2024, Acme agreed to acquire Globex for $2.1 billion. "This deal doubles our reach," Acme CEO Jane Doe said.`,
		},
	}
	body, err := json.Marshal(results)
	require.NoError(t, err)

	var out bytes.Buffer
	scoreCmd.SetIn(bytes.NewReader(body))
	scoreCmd.SetOut(&out)
	require.NoError(t, scoreCmd.RunE(scoreCmd, nil))

	var got []model.ScoredResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].URL, "reuters.com")
}

func TestScoreCommand_RequiresCompany(t *testing.T) {
	cfg = testConfig(t)
	scoreCompany = ""
	assert.Error(t, scoreCmd.RunE(scoreCmd, nil))
}

func TestQueriesCommand(t *testing.T) {
	cfg = testConfig(t)
	queriesCompetitor, queriesLeadership = "Globex", false

	var out bytes.Buffer
	queriesCmd.SetOut(&out)
	require.NoError(t, queriesCmd.RunE(queriesCmd, []string{"Acme"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.NotEmpty(t, lines)
	assert.Contains(t, out.String(), "Acme")
}

func TestMigrateAndPrune_SQLite(t *testing.T) {
	cfg = testConfig(t)
	migrateCmd.SetContext(context.Background())
	require.NoError(t, migrateCmd.RunE(migrateCmd, nil))

	var out bytes.Buffer
	cachePruneCmd.SetContext(context.Background())
	cachePruneCmd.SetOut(&out)
	require.NoError(t, cachePruneCmd.RunE(cachePruneCmd, nil))
	assert.Equal(t, "deleted 0 expired reports\n", out.String())
}

func TestTokenCommand(t *testing.T) {
	cfg = testConfig(t)
	cfg.Auth.JWTSecret = "cli-secret"
	tokenTTL = time.Hour

	var out bytes.Buffer
	tokenCmd.SetOut(&out)
	require.NoError(t, tokenCmd.RunE(tokenCmd, []string{"u-1"}))

	auth, err := server.NewAuthenticator("cli-secret", "")
	require.NoError(t, err)
	claims, err := auth.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "mysql"
	_, err := initStore(context.Background(), c)
	assert.Error(t, err)
}

func TestInitProviders(t *testing.T) {
	c := testConfig(t)
	c.Jina.Key = ""
	c.GoogleNews.Enabled = true
	providers, reader := initProviders(c)
	require.Len(t, providers, 1)
	assert.Equal(t, "googlenews", providers[0].Name())
	assert.Nil(t, reader)

	c.Jina.Key = "jina-key"
	providers, reader = initProviders(c)
	assert.Len(t, providers, 2)
	assert.NotNil(t, reader)
}

func TestInitSummarizer(t *testing.T) {
	c := testConfig(t)
	c.Server.Summarizer = "none"
	assert.Nil(t, initSummarizer(c))

	c.Server.Summarizer = "anthropic"
	assert.NotNil(t, initSummarizer(c))

	c.Server.Summarizer = "perplexity"
	assert.NotNil(t, initSummarizer(c))
}

func TestCeid(t *testing.T) {
	assert.Equal(t, "US:en", ceid("en-US", "US"))
	assert.Equal(t, "GB:en", ceid("en-GB", "GB"))
	assert.Equal(t, "DE:de", ceid("de", "DE"))
}
