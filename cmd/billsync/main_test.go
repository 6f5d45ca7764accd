package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/billsync/internal/config"
	"github.com/hyperjump/billsync/internal/models"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"state budget", "-session", "2021"},
			expected: []string{"-session", "2021", "state budget"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-session", "2021", "state budget"},
			expected: []string{"-session", "2021", "state budget"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"state budget"},
			expected: []string{"state budget"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"state", "budget", "-limit", "5"},
			expected: []string{"-limit", "5", "state", "budget"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"budget"}, "budget"},
		{"multiple words", []string{"state", "budget"}, "state budget"},
		{"single quoted phrase", []string{"state budget"}, "state budget"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestSearchParamsValues(t *testing.T) {
	p := searchParams{Term: "state budget", Session: 2022, Sort: "printNo:ASC", Limit: 5, Full: true}
	got := p.values().Encode()
	want := "full=true&limit=5&session=2022&sort=printNo%3AASC&term=state+budget"
	if got != want {
		t.Errorf("values() = %q, want %q", got, want)
	}
	if lo := p.limitOffset(); lo == nil || lo.Limit != 5 || lo.Offset != 0 {
		t.Errorf("limitOffset() = %+v", lo)
	}
	if lo := (searchParams{Term: "x"}).limitOffset(); lo != nil {
		t.Errorf("limitOffset() without paging = %+v, want nil", lo)
	}
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"OFF", false, false},
		{"enabled", true, false},
		{"true", true, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := parseSwitch(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSwitch(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSwitch(%q) = %t, want %t", tt.in, got, tt.want)
		}
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./data/bills.db"
  index_path: "./data/bills.bleve"
indexing:
  rebuild_batch_size: 50
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir)

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.IndexPath != filepath.Join(dir, "data", "bills.bleve") {
		t.Errorf("index path = %s", cfg.Storage.IndexPath)
	}
}

func TestSetIndexingSwitch(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir)

	if err := setIndexingSwitch(configPath, false); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Indexing.EnabledOrDefault() {
		t.Error("indexing should be disabled after switching off")
	}
	if cfg.Indexing.RebuildBatchSize != 50 {
		t.Errorf("other settings should survive, batch size = %d", cfg.Indexing.RebuildBatchSize)
	}
}

func TestReadBillsFile(t *testing.T) {
	dir := t.TempDir()
	batch := filepath.Join(dir, "batch.json")
	if err := os.WriteFile(batch, []byte(`{"bills": [{"id": {"print_no": "s1", "session": 2022}, "title": "one"}]}`), 0600); err != nil {
		t.Fatal(err)
	}
	bills, err := readBillsFile(batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(bills) != 1 || bills[0].ID != models.NewBaseBillID("S1", 2021) {
		t.Errorf("bills = %+v", bills)
	}

	single := filepath.Join(dir, "single.json")
	if err := os.WriteFile(single, []byte(`{"id": {"print_no": "A2", "session": 2019}, "title": "two"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if bills, err = readBillsFile(single); err != nil || len(bills) != 1 || bills[0].Title != "two" {
		t.Errorf("single bill: %+v, %v", bills, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"title": "no id"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := readBillsFile(bad); err == nil {
		t.Error("expected error for bill without id")
	}
}

func TestCallAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"method": r.Method})
		default:
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rebuild already in progress"})
		}
	}))
	defer srv.Close()

	var out struct {
		Method string `json:"method"`
	}
	if err := callAPI(http.MethodPost, srv.URL+"/", "/ok", []byte(`{}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.Method != http.MethodPost {
		t.Errorf("method = %q", out.Method)
	}

	err := callAPI(http.MethodPost, srv.URL, "/busy", nil, nil)
	if err == nil || err.Error() != "server returned 409: rebuild already in progress" {
		t.Errorf("error = %v", err)
	}
}

func TestInitializeComponents_DirectMode(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := loadConfig(writeConfig(t, dir))
	if err != nil {
		t.Fatal(err)
	}
	components, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	bills := []*models.Bill{
		{ID: models.NewBaseBillID("S1", 2021), Title: "budget", Amendments: []models.BillAmendment{{Published: true}}},
		{ID: models.NewBaseBillID("S2", 2021), Title: "draft budget", Amendments: []models.BillAmendment{{Published: false}}},
	}
	if err := components.Store.PutBills(ctx, bills); err != nil {
		t.Fatal(err)
	}
	report, err := components.Service.RebuildIndex(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Indexed != 1 || report.Deleted != 1 {
		t.Errorf("report = %+v", report)
	}
	res, err := searchParams{Term: "budget", Session: 2021, Full: true}.run(ctx, components.Service)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Results[0].Bill == nil || res.Results[0].Bill.Title != "budget" {
		t.Errorf("results = %+v", res)
	}

	if _, err := os.Stat(cfg.Storage.RebuildLockPath()); err != nil {
		t.Errorf("rebuild lock file should exist next to the index: %v", err)
	}

	reloaded := filepath.Join(dir, "config.yaml")
	if err := setIndexingSwitch(reloaded, false); err != nil {
		t.Fatal(err)
	}
	reloadIndexingSwitch(reloaded, components.Service, zap.NewNop())
	if components.Service.IndexingEnabled() {
		t.Error("reload should apply the persisted indexing switch")
	}

	if err := components.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
