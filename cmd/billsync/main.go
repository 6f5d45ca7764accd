// Package main is the billsync CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hyperjump/billsync/internal/billsearch"
	"github.com/hyperjump/billsync/internal/cli"
	"github.com/hyperjump/billsync/internal/config"
	"github.com/hyperjump/billsync/internal/eventbus"
	"github.com/hyperjump/billsync/internal/index"
	"github.com/hyperjump/billsync/internal/metrics"
	"github.com/hyperjump/billsync/internal/models"
	"github.com/hyperjump/billsync/internal/server"
	"github.com/hyperjump/billsync/internal/storage"
	"github.com/hyperjump/billsync/internal/watcher"
	"github.com/hyperjump/billsync/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/billsync/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if it exists, so running from a project checkout uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "rebuild":
		runRebuild()
	case "clear":
		runClear()
	case "status":
		runStatus()
	case "indexing":
		runIndexing()
	case "version", "--version", "-v":
		fmt.Printf("billsync version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Bool("indexing_enabled", cfg.Indexing.EnabledOrDefault()),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("closing components failed", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	components.Service.Start(ctx)
	defer components.Service.Stop()

	svc := components.Service
	configWatcher := watcher.NewWatcher(resolvedConfigPath, func(path string) {
		reloadIndexingSwitch(path, svc, logger)
	}, watcher.WithLogger(utils.NewNamedLogger(logger, "config-watcher")))
	if err := configWatcher.Start(ctx); err != nil {
		logger.Warn("config watcher not started; indexing switch changes need a restart", zap.Error(err))
	} else {
		defer configWatcher.Stop()
	}

	if cfg.Indexing.RebuildOnStart {
		env := components.Bus.Publish(eventbus.RebuildIndexEvent{Indexes: []eventbus.SearchIndex{eventbus.IndexBill}})
		logger.Info("rebuild on start requested", zap.String("event_id", env.ID.String()))
	}

	srv := server.NewServer(components.Service, components.Store, components.Bus, components.Metrics, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// reloadIndexingSwitch re-reads the config file and applies its indexing switch to svc.
// Other settings need a restart.
func reloadIndexingSwitch(path string, svc *billsearch.Service, logger *zap.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	enabled := cfg.Indexing.EnabledOrDefault()
	if enabled == svc.IndexingEnabled() {
		return
	}
	svc.SetIndexingEnabled(enabled)
	logger.Info("indexing switch reloaded", zap.Bool("enabled", enabled))
}

// Components holds initialized services.
type Components struct {
	Store   *storage.SQLiteStorage
	Index   *index.BleveIndex
	Bus     *eventbus.Bus
	Metrics *metrics.Metrics
	Service *billsearch.Service
}

// Close releases the bus, the index and the store, returning every failure.
func (c *Components) Close() error {
	if c.Bus != nil {
		c.Bus.Close()
	}
	var err error
	if c.Index != nil {
		err = multierr.Append(err, c.Index.Close())
	}
	if c.Store != nil {
		err = multierr.Append(err, c.Store.Close())
	}
	return err
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	for _, p := range []string{cfg.Storage.DatabasePath, cfg.Storage.IndexPath} {
		if p == "" || p == ":memory:" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath, storage.WithCacheSize(cfg.Storage.RecordCacheSize))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	idx, err := index.NewBleveIndex(cfg.Storage.IndexPath, index.WithLogger(utils.NewNamedLogger(logger, "index")))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	bus := eventbus.New(eventbus.WithLogger(utils.NewNamedLogger(logger, "eventbus")))
	m := metrics.New()

	svc := billsearch.NewService(store, idx, bus,
		billsearch.WithLogger(utils.NewNamedLogger(logger, "billsearch")),
		billsearch.WithMetrics(m),
		billsearch.WithBatchSize(cfg.Indexing.RebuildBatchSize),
		billsearch.WithFetchWorkers(cfg.Indexing.FetchWorkers),
		billsearch.WithSearchLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		billsearch.WithRebuildLock(cfg.Storage.RebuildLockPath()),
		billsearch.WithIndexingEnabled(cfg.Indexing.EnabledOrDefault()),
	)

	return &Components{
		Store:   store,
		Index:   idx,
		Bus:     bus,
		Metrics: m,
		Service: svc,
	}, nil
}

// openDirect loads config and opens the stores in-process, for commands run without a server.
func openDirect(configPath string) (*Components, *config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return components, cfg, logger
}

func closeDirect(components *Components, logger *zap.Logger) {
	if err := components.Close(); err != nil {
		logger.Warn("closing components failed", zap.Error(err))
	}
	_ = logger.Sync()
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: billsync search [flags] [query]\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Without a query, --session lists a whole session.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Queries use the query-string syntax: bare terms, "phrases", field:value, +required, -excluded.
Sort fields: session, printNo, status, version, publishedAt, _score, _id (append :ASC or :DESC).

Examples:
  billsync search budget
  billsync search --session 2021 state budget
  billsync search --session 2021 --sort printNo:ASC --limit 50
  billsync search --full --output json "title:budget"
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. The flag package stops at
// the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// searchParams is a parsed search command.
type searchParams struct {
	Term    string
	Session int
	Sort    string
	Limit   int
	Offset  int
	Full    bool
}

// values encodes p as query parameters of GET /api/v1/bills/search. Zero fields are omitted.
func (p searchParams) values() url.Values {
	v := url.Values{}
	if p.Term != "" {
		v.Set("term", p.Term)
	}
	if p.Session > 0 {
		v.Set("session", strconv.Itoa(p.Session))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Full {
		v.Set("full", "true")
	}
	return v
}

func (p searchParams) limitOffset() *models.LimitOffset {
	if p.Limit <= 0 && p.Offset <= 0 {
		return nil
	}
	return &models.LimitOffset{Limit: p.Limit, Offset: p.Offset}
}

// run dispatches p to the matching search operation.
func (p searchParams) run(ctx context.Context, svc *billsearch.Service) (*models.SearchResults, error) {
	limOff := p.limitOffset()
	var (
		res *models.SearchResults
		err error
	)
	switch {
	case p.Term == "":
		res, err = svc.SearchBySession(ctx, models.NewSessionYear(p.Session), p.Sort, limOff)
	case p.Session <= 0:
		res, err = svc.SearchByText(ctx, p.Term, p.Sort, limOff)
	default:
		res, err = svc.SearchByTextAndSession(ctx, p.Term, models.NewSessionYear(p.Session), p.Sort, limOff)
	}
	if err != nil {
		return nil, err
	}
	if p.Full {
		if err := svc.LoadBills(ctx, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the stores directly)")
	session := fs.Int("session", 0, "restrict to one legislative session (any year of it)")
	sort := fs.String("sort", "", "sort, e.g. printNo:ASC or _score:DESC,session:DESC")
	limit := fs.Int("limit", 0, "page size (default from server config)")
	offset := fs.Int("offset", 0, "0-based offset of the first result")
	full := fs.Bool("full", false, "include the stored bill with each result")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	params := searchParams{
		Term:    buildSearchQuery(fs.Args()),
		Session: *session,
		Sort:    *sort,
		Limit:   *limit,
		Offset:  *offset,
		Full:    *full,
	}
	if params.Term == "" && params.Session <= 0 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	var results *models.SearchResults
	if *serverURL != "" {
		results = &models.SearchResults{}
		if err := callAPI(http.MethodGet, *serverURL, "/api/v1/bills/search?"+params.values().Encode(), nil, results); err != nil {
			fatalf("Search failed: %v", err)
		}
	} else {
		components, _, logger := openDirect(*configPath)
		defer closeDirect(components, logger)
		var err error
		results, err = params.run(context.Background(), components.Service)
		if err != nil {
			fatalf("Search failed: %v", err)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, results, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// readBillsFile reads a single bill object or {"bills": [...]} from path.
func readBillsFile(path string) ([]*models.Bill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bills: %w", err)
	}
	var batch struct {
		Bills []*models.Bill `json:"bills"`
	}
	if err := json.Unmarshal(data, &batch); err == nil && batch.Bills != nil {
		return normalizeBills(batch.Bills)
	}
	var single models.Bill
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse bills: %w", err)
	}
	return normalizeBills([]*models.Bill{&single})
}

func normalizeBills(bills []*models.Bill) ([]*models.Bill, error) {
	if len(bills) == 0 {
		return nil, errors.New("no bills in file")
	}
	for i, b := range bills {
		if b == nil || b.ID.IsZero() || b.ID.Session <= 0 {
			return nil, fmt.Errorf("bill %d: id with print_no and session is required", i)
		}
		b.ID = models.NewBaseBillID(b.ID.PrintNo, int(b.ID.Session))
	}
	return bills, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the stores directly)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: billsync import [flags] <bills.json>")
		os.Exit(1)
	}
	bills, err := readBillsFile(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}

	if *serverURL != "" {
		body, err := json.Marshal(map[string]interface{}{"bills": bills})
		if err != nil {
			fatalf("Encode failed: %v", err)
		}
		var out struct {
			Stored  int    `json:"stored"`
			EventID string `json:"event_id"`
		}
		if err := callAPI(http.MethodPut, *serverURL, "/api/v1/bills", body, &out); err != nil {
			fatalf("Import failed: %v", err)
		}
		fmt.Printf("Stored %d bills (event %s)\n", out.Stored, out.EventID)
		return
	}

	components, _, logger := openDirect(*configPath)
	defer closeDirect(components, logger)
	ctx := context.Background()
	if err := components.Store.PutBills(ctx, bills); err != nil {
		fatalf("Import failed: %v", err)
	}
	res, err := components.Service.UpdateIndexBatch(ctx, bills)
	if err != nil {
		fatalf("Index update failed: %v", err)
	}
	fmt.Printf("Stored %d bills (%d indexed, %d removed from index)\n", len(bills), res.Indexed, res.Deleted)
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the stores directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	report := &billsearch.RebuildReport{}
	if *serverURL != "" {
		if err := callAPI(http.MethodPost, *serverURL, "/api/v1/index/rebuild?wait=true", nil, report); err != nil {
			fatalf("Rebuild failed: %v", err)
		}
	} else {
		components, _, logger := openDirect(*configPath)
		defer closeDirect(components, logger)
		r, err := components.Service.RebuildIndex(context.Background())
		if err != nil {
			fatalf("Rebuild failed: %v", err)
		}
		report = &r
	}
	if err := cli.WriteRebuildReport(os.Stdout, report, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the stores directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		if err := callAPI(http.MethodDelete, *serverURL, "/api/v1/index", nil, nil); err != nil {
			fatalf("Clear failed: %v", err)
		}
	} else {
		components, _, logger := openDirect(*configPath)
		defer closeDirect(components, logger)
		if err := components.Service.ClearIndex(context.Background()); err != nil {
			fatalf("Clear failed: %v", err)
		}
	}
	fmt.Println("Bill index cleared")
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Status         *billsearch.Status `json:"status"`
	DiskUsageBytes *int64             `json:"disk_usage_bytes,omitempty"`
	Subscribers    int                `json:"subscribers,omitempty"`
	Config         *struct {
		DatabasePath string `json:"database_path"`
		IndexPath    string `json:"index_path"`
	} `json:"config,omitempty"`
}

func (r *statusResponse) view() *cli.StatusView {
	v := &cli.StatusView{
		Status:         r.Status,
		DiskUsageBytes: r.DiskUsageBytes,
		Subscribers:    r.Subscribers,
	}
	if r.Config != nil {
		v.DatabasePath = r.Config.DatabasePath
		v.IndexPath = r.Config.IndexPath
	}
	return v
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the stores directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	var view *cli.StatusView
	if *serverURL != "" {
		var resp statusResponse
		if err := callAPI(http.MethodGet, *serverURL, "/api/v1/status", nil, &resp); err != nil {
			fatalf("Status failed: %v", err)
		}
		view = resp.view()
	} else {
		components, cfg, logger := openDirect(*configPath)
		defer closeDirect(components, logger)
		st, err := components.Service.Status(context.Background())
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		view = &cli.StatusView{
			Status:       st,
			DatabasePath: cfg.Storage.DatabasePath,
			IndexPath:    cfg.Storage.IndexPath,
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.IndexPath); err == nil {
			view.DiskUsageBytes = &diskBytes
		}
	}
	if err := cli.WriteStatus(os.Stdout, view, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// parseSwitch accepts on/off and the usual boolean spellings.
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid switch %q; use on or off", s)
	}
	return b, nil
}

// setIndexingSwitch persists enabled to the config file at path.
func setIndexingSwitch(path string, enabled bool) error {
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		return err
	}
	cfg.Indexing.Enabled = &enabled
	return config.Save(resolved, cfg)
}

func runIndexing() {
	fs := flag.NewFlagSet("indexing", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fatalf("Failed to load config: %v", err)
		}
		fmt.Printf("indexing enabled: %t\n", cfg.Indexing.EnabledOrDefault())
		return
	}
	enabled, err := parseSwitch(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	if err := setIndexingSwitch(*configPath, enabled); err != nil {
		fatalf("Failed to save config: %v", err)
	}
	fmt.Printf("indexing enabled: %t\n", enabled)
}

// callAPI sends body (JSON, may be nil) to serverURL+path and decodes a 2xx JSON reply into out
// when out is non-nil. Error replies carry the server's message.
func callAPI(method, serverURL, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`billsync - Legislative bill search index synchronizer

Usage:
  billsync server [flags]              Start the HTTP server and the index updater
  billsync search [flags] [query]      Search bills
  billsync import [flags] <file>       Store bills from a JSON file and index them
  billsync rebuild [flags]             Rebuild the bill index from the bill store
  billsync clear [flags]               Delete and recreate the bill index
  billsync status [flags]              Show index and store status
  billsync indexing [on|off]           Show or persist the indexing switch
  billsync version                     Show version
  billsync help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/billsync/config.yaml)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to open the stores directly.
  --output string    Output format for search, rebuild and status: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Search Flags:
  --session int      Restrict to one session
  --sort string      Sort order, e.g. printNo:ASC
  --limit int        Page size
  --offset int       0-based offset
  --full             Include stored bills in results

Examples:
  billsync server
  billsync search budget
  billsync search --session 2021 --sort printNo:ASC
  billsync import bills.json
  billsync rebuild --server ""
  billsync indexing off
  billsync status --output json`)
}
