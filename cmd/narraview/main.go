// Package main is the narraview CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/narraview/internal/catalog"
	"github.com/hyperjump/narraview/internal/cli"
	"github.com/hyperjump/narraview/internal/config"
	"github.com/hyperjump/narraview/internal/export"
	"github.com/hyperjump/narraview/internal/indexer"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/search"
	"github.com/hyperjump/narraview/internal/server"
	"github.com/hyperjump/narraview/internal/views"
	"github.com/hyperjump/narraview/internal/watcher"
	"github.com/hyperjump/narraview/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/narraview/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence if it exists. Returns the config and the path actually loaded.
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

// loadConfigOrDefaults is loadConfig for the offline commands: a missing default config
// yields the built-in defaults. An explicitly named config must exist.
func loadConfigOrDefaults(path string) (*config.Config, error) {
	cfg, _, err := loadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg = &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, nil
		}
	}
	return nil, err
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
	case "render":
		runRender()
	case "inspect":
		runInspect()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("narraview version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (dataset loads, renders, sessions)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	idx := components.Indexer
	exts := cfg.Watch.Extensions
	watchSvc := watcher.NewWatcher(
		watcher.Config{
			Directories: cfg.Watch.Directories,
			Extensions:  exts,
			Recursive:   cfg.Watch.RecursiveOrDefault(),
		},
		func(path string) {
			if _, err := idx.IndexFile(context.Background(), path, exts); err != nil {
				logger.Warn("watch load dataset failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := idx.DeleteFile(context.Background(), path); err != nil {
				logger.Warn("watch delete dataset failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExisting()

	srv := server.NewServer(
		components.Store,
		components.Index,
		cfg,
		server.WithLogger(logger),
		server.WithWatch(watchSvc, resolvedConfigPath),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchSvc.Stop()
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// argsReorder moves any flags (and their values) that follow the positional arguments to
// the front so that flag.Parse sees them; flag stops at the first non-flag argument.
func argsReorder(args []string) []string {
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

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// writeOutput runs write against the output named by path.
func writeOutput(path string, write func(io.Writer) error) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// flagWasSet reports whether name was given on the command line.
func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// optionalString returns a pointer to the flag value only when the flag was set.
func optionalString(fs *flag.FlagSet, name string, value string) *string {
	if !flagWasSet(fs, name) {
		return nil
	}
	return &value
}

func runRender() {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (layout defaults)")
	modeName := fs.String("mode", string(render.ModeEntity), "view: entity, time or topic")
	attribute := fs.String("attribute", "", "entity grouping attribute (empty = entity identity)")
	width := fs.Float64("width", 960, "container width in pixels")
	height := fs.Float64("height", 600, "container height in pixels")
	labels := fs.Bool("labels", true, "show temporal labels")
	layoutName := fs.String("layout", "", "topic layout: graph or scatter")
	output := fs.String("output", "", "output file (default stdout)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: narraview render [flags] <dataset.json>")
		os.Exit(1)
	}
	mode, err := render.ParseMode(*modeName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *width <= 0 || *height <= 0 {
		fmt.Fprintln(os.Stderr, "width and height must be positive")
		os.Exit(1)
	}
	cfg, err := loadConfigOrDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ds, err := indexer.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset: %v\n", err)
		os.Exit(1)
	}

	p := views.Params{Attribute: optionalString(fs, "attribute", *attribute), Layout: *layoutName}
	if flagWasSet(fs, "labels") {
		p.Labels = labels
	}
	var state render.State
	err = writeOutput(*output, func(w io.Writer) error {
		var renderErr error
		state, renderErr = views.NewBuilder(cfg, nil).Render(w, mode, p, ds, render.Viewport{Width: *width, Height: *height}, render.Highlight{})
		return renderErr
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	if state != render.StateReady {
		fmt.Fprintf(os.Stderr, "%s: %s\n", state, state.Message())
	}
}

func runInspect() {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	attribute := fs.String("attribute", "", "entity grouping attribute (empty = entity identity)")
	excludeUnknown := fs.Bool("exclude-unknown", false, "drop entities lacking the attribute")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: narraview inspect [flags] <dataset.json>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := loadConfigOrDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ds, err := indexer.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset: %v\n", err)
		os.Exit(1)
	}
	attr := cfg.Entity.DefaultAttribute
	if p := optionalString(fs, "attribute", *attribute); p != nil {
		attr = *p
	}
	exclude := cfg.Entity.ExcludeUnknown || *excludeUnknown
	rep, err := cli.BuildReport(views.NewBuilder(cfg, nil), ds, attr, exclude)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inspect failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteReport(os.Stdout, rep, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	attribute := fs.String("attribute", "", "entity grouping attribute (empty = entity identity)")
	output := fs.String("output", "", "output .xlsx file (default <dataset>.xlsx)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: narraview export [flags] <dataset.json>")
		os.Exit(1)
	}
	cfg, err := loadConfigOrDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ds, err := indexer.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset: %v\n", err)
		os.Exit(1)
	}
	attr := cfg.Entity.DefaultAttribute
	if p := optionalString(fs, "attribute", *attribute); p != nil {
		attr = *p
	}
	dest := *output
	if dest == "" {
		dest = exportPath(fs.Arg(0))
	}
	if err := writeOutput(dest, func(w io.Writer) error { return export.WriteWorkbook(w, ds, attr) }); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	if dest != "-" {
		fmt.Printf("Exported %d event(s) to %s\n", len(ds.Events), dest)
	}
}

// exportPath derives the default workbook path from a dataset path.
func exportPath(datasetPath string) string {
	ext := filepath.Ext(datasetPath)
	return datasetPath[:len(datasetPath)-len(ext)] + ".xlsx"
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Datasets       int64  `json:"datasets"`
	Sessions       int    `json:"sessions"`
	IndexedEvents  uint64 `json:"indexed_events"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	status, err := statusViaHTTP(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Printf("datasets:          %d   # datasets in the catalog\n", status.Datasets)
	fmt.Printf("sessions:          %d   # open view sessions\n", status.Sessions)
	fmt.Printf("indexed_events:    %d   # events in the search index\n", status.IndexedEvents)
	if status.DiskUsageBytes != nil {
		fmt.Printf("disk_usage_bytes:  %d   # catalog + index on disk\n", *status.DiskUsageBytes)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: narraview watch <add|remove|list> [path]")
		fmt.Println("  narraview watch add <path>     Add data directory to watch")
		fmt.Println("  narraview watch remove <path>  Remove data directory from watch")
		fmt.Println("  narraview watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(argsReorder(os.Args[3:]))
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: narraview watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: narraview watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store   catalog.Store
	Index   search.EventIndex
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := catalog.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	var index search.EventIndex
	if cfg.Storage.IndexPath != "" {
		bleveIndex, err := search.NewBleveIndex(cfg.Storage.IndexPath)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize search index: %w", err)
		}
		index = bleveIndex
	} else {
		logger.Warn("storage.index_path is empty; event search disabled")
	}

	return &Components{
		Store:   store,
		Index:   index,
		Indexer: indexer.NewIndexer(store, index, indexer.WithLogger(logger)),
	}, nil
}

func printUsage() {
	fmt.Println(`narraview - Narrative timeline visualization server

Usage:
  narraview server [flags]              Start the HTTP server
  narraview render [flags] <dataset>    Render one view of a dataset as SVG
  narraview inspect [flags] <dataset>   Summarize attributes, mentions, topics and view states
  narraview export [flags] <dataset>    Write the research workbook (.xlsx)
  narraview status [flags]              Show server catalog/index status
  narraview watch <add|remove|list>     Manage watched data directories
  narraview version                     Show version
  narraview help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/narraview/config.yaml)
  --debug            Enable debug logging

Render Flags:
  --mode string       entity, time or topic (default: entity)
  --attribute string  Entity grouping attribute; empty groups by entity
  --width, --height   Container size in pixels (default: 960x600)
  --labels            Show temporal labels (default: true)
  --layout string     Topic layout: graph or scatter
  --output string     Output file (default: stdout)

Inspect Flags:
  --attribute string  Entity grouping attribute
  --exclude-unknown   Drop entities lacking the attribute
  --output string     Output format: text or json (default: text)

Export Flags:
  --attribute string  Entity grouping attribute
  --output string     Output file (default: dataset path with .xlsx)

Status/Watch Flags:
  --server string    Server URL (default: http://localhost:8080)

Examples:
  narraview server
  narraview render --mode time story.json > story.svg
  narraview render story.json --mode topic --layout scatter --output topics.svg
  narraview inspect --attribute role story.json
  narraview export --output study.xlsx story.json
  narraview watch add /path/to/datasets
  narraview watch list`)
}
