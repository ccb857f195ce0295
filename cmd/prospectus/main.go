// Package main is the Prospectus CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dealdesk/prospectus/internal/config"
	"github.com/dealdesk/prospectus/internal/extract"
	"github.com/dealdesk/prospectus/internal/models"
	"github.com/dealdesk/prospectus/internal/parse"
	"github.com/dealdesk/prospectus/internal/server"
	"github.com/dealdesk/prospectus/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/prospectus/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if neither
// exists, built-in defaults are used. Returns the config and the path that was
// actually loaded ("" for defaults).
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
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Default(), "", nil
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
	case "parse":
		runParse()
	case "version", "--version", "-v":
		fmt.Printf("prospectus version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (extracted text previews, etc.)")
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

	srv := server.NewServer(extract.NewExtractor(), &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the extraction pipeline in-process)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: prospectus parse [flags] <file.pdf>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	switch *outputFormat {
	case "text", "json":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	var result *models.ExtractionResult
	var failMsg string
	if *serverURL != "" {
		res, parseErr, err := parseViaHTTP(*serverURL, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		result = res
		failMsg = parseErr
	} else {
		text, err := extract.NewExtractor().Extract(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		result = parse.ParseKeyData(text)
		if !result.Complete() {
			failMsg = "Could not reliably extract all key information."
		}
	}

	if err := writeResult(os.Stdout, result, *outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if failMsg != "" {
		fmt.Fprintln(os.Stderr, failMsg)
		os.Exit(1)
	}
}

// errorResponse is the shape of non-200 responses from POST /parse-pdf.
type errorResponse struct {
	Error     string                   `json:"error"`
	Extracted *models.ExtractionResult `json:"extracted"`
}

// parseViaHTTP uploads the file to a running server. For a 422 the partial
// record is returned together with the server's error message in parseErr.
func parseViaHTTP(serverURL, path string) (result *models.ExtractionResult, parseErr string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	resp, err := http.Post(serverURL+"/parse-pdf", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res models.ExtractionResult
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, "", fmt.Errorf("decode response: %w", err)
		}
		return &res, "", nil
	case http.StatusUnprocessableEntity:
		var res errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, "", fmt.Errorf("decode response: %w", err)
		}
		if res.Extracted == nil {
			res.Extracted = &models.ExtractionResult{}
		}
		return res.Extracted, res.Error, nil
	default:
		b, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
}

func writeResult(w io.Writer, result *models.ExtractionResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(w, "property_name:                  %s\n", stringField(result.PropertyName))
	fmt.Fprintf(w, "address:                        %s\n", stringField(result.Address))
	fmt.Fprintf(w, "total_rentable_square_footage:  %s\n", intField(result.TotalRentableSquareFootage))
	return nil
}

func stringField(p *string) string {
	if p == nil {
		return "(not found)"
	}
	return *p
}

func intField(p *int) string {
	if p == nil {
		return "(not found)"
	}
	return fmt.Sprintf("%d", *p)
}

func printUsage() {
	fmt.Println(`prospectus - Key-fact extraction for offering-memorandum PDFs

Usage:
  prospectus server [flags]         Start the HTTP server
  prospectus parse [flags] <file>   Parse a PDF and print the key fields
  prospectus version                Show version
  prospectus help                   Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/prospectus/config.yaml)
  --debug            Enable debug logging (extracted text previews, etc.)

Parse Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run the pipeline in-process.
  --output string    Output format: text or json (default: text)

Examples:
  prospectus server
  prospectus server --debug
  prospectus parse memorandum.pdf
  prospectus parse --output json memorandum.pdf
  prospectus parse --server "" memorandum.pdf`)
}
