// Package web serves the flattening pipeline over HTTP.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/flattree/internal/flatten"
)

const (
	defaultListenAddress    = "0.0.0.0:3000"
	defaultShutdownDuration = 5 * time.Second
	defaultScanTimeout      = 60 * time.Second
	defaultTitle            = "flattree"
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	mimeTypeNDJSON          = "application/x-ndjson"
	mimeTypeHTML            = "text/html; charset=utf-8"
	rootPath                = "/"
	staticPrefix            = "/static/"
	healthPath              = "/health"
	processPath             = "/api/process"
	processStreamPath       = "/api/process_stream"
	symbolsPath             = "/api/symbols"
	errorFieldName          = "error"
	indexTemplateName       = "index.html"
	maxRequestBodyBytes     = 1 << 20
)

//go:embed assets/templates/*.html assets/static/*
var embeddedAssets embed.FS

// Config defines runtime options for the server.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
	// ScanTimeout bounds each scan. The scan is cancelled when it elapses.
	ScanTimeout time.Duration
	// BaseDirectory confines every requested path.
	BaseDirectory string
	// DefaultIgnorePatterns apply when a request omits ignore_patterns and seed the web page.
	DefaultIgnorePatterns []string
	UseGitIgnore          bool
	Pipeline              flatten.Pipeline
	Logger                *zap.Logger
	Version               string
}

// Server serves the web page and the scan API.
type Server struct {
	config  Config
	sandbox sandbox
	logger  *zap.Logger
	index   *template.Template
	handler http.Handler
}

// NewServer creates a Server with defaults applied. The base directory must exist.
func NewServer(config Config) (*Server, error) {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.ScanTimeout <= 0 {
		normalized.ScanTimeout = defaultScanTimeout
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	if normalized.Pipeline.Logger == nil {
		normalized.Pipeline.Logger = normalized.Logger
	}

	box, sandboxErr := newSandbox(normalized.BaseDirectory)
	if sandboxErr != nil {
		return nil, sandboxErr
	}
	index, templateErr := template.ParseFS(embeddedAssets, "assets/templates/"+indexTemplateName)
	if templateErr != nil {
		return nil, fmt.Errorf("parse templates: %w", templateErr)
	}

	server := &Server{config: normalized, sandbox: box, logger: normalized.Logger, index: index}
	server.handler = server.routes()
	return server, nil
}

// Handler exposes the router.
func (server *Server) Handler() http.Handler {
	return server.handler
}

// BaseDirectory reports the canonical directory that confines requests.
func (server *Server) BaseDirectory() string {
	return server.sandbox.base
}

func (server *Server) routes() http.Handler {
	staticFiles, subErr := fs.Sub(embeddedAssets, "assets/static")
	if subErr != nil {
		panic(subErr)
	}
	router := http.NewServeMux()
	router.HandleFunc(rootPath, server.handleIndex)
	router.Handle(staticPrefix, http.StripPrefix(staticPrefix, http.FileServer(http.FS(staticFiles))))
	router.HandleFunc(healthPath, server.handleHealth)
	router.HandleFunc(processPath, server.handleProcess)
	router.HandleFunc(processStreamPath, server.handleProcessStream)
	router.HandleFunc(symbolsPath, server.handleSymbols)
	return server.logRequests(router)
}

// Run starts the server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server *Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{Handler: server.handler, ReadHeaderTimeout: 10 * time.Second}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", serveErr)
		}
		return nil
	})

	server.logger.Info("server listening",
		zap.String("address", actualAddress),
		zap.String("base_dir", server.sandbox.base),
	)
	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown HTTP: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		startedAt := time.Now()
		next.ServeHTTP(writer, request)
		server.logger.Debug("request served",
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Duration("elapsed", time.Since(startedAt)),
		)
	})
}

func (server *Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if encodeErr := encoder.Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func (server *Server) writeError(writer http.ResponseWriter, err error) {
	statusCode := statusCodeFromError(err)
	if statusCode >= http.StatusInternalServerError {
		server.logger.Error("request failed", zap.Error(err))
	} else {
		server.logger.Warn("request rejected", zap.Error(err))
	}
	server.writeJSON(writer, statusCode, map[string]string{errorFieldName: err.Error()})
}
