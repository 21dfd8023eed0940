package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/flattree/internal/flatten"
	"github.com/temirov/flattree/internal/output"
	"github.com/temirov/flattree/internal/services/stream"
	"github.com/temirov/flattree/internal/summary"
)

const (
	messageTimedOut       = "analysis timed out"
	messageTaskFailed     = "analysis task failed"
	messageCancelled      = "analysis cancelled"
	errorDecodeBodyFormat = "invalid request body: %v"
	errorMissingPath      = "path is required"
	errorProcessFormat    = "Failed to process path '%s': %v. Check that it exists and that the server can read it."
	errorReadFileFormat   = "Error: could not read '%s'."
	healthStatusOK        = "ok"
)

type processRequest struct {
	Path           string   `json:"path"`
	IgnorePatterns []string `json:"ignore_patterns"`
}

type symbolsRequest struct {
	Path string `json:"path"`
}

type symbolsResponse struct {
	Path      string           `json:"path"`
	Supported bool             `json:"supported"`
	Symbols   []summary.Symbol `json:"symbols"`
}

type indexPage struct {
	Title         string
	Version       string
	BaseDirectory string
	DefaultIgnore []string
}

type scanOutcome struct {
	result flatten.Result
	err    error
}

func (server *Server) handleIndex(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path != rootPath {
		http.NotFound(writer, request)
		return
	}
	if request.Method != http.MethodGet && request.Method != http.MethodHead {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defaultIgnore := server.config.DefaultIgnorePatterns
	if defaultIgnore == nil {
		defaultIgnore = []string{}
	}
	page := indexPage{
		Title:         defaultTitle,
		Version:       server.config.Version,
		BaseDirectory: server.sandbox.base,
		DefaultIgnore: defaultIgnore,
	}
	var buffer bytes.Buffer
	if renderErr := server.index.ExecuteTemplate(&buffer, indexTemplateName, page); renderErr != nil {
		server.logger.Error("template rendering failed", zap.Error(renderErr))
		http.Error(writer, "Error rendering template", http.StatusInternalServerError)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeHTML)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(buffer.Bytes())
}

func (server *Server) handleHealth(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	server.writeJSON(writer, http.StatusOK, map[string]string{"status": healthStatusOK, "version": server.config.Version})
}

func (server *Server) handleProcess(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	scanRequest, requestErr := server.scanRequest(writer, request)
	if requestErr != nil {
		server.writeError(writer, requestErr)
		return
	}

	scanCtx, cancel := context.WithTimeout(request.Context(), server.config.ScanTimeout)
	defer cancel()

	outcomes := make(chan scanOutcome, 1)
	go func() {
		result, runErr := server.config.Pipeline.Run(scanCtx, scanRequest, nil)
		outcomes <- scanOutcome{result: result, err: runErr}
	}()

	var outcome scanOutcome
	select {
	case <-scanCtx.Done():
		outcome = scanOutcome{err: scanCtx.Err()}
	case outcome = <-outcomes:
	}
	if outcome.err != nil {
		server.writeError(writer, scanFailure(scanRequest.Root, outcome.err))
		return
	}
	server.writeJSON(writer, http.StatusOK, outcome.result)
}

func (server *Server) handleProcessStream(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	scanRequest, requestErr := server.scanRequest(writer, request)
	if requestErr != nil {
		server.writeError(writer, requestErr)
		return
	}

	flush := func() {}
	if flusher, ok := writer.(http.Flusher); ok {
		flush = flusher.Flush
	}
	writer.Header().Set(headerContentType, mimeTypeNDJSON)
	writer.Header().Set("Cache-Control", "no-cache")
	writer.Header().Set("X-Content-Type-Options", "nosniff")
	writer.WriteHeader(http.StatusOK)
	flush()

	renderer := output.NewNDJSONStreamRenderer(writer, flush)
	options := stream.ScanOptions{
		Pipeline: server.config.Pipeline,
		Request:  scanRequest,
		Timeout:  server.config.ScanTimeout,
		Logger:   server.logger,
	}
	dispatchErr := stream.Dispatch(request.Context(),
		func(ctx context.Context, events chan<- stream.Event) error {
			return stream.Scan(ctx, options, events)
		},
		renderer.Handle,
	)
	if dispatchErr != nil {
		server.logger.Warn("stream aborted", zap.String("root", scanRequest.Root), zap.Error(dispatchErr))
		return
	}
	_ = renderer.Flush()
}

func (server *Server) handleSymbols(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload symbolsRequest
	if decodeErr := decodeBody(writer, request, &payload); decodeErr != nil {
		server.writeError(writer, decodeErr)
		return
	}
	if payload.Path == "" {
		server.writeError(writer, NewRequestError(http.StatusBadRequest, errors.New(errorMissingPath)))
		return
	}
	filePath, resolveErr := server.sandbox.resolveFile(payload.Path)
	if resolveErr != nil {
		server.writeError(writer, resolveErr)
		return
	}
	content, readErr := os.ReadFile(filePath)
	if readErr != nil {
		server.writeError(writer, NewRequestError(http.StatusBadRequest, fmt.Errorf(errorReadFileFormat, payload.Path)))
		return
	}
	symbols := summary.SummarizeFile(filePath, content)
	if symbols == nil {
		symbols = []summary.Symbol{}
	}
	server.writeJSON(writer, http.StatusOK, symbolsResponse{
		Path:      payload.Path,
		Supported: summary.Supported(filepath.Ext(filePath)),
		Symbols:   symbols,
	})
}

// scanRequest decodes and validates a scan body. The returned root is canonical and inside the base.
func (server *Server) scanRequest(writer http.ResponseWriter, request *http.Request) (flatten.Request, error) {
	var payload processRequest
	if decodeErr := decodeBody(writer, request, &payload); decodeErr != nil {
		return flatten.Request{}, decodeErr
	}
	root, resolveErr := server.sandbox.resolveDirectory(payload.Path)
	if resolveErr != nil {
		return flatten.Request{}, resolveErr
	}
	patterns := payload.IgnorePatterns
	if patterns == nil {
		patterns = server.config.DefaultIgnorePatterns
	}
	server.logger.Info("processing path", zap.String("root", root), zap.Strings("ignore_patterns", patterns))
	return flatten.Request{Root: root, IgnorePatterns: patterns, UseGitIgnore: server.config.UseGitIgnore}, nil
}

func decodeBody(writer http.ResponseWriter, request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maxRequestBodyBytes))
	decodeErr := decoder.Decode(target)
	switch {
	case decodeErr == nil:
		return nil
	case errors.Is(decodeErr, io.EOF):
		return NewRequestError(http.StatusBadRequest, fmt.Errorf(errorDecodeBodyFormat, "empty body"))
	default:
		return NewRequestError(http.StatusBadRequest, fmt.Errorf(errorDecodeBodyFormat, decodeErr))
	}
}

// scanFailure maps pipeline errors to responses: timeouts and crashes are server errors, anything
// else the scan reports is blamed on the requested path.
func scanFailure(root string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewRequestError(http.StatusInternalServerError, errors.New(messageTimedOut))
	case errors.Is(err, context.Canceled):
		return NewRequestError(http.StatusInternalServerError, errors.New(messageCancelled))
	case errors.Is(err, flatten.ErrScanFailed):
		return NewRequestError(http.StatusInternalServerError, errors.New(messageTaskFailed))
	default:
		return NewRequestError(http.StatusBadRequest, fmt.Errorf(errorProcessFormat, root, err))
	}
}
