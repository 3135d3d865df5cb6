// Package session serves editor clients over a framed JSON message stream.
//
// Each frame is a Content-Length header followed by a JSON-RPC 2.0 body.
// Clients open buffers, ask for qualified names and test catalogs, and
// launch test runs; the server pushes catalog/didChange, test/runResult and
// openFiles/warning notifications on its own initiative.
package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/phobologic/pyscope/internal/catalog"
	"github.com/phobologic/pyscope/internal/config"
	"github.com/phobologic/pyscope/internal/monitor"
	"github.com/phobologic/pyscope/internal/qualname"
	"github.com/phobologic/pyscope/internal/runner"
	"github.com/phobologic/pyscope/internal/scan"
)

const serverName = "pyscope"

type document struct {
	path  string
	lines []string
}

// Server holds per-session editor state: open buffers, their catalogs, and
// the open-file tracker.
type Server struct {
	Version string

	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger

	mu       sync.Mutex // guards root, cfg, docs and catalogs
	root     string
	cfg      *config.Config
	docs     map[string]*document
	catalogs *catalog.Store
	tracker  *monitor.Tracker

	writeMu sync.Mutex // one frame on out at a time
}

// New builds a server reading frames from in and writing frames to out.
// The open-file tracker keeps the limit cfg carried at construction time.
func New(root string, cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	return &Server{
		Version:  "dev",
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
		root:     root,
		cfg:      cfg,
		docs:     make(map[string]*document),
		catalogs: catalog.NewStore(),
		tracker:  monitor.NewTracker(cfg.Monitor.MaxOpenFiles),
	}
}

// Run serves messages until exit, EOF, or a transport error. The open-file
// monitor runs alongside for the lifetime of the call.
func (s *Server) Run(ctx context.Context) error {
	mctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.tracker.RunPeriodic(mctx, s.cfg.CheckInterval(), func(w *monitor.Warning) {
		s.logger.Warn("open file limit exceeded", "count", w.Count, "limit", w.Limit)
		s.notify("openFiles/warning", w)
	})

	for {
		body, err := readMsg(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading message: %w", err)
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			// The ID is not recoverable from a broken frame; answer
			// with a null ID as JSON-RPC prescribes.
			s.logger.Warn("malformed message", "error", err)
			s.respondError(json.RawMessage("null"), codeParseError, "parse error: "+err.Error())
			continue
		}

		if s.dispatch(ctx, &req) {
			return nil
		}
	}
}

// dispatch routes one message. It reports true when the client asked the
// server to exit.
func (s *Server) dispatch(ctx context.Context, req *Request) bool {
	switch req.Method {
	case "initialize":
		s.onInitialize(req.ID, req.Params)
	case "shutdown":
		s.respond(req.ID, nil)
	case "exit":
		return true

	case "buffer/didOpen":
		s.onDidOpen(req.Params)
	case "buffer/didChange":
		s.onDidChange(req.Params)
	case "buffer/didSave":
		s.onDidSave(req.Params)
	case "buffer/didClose":
		s.onDidClose(req.Params)

	case "symbol/qualifiedName":
		s.onQualifiedName(req.ID, req.Params)
	case "test/catalog":
		s.onCatalog(req.ID, req.Params)
	case "test/run":
		s.onRun(ctx, req.ID, req.Params)

	default:
		// Unknown notifications are dropped; unknown requests get an error.
		if len(req.ID) > 0 {
			s.respondError(req.ID, codeMethodNotFound, "method not found: "+req.Method)
		} else {
			s.logger.Warn("dropping unknown notification", "method", req.Method)
		}
	}
	return false
}

func (s *Server) onInitialize(id, raw json.RawMessage) {
	var params InitializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			s.respondError(id, codeInvalidParams, "initialize: "+err.Error())
			return
		}
	}

	s.mu.Lock()
	if params.Root != "" && params.Root != s.root {
		s.root = params.Root
		cfg, err := config.LoadDir(params.Root)
		if err != nil {
			s.logger.Warn("keeping previous config", "root", params.Root, "error", err)
		} else {
			s.cfg = cfg
		}
	}
	root := s.root
	s.mu.Unlock()

	s.logger.Info("session initialized", "root", root)
	s.respond(id, InitializeResult{ServerName: serverName, Version: s.Version, Root: root})
}

func (s *Server) onDidOpen(raw json.RawMessage) {
	var params BufferParams
	if err := json.Unmarshal(raw, &params); err != nil || params.BufferID == "" {
		s.logger.Warn("dropping didOpen", "error", err)
		return
	}

	s.mu.Lock()
	doc := &document{path: params.Path, lines: scan.SplitLines(params.Text)}
	s.docs[params.BufferID] = doc
	node := s.catalogs.Update(params.BufferID, doc.lines, s.modulePathLocked(doc))
	s.mu.Unlock()

	s.tracker.Open(trackPath(params.BufferID, params.Path), time.Now())
	s.notify("catalog/didChange", catalogDidChangeParams{BufferID: params.BufferID, Catalog: node})
}

// onDidChange refreshes buffer text only. Catalogs stay as of the last open
// or save, so half-typed classes never flicker through the clients.
func (s *Server) onDidChange(raw json.RawMessage) {
	var params BufferParams
	if err := json.Unmarshal(raw, &params); err != nil || params.BufferID == "" {
		s.logger.Warn("dropping didChange", "error", err)
		return
	}

	s.mu.Lock()
	if doc, ok := s.docs[params.BufferID]; ok {
		doc.lines = scan.SplitLines(params.Text)
		if params.Path != "" {
			doc.path = params.Path
		}
	}
	s.mu.Unlock()
}

func (s *Server) onDidSave(raw json.RawMessage) {
	var params BufferParams
	if err := json.Unmarshal(raw, &params); err != nil || params.BufferID == "" {
		s.logger.Warn("dropping didSave", "error", err)
		return
	}

	s.mu.Lock()
	doc, ok := s.docs[params.BufferID]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("didSave for unopened buffer", "buffer", params.BufferID)
		return
	}
	if params.Text != "" {
		doc.lines = scan.SplitLines(params.Text)
	}
	node := s.catalogs.Update(params.BufferID, doc.lines, s.modulePathLocked(doc))
	s.mu.Unlock()

	s.notify("catalog/didChange", catalogDidChangeParams{BufferID: params.BufferID, Catalog: node})
}

func (s *Server) onDidClose(raw json.RawMessage) {
	var params BufferParams
	if err := json.Unmarshal(raw, &params); err != nil || params.BufferID == "" {
		s.logger.Warn("dropping didClose", "error", err)
		return
	}

	s.mu.Lock()
	doc, ok := s.docs[params.BufferID]
	delete(s.docs, params.BufferID)
	s.catalogs.Remove(params.BufferID)
	s.mu.Unlock()

	if ok {
		s.tracker.Close(trackPath(params.BufferID, doc.path))
	}
	s.notify("catalog/didChange", catalogDidChangeParams{BufferID: params.BufferID, Catalog: nil})
}

func (s *Server) onQualifiedName(id, raw json.RawMessage) {
	var params QualifiedNameParams
	if err := json.Unmarshal(raw, &params); err != nil {
		s.respondError(id, codeInvalidParams, "symbol/qualifiedName: "+err.Error())
		return
	}

	s.mu.Lock()
	doc, ok := s.docs[params.BufferID]
	if !ok {
		s.mu.Unlock()
		s.respondError(id, codeInvalidParams, "unknown buffer: "+params.BufferID)
		return
	}
	lines := doc.lines
	modPath := s.modulePathLocked(doc)
	s.mu.Unlock()

	name, ok := qualname.Resolve(lines, params.Line, modPath)
	if !ok {
		s.respond(id, nil)
		return
	}
	s.respond(id, QualifiedNameResult{QualifiedName: name})
}

func (s *Server) onCatalog(id, raw json.RawMessage) {
	var params CatalogParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			s.respondError(id, codeInvalidParams, "test/catalog: "+err.Error())
			return
		}
	}

	s.mu.Lock()
	var buffers []BufferCatalog
	if params.BufferID != "" {
		node, _ := s.catalogs.Get(params.BufferID)
		buffers = append(buffers, BufferCatalog{BufferID: params.BufferID, Catalog: node})
	} else {
		for _, bufferID := range s.catalogs.BufferIDs() {
			node, _ := s.catalogs.Get(bufferID)
			buffers = append(buffers, BufferCatalog{BufferID: bufferID, Catalog: node})
		}
	}
	s.mu.Unlock()

	if buffers == nil {
		buffers = []BufferCatalog{}
	}
	s.respond(id, CatalogResult{Buffers: buffers})
}

// onRun acknowledges immediately and streams one test/runResult notification
// per target as the runner finishes it.
func (s *Server) onRun(ctx context.Context, id, raw json.RawMessage) {
	var params RunParams
	if err := json.Unmarshal(raw, &params); err != nil {
		s.respondError(id, codeInvalidParams, "test/run: "+err.Error())
		return
	}
	if len(params.Targets) == 0 {
		s.respondError(id, codeInvalidParams, "test/run: no targets")
		return
	}

	s.mu.Lock()
	run := &runner.Runner{
		Command: s.cfg.Runner.Command,
		Dir:     s.root,
		Timeout: s.cfg.RunnerTimeout(),
	}
	s.mu.Unlock()

	targets := append([]string(nil), params.Targets...)
	s.respond(id, RunStarted{Started: true, Targets: targets})

	go func() {
		for _, target := range targets {
			res, err := run.Run(ctx, target)
			if err != nil {
				s.logger.Error("test launch failed", "target", target, "error", err)
				s.notify("test/runResult", RunResultParams{Target: target, Error: err.Error()})
				return
			}
			s.notify("test/runResult", RunResultParams{
				InvocationID: res.InvocationID,
				Target:       res.Target,
				Passed:       res.Passed,
				ExitCode:     res.ExitCode,
				DurationMS:   res.Duration.Milliseconds(),
				Output:       res.Output,
			})
		}
	}()
}

// modulePathLocked derives the dotted module path for a document. Callers
// hold s.mu.
func (s *Server) modulePathLocked(doc *document) string {
	if doc.path == "" {
		return "buffer"
	}
	return qualname.ModulePath(doc.path, s.root)
}

// trackPath keys the open-file tracker: the real path when the client sent
// one, otherwise the buffer ID.
func trackPath(bufferID, path string) string {
	if path != "" {
		return path
	}
	return bufferID
}

func (s *Server) respond(id json.RawMessage, result any) {
	if result == nil {
		// Keep an explicit null in the body rather than dropping the key.
		result = json.RawMessage("null")
	}
	s.write(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) respondError(id json.RawMessage, code int, message string) {
	s.write(Response{JSONRPC: "2.0", ID: id, Error: &ResponseError{Code: code, Message: message}})
}

func (s *Server) notify(method string, params any) {
	s.write(Notification{JSONRPC: "2.0", Method: method, Params: params})
}

func (s *Server) write(v any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := writeMsg(s.out, v); err != nil {
		s.logger.Error("writing frame", "error", err)
	}
}
