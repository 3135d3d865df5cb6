package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/phobologic/pyscope/internal/catalog"
)

// JSON-RPC error codes used on the wire.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
)

// Request is an incoming message. Notifications arrive with no ID.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response answers a request by ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError carries a protocol-level failure.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is a server-initiated message with no ID.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// InitializeParams may carry the workspace root when the client knows it.
type InitializeParams struct {
	Root string `json:"root,omitempty"`
}

// InitializeResult reports what the server is and where it looks for files.
type InitializeResult struct {
	ServerName string `json:"serverName"`
	Version    string `json:"version"`
	Root       string `json:"root"`
}

// BufferParams identifies a buffer for the buffer/* notifications. Text is
// the full buffer content; didClose sends neither path nor text.
type BufferParams struct {
	BufferID string `json:"bufferId"`
	Path     string `json:"path,omitempty"`
	Text     string `json:"text,omitempty"`
}

// QualifiedNameParams asks for the dotted test path at a zero-based line.
type QualifiedNameParams struct {
	BufferID string `json:"bufferId"`
	Line     int    `json:"line"`
}

// QualifiedNameResult is returned when the cursor sits inside a definition
// chain; otherwise the response result is null.
type QualifiedNameResult struct {
	QualifiedName string `json:"qualifiedName"`
}

// CatalogParams scopes test/catalog to one buffer; empty means all buffers.
type CatalogParams struct {
	BufferID string `json:"bufferId,omitempty"`
}

// BufferCatalog pairs a buffer with its catalog tree. Catalog is null when
// the buffer holds no test methods.
type BufferCatalog struct {
	BufferID string        `json:"bufferId"`
	Catalog  *catalog.Node `json:"catalog"`
}

// CatalogResult answers test/catalog.
type CatalogResult struct {
	Buffers []BufferCatalog `json:"buffers"`
}

// RunParams names the dotted targets to hand to the test runner.
type RunParams struct {
	Targets []string `json:"targets"`
}

// RunStarted acknowledges test/run before any target finishes.
type RunStarted struct {
	Started bool     `json:"started"`
	Targets []string `json:"targets"`
}

// RunResultParams is the test/runResult notification sent once per target.
// Error is set when the runner could not be launched at all.
type RunResultParams struct {
	InvocationID string `json:"invocationId,omitempty"`
	Target       string `json:"target"`
	Passed       bool   `json:"passed"`
	ExitCode     int    `json:"exitCode"`
	DurationMS   int64  `json:"durationMs"`
	Output       string `json:"output,omitempty"`
	Error        string `json:"error,omitempty"`
}

// catalogDidChangeParams announces a rebuilt (or removed) buffer catalog.
type catalogDidChangeParams struct {
	BufferID string        `json:"bufferId"`
	Catalog  *catalog.Node `json:"catalog"`
}

func readMsg(r *bufio.Reader) ([]byte, error) {
	var contentLen int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if i := strings.IndexByte(line, ':'); i >= 0 {
			key := strings.ToLower(strings.TrimSpace(line[:i]))
			val := strings.TrimSpace(line[i+1:])
			if key == "content-length" {
				_, _ = fmt.Sscanf(val, "%d", &contentLen)
			}
		}
	}
	if contentLen <= 0 {
		return nil, io.EOF
	}
	buf := make([]byte, contentLen)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

func writeMsg(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(body))
	b.Write(body)
	_, err = w.Write(b.Bytes())
	return err
}
