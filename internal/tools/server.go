package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// maxRequestBytes bounds a single request line. Parameter objects are
// tiny; anything past this is a malformed stream.
const maxRequestBytes = 1 << 20

// request is one tool invocation on the wire. ID is echoed back so a
// caller can match responses to requests; it may be absent.
type request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params,omitempty"`
}

// response pairs a request ID with the tool result. Failures arrive
// inside Result as {"error": ...}, never as a broken line.
type response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result json.RawMessage `json:"result"`
}

// Server reads newline-delimited JSON requests and writes one response
// line per request, in order.
type Server struct {
	registry *Registry
	logger   *slog.Logger
}

// NewServer wraps a registry for serving.
func NewServer(registry *Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{registry: registry, logger: logger}
}

// Serve processes requests from r until EOF or context cancellation.
// Requests run sequentially so responses stay in request order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		result := json.RawMessage(nil)
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("unparseable request line", "error", err)
			result = marshalError(fmt.Sprintf("invalid request: %v", err))
		} else {
			s.logger.Info("tool call", "tool", req.Tool)
			result = s.registry.Call(ctx, req.Tool, req.Params)
		}

		if err := encoder.Encode(response{ID: req.ID, Result: result}); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}
