package tools

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newEchoRegistry() *Registry {
	r := NewRegistry(nil)
	r.Register("echo", func(_ context.Context, params json.RawMessage) (any, error) {
		var p struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return map[string]string{"value": p.Value}, nil
	})
	return r
}

func TestServerServe(t *testing.T) {
	t.Parallel()

	t.Run("one response line per request in order", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{
			`{"id":1,"tool":"echo","params":{"value":"first"}}`,
			``,
			`{"id":2,"tool":"missing"}`,
			`this is not json`,
			`{"id":3,"tool":"echo","params":{"value":"last"}}`,
		}, "\n") + "\n"

		var out bytes.Buffer
		server := NewServer(newEchoRegistry(), nil)
		if err := server.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var responses []response
		scanner := bufio.NewScanner(&out)
		for scanner.Scan() {
			var resp response
			if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
				t.Fatalf("response line is not valid JSON: %v", err)
			}
			responses = append(responses, resp)
		}
		if len(responses) != 4 {
			t.Fatalf("expected 4 responses (blank line skipped), got %d", len(responses))
		}

		if string(responses[0].ID) != "1" || string(responses[3].ID) != "3" {
			t.Errorf("request IDs not echoed in order: %v %v", string(responses[0].ID), string(responses[3].ID))
		}

		var first map[string]string
		if err := json.Unmarshal(responses[0].Result, &first); err != nil {
			t.Fatalf("first result is not valid JSON: %v", err)
		}
		if first["value"] != "first" {
			t.Errorf("unexpected first result: %v", first)
		}

		var unknown errorResult
		if err := json.Unmarshal(responses[1].Result, &unknown); err != nil {
			t.Fatalf("unknown-tool result is not valid JSON: %v", err)
		}
		if !strings.Contains(unknown.Error, "unknown tool") {
			t.Errorf("unexpected unknown-tool error: %q", unknown.Error)
		}

		var bad errorResult
		if err := json.Unmarshal(responses[2].Result, &bad); err != nil {
			t.Fatalf("bad-line result is not valid JSON: %v", err)
		}
		if !strings.Contains(bad.Error, "invalid request") {
			t.Errorf("unexpected bad-line error: %q", bad.Error)
		}
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		server := NewServer(newEchoRegistry(), nil)
		input := `{"tool":"echo","params":{"value":"never"}}` + "\n"
		if err := server.Serve(ctx, strings.NewReader(input), &out); err == nil {
			t.Error("expected a cancellation error")
		}
		if out.Len() != 0 {
			t.Errorf("expected no responses after cancellation, got %q", out.String())
		}
	})

	t.Run("empty input is fine", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		server := NewServer(newEchoRegistry(), nil)
		if err := server.Serve(context.Background(), strings.NewReader(""), &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Len() != 0 {
			t.Errorf("expected no output, got %q", out.String())
		}
	})
}
