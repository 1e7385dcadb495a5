package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/syncer"
)

type stubStatus struct {
	st syncer.Status
}

func (s stubStatus) Status(context.Context) syncer.Status { return s.st }

func readStatus(t *testing.T, h *Handler) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = CacheStatusURI

	contents, err := h.HandleStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleStatus() error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content is %T", contents[0])
	}
	return tc
}

func TestStatusResource(t *testing.T) {
	h := NewHandler(stubStatus{st: syncer.Status{Ready: true, CachePath: "/tmp/cache.db"}})

	res := h.StatusResource()
	if res.URI != CacheStatusURI || res.MIMEType != "application/json" {
		t.Errorf("resource = %+v", res)
	}

	tc := readStatus(t, h)
	if tc.URI != CacheStatusURI || tc.MIMEType != "application/json" {
		t.Errorf("contents = %+v", tc)
	}
	var got syncer.Status
	if err := json.Unmarshal([]byte(tc.Text), &got); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if !got.Ready || got.CachePath != "/tmp/cache.db" {
		t.Errorf("status = %+v", got)
	}
}

func TestStatusResource_NoEngine(t *testing.T) {
	tc := readStatus(t, NewHandler(nil))
	if tc.MIMEType != "text/plain" || !strings.HasPrefix(tc.Text, "Error:") {
		t.Errorf("contents = %+v", tc)
	}
}
