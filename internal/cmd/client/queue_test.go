package client

import (
	"bytes"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	cfgpkg "github.com/rzbill/sharedq/internal/config"
	"github.com/rzbill/sharedq/internal/runtime"
	httpserver "github.com/rzbill/sharedq/internal/server/http"
	"github.com/rzbill/sharedq/internal/storage/memstore"
	"github.com/rzbill/sharedq/internal/wire"
)

func startNode(t *testing.T) string {
	t.Helper()
	rt, err := runtime.NewWithKV(memstore.New(), cfgpkg.Default(), nil, nil)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	srv := httptest.NewServer(httpserver.New(rt, nil).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(func() string { return baseURL })
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestAssignPrintsNumber(t *testing.T) {
	url := startNode(t)
	for i, want := range []string{"1", "2", "1"} {
		uid := []string{"A1", "B2", "A1"}[i]
		out, err := run(t, url, "queue", "assign", uid)
		if err != nil {
			t.Fatalf("assign %s: %v", uid, err)
		}
		if strings.TrimSpace(out) != want {
			t.Fatalf("assign %s: got %q want %q", uid, out, want)
		}
	}
}

func TestListTableAndJSON(t *testing.T) {
	url := startNode(t)
	if _, err := run(t, url, "queue", "add", "X9", "--number", "4"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := run(t, url, "queue", "add", "U1"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, url, "queue", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "X9") || !strings.Contains(out, "2 of 2 entries, next number 5") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out, err = run(t, url, "queue", "list", "--json", "--filter", "!assigned")
	if err != nil {
		t.Fatalf("list json: %v", err)
	}
	if !strings.Contains(out, `"uid": "U1"`) || strings.Contains(out, `"uid": "X9"`) {
		t.Fatalf("unexpected filtered json:\n%s", out)
	}
}

func TestPopEmptyAndReset(t *testing.T) {
	url := startNode(t)
	if _, err := run(t, url, "queue", "pop"); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("pop on empty queue: %v", err)
	}
	if _, err := run(t, url, "queue", "reset"); err == nil {
		t.Fatalf("reset without --confirm should fail")
	}
	out, err := run(t, url, "queue", "reset", "--confirm")
	if err != nil || !strings.Contains(out, "OK") {
		t.Fatalf("reset: %v %s", err, out)
	}
}

func TestNamespaceCommands(t *testing.T) {
	url := startNode(t)
	if _, err := run(t, url, "namespace", "create", "lobby"); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := run(t, url, "namespace", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "lobby") || !strings.Contains(out, "queue") {
		t.Fatalf("unexpected namespaces:\n%s", out)
	}
	if _, err := run(t, url, "namespace", "create", "BAD"); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

func TestWireEncodeDecode(t *testing.T) {
	out, err := run(t, "", "wire", "encode", "--kind", "remove", "--uid", "A1", "--number", "3")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame := strings.TrimSpace(out)
	b, err := hex.DecodeString(frame)
	if err != nil || len(b) != wire.Size {
		t.Fatalf("frame %q: %v", frame, err)
	}

	out, err = run(t, "", "wire", "decode", frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out, `"kind": "remove"`) || !strings.Contains(out, `"number": 3`) {
		t.Fatalf("unexpected decode:\n%s", out)
	}

	if _, err := run(t, "", "wire", "decode", strings.Repeat("00", wire.Size)); err == nil {
		t.Fatalf("expected malformed error for a frame with no flags")
	}
}

func TestWireEncodeWarnsOnTruncation(t *testing.T) {
	out, err := run(t, "", "wire", "encode", "--uid", strings.Repeat("z", 30))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(out, "warning:") {
		t.Fatalf("expected truncation warning:\n%s", out)
	}
}
