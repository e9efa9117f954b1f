package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"samfdw/internal/metrics"
)

func TestTags(t *testing.T) {
	t.Parallel()

	if got := tags(nil); got != nil {
		t.Fatalf("tags(nil) = %v", got)
	}
	got := tags(metrics.Labels{"step": "fetch", "job": "sam"})
	if !reflect.DeepEqual(got, []string{"job:sam", "step:fetch"}) {
		t.Fatalf("tags = %v", got)
	}
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("expected error for empty Addr")
	}
}

// TestBackend_SendsDogStatsD listens on a local UDP socket and checks the
// wire lines produced for a counter.
func TestBackend_SendsDogStatsD(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp unavailable: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "samfdw."})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	defer b.Close()

	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "emitted"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	line := string(buf[:n])
	if !strings.Contains(line, "samfdw."+metrics.RowsTotal+":3|c") || !strings.Contains(line, "kind:emitted") {
		t.Fatalf("unexpected packet %q", line)
	}
}
