package transport

import (
	"bufio"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// startListener serves a unix socket in a temp dir and hands accepted
// connections to the returned channel.
func startListener(t *testing.T) (endpoint string, conns <-chan net.Conn) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "r.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	ch := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			ch <- conn
		}
	}()
	return "unix://" + path, ch
}

func acceptConn(t *testing.T, conns <-chan net.Conn) net.Conn {
	t.Helper()
	select {
	case conn := <-conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func TestDialFailureReturnsUsableChannel(t *testing.T) {
	c, err := Dial("unix:///nonexistent/never/r.sock")
	if err == nil {
		t.Fatal("expected dial error")
	}
	if c == nil {
		t.Fatal("channel must be usable even after a failed dial")
	}
	if c.Connected() {
		t.Error("failed dial reported connected")
	}
	if err := c.Send([]byte("x")); !errors.Is(err, ErrDisconnected) {
		t.Errorf("Send err = %v, want ErrDisconnected", err)
	}
	if _, err := c.RecvLine(0); !errors.Is(err, ErrDisconnected) {
		t.Errorf("RecvLine err = %v, want ErrDisconnected", err)
	}
	if c.HasPending() {
		t.Error("disconnected channel reported pending input")
	}
}

func TestSendAppendsNewline(t *testing.T) {
	endpoint, conns := startListener(t)
	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	server := acceptConn(t, conns)

	if err := c.Send([]byte(`{"type":"frame"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := c.Send([]byte(`{"type":"close"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	r := bufio.NewReader(server)
	first, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	second, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if first != `{"type":"frame"}`+"\n" || second != `{"type":"close"}`+"\n" {
		t.Errorf("framing wrong: %q, %q", first, second)
	}
}

func TestRecvLineBurstBuffering(t *testing.T) {
	endpoint, conns := startListener(t)
	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	server := acceptConn(t, conns)

	// Three messages in one write arrive in one read and are handed out
	// one per call.
	if _, err := server.Write([]byte("one\ntwo\nthree\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []string{"one", "two", "three"} {
		line, err := c.RecvLine(2 * time.Second)
		if err != nil {
			t.Fatalf("RecvLine: %v", err)
		}
		if string(line) != want {
			t.Errorf("line = %q, want %q", line, want)
		}
	}
	if c.HasPending() {
		t.Error("drained channel reported pending input")
	}
}

// A line already sitting on the socket must be visible to the
// non-blocking pending check and retrievable by a zero-timeout read:
// this is the path the engine's resize polling rides on.
func TestHasPendingSeesArrivedLine(t *testing.T) {
	endpoint, conns := startListener(t)
	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	server := acceptConn(t, conns)

	if c.HasPending() {
		t.Error("pending reported before anything was sent")
	}

	if _, err := server.Write([]byte(`{"type":"resize","width":800,"height":600}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !c.HasPending() {
		if time.Now().After(deadline) {
			t.Fatal("HasPending never saw the arrived line")
		}
		time.Sleep(5 * time.Millisecond)
	}

	line, err := c.RecvLine(0)
	if err != nil {
		t.Fatalf("RecvLine(0): %v", err)
	}
	if string(line) != `{"type":"resize","width":800,"height":600}` {
		t.Errorf("line = %q", line)
	}
	if c.HasPending() {
		t.Error("pending reported after the only line was consumed")
	}
}

func TestRecvLineZeroTimeoutDoesNotBlock(t *testing.T) {
	endpoint, conns := startListener(t)
	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	acceptConn(t, conns)

	start := time.Now()
	_, err = c.RecvLine(0)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("zero-timeout read blocked")
	}
	if !c.Connected() {
		t.Error("poll miss must not disconnect the channel")
	}
}

func TestRecvLineTimeout(t *testing.T) {
	endpoint, conns := startListener(t)
	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	acceptConn(t, conns)

	start := time.Now()
	_, err = c.RecvLine(50 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout read blocked far past the deadline")
	}
	if !c.Connected() {
		t.Error("timeout must not disconnect the channel")
	}
}

func TestRecvLineTruncatesOversized(t *testing.T) {
	endpoint, conns := startListener(t)
	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	server := acceptConn(t, conns)

	c.maxLine = 16
	long := strings.Repeat("a", 100)
	if _, err := server.Write([]byte(long + "\nok\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	line, err := c.RecvLine(2 * time.Second)
	if err != nil {
		t.Fatalf("RecvLine: %v", err)
	}
	if len(line) != 16 || string(line) != strings.Repeat("a", 16) {
		t.Errorf("truncated line = %q (%d bytes)", line, len(line))
	}

	// The oversized tail is discarded; the next message is intact.
	line, err = c.RecvLine(2 * time.Second)
	if err != nil {
		t.Fatalf("RecvLine: %v", err)
	}
	if string(line) != "ok" {
		t.Errorf("line after discard = %q, want %q", line, "ok")
	}
}

func TestPeerCloseDisconnects(t *testing.T) {
	endpoint, conns := startListener(t)
	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	server := acceptConn(t, conns)

	_ = server.Close()
	_, err = c.RecvLine(2 * time.Second)
	if !errors.Is(err, ErrDisconnected) {
		t.Fatalf("err = %v, want ErrDisconnected", err)
	}
	if c.Connected() {
		t.Error("channel still connected after peer close")
	}
}

func TestReconnectRerunsDiscovery(t *testing.T) {
	endpoint, conns := startListener(t)
	t.Setenv(EnvEndpoint, endpoint)

	c, err := Dial(endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	acceptConn(t, conns)

	if err := c.Reconnect(); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if !c.Connected() {
		t.Error("not connected after Reconnect")
	}
	if c.explicit != "" {
		t.Error("Reconnect must forget the explicit endpoint")
	}
	acceptConn(t, conns)
}
