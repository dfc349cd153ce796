package ipc

import (
	"context"
	"testing"
)

func TestResolveEndpointPrecedence(t *testing.T) {
	t.Setenv("NEXIATRAY_SERVICE_ADDR", "")
	if got := ResolveEndpoint("").Address; got != DefaultAddress {
		t.Fatalf("expected default address, got %q", got)
	}
	if got := ResolveEndpoint(" 127.0.0.1:5000 ").Address; got != "127.0.0.1:5000" {
		t.Fatalf("expected configured address, got %q", got)
	}

	t.Setenv("NEXIATRAY_SERVICE_ADDR", "127.0.0.1:6000")
	if got := ResolveEndpoint("127.0.0.1:5000").Address; got != "127.0.0.1:6000" {
		t.Fatalf("expected env address to win, got %q", got)
	}
	if got := DefaultEndpoint().String(); got != "tcp://127.0.0.1:6000" {
		t.Fatalf("unexpected endpoint string %q", got)
	}
}

func TestListenAndDial(t *testing.T) {
	e := Endpoint{Network: "tcp", Address: "127.0.0.1:0"}
	ln, err := e.Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
		close(accepted)
	}()

	client := Endpoint{Network: "tcp", Address: ln.Addr().String()}
	conn, err := client.DialContext(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
	<-accepted
}
