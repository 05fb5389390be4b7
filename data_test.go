package ftp

import (
	"net"
	"testing"
)

func TestParseSextuple(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{
			name:     "standard PASV reply",
			input:    "227 Entering Passive Mode (192,168,0,5,19,136).",
			wantHost: "192.168.0.5",
			wantPort: 19*256 + 136,
		},
		{
			name:     "no parens",
			input:    "227 Entering Passive Mode 192,168,0,5,19,136",
			wantHost: "192.168.0.5",
			wantPort: 19*256 + 136,
		},
		{
			name:    "no sextuple",
			input:   "500 Command not understood",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := parseSextuple(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got %s:%d, want %s:%d", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestFormatSextuple(t *testing.T) {
	ip := net.ParseIP("10.0.0.1")
	got, err := formatSextuple(ip, 5000)
	if err != nil {
		t.Fatalf("formatSextuple: %v", err)
	}
	want := "10,0,0,1,19,136"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatSextupleRejectsIPv6(t *testing.T) {
	ip := net.ParseIP("::1")
	if _, err := formatSextuple(ip, 21); err == nil {
		t.Errorf("expected error for IPv6 address")
	}
}

func TestOpenPassiveEndpointSubstitutesZeroAddress(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc, err := newControlChannel(client, 0)
	if err != nil {
		t.Fatalf("newControlChannel: %v", err)
	}

	serverReply := make(chan struct{})
	go func() {
		defer close(serverReply)
		buf := make([]byte, 64)
		server.Read(buf)
		server.Write([]byte("227 Entering Passive Mode (0,0,0,0,19,136).\r\n"))
	}()

	producer, err := openPassiveEndpoint(cc, &TCPConnector{}, "203.0.113.9")
	<-serverReply
	if err != nil {
		t.Fatalf("openPassiveEndpoint: %v", err)
	}
	pasv, ok := producer.(*pasvProducer)
	if !ok {
		t.Fatalf("producer is %T, want *pasvProducer", producer)
	}
	if pasv.host != "203.0.113.9" {
		t.Errorf("host = %q, want substituted control host", pasv.host)
	}
}
