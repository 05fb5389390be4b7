package ftp

import (
	"bufio"
	"strings"
	"testing"
)

func TestReadReply(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCode  int
		wantLines []string
		wantErr   bool
	}{
		{
			name:      "single line",
			input:     "220 Service ready\r\n",
			wantCode:  220,
			wantLines: []string{"220 Service ready"},
		},
		{
			name:      "multi line welcome",
			input:     "220-hello\r\n220 ready\r\n",
			wantCode:  220,
			wantLines: []string{"220-hello", "220 ready"},
		},
		{
			name:      "feat reply",
			input:     "211-Features:\r\n UTF8\r\n MDTM\r\n211 End\r\n",
			wantCode:  211,
			wantLines: []string{"211-Features:", " UTF8", " MDTM", "211 End"},
		},
		{
			name:     "malformed code",
			input:    "abc bad\r\n",
			wantErr:  true,
			wantCode: 0,
		},
		{
			name:    "truncated stream",
			input:   "220-hello\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.input))
			reply, err := readReply(r)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got reply %+v", reply)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reply.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", reply.Code, tt.wantCode)
			}
			if len(reply.Lines) != len(tt.wantLines) {
				t.Fatalf("lines = %v, want %v", reply.Lines, tt.wantLines)
			}
			for i, l := range tt.wantLines {
				if reply.Lines[i] != l {
					t.Errorf("line %d = %q, want %q", i, reply.Lines[i], l)
				}
			}
		})
	}
}

func TestReplyClassification(t *testing.T) {
	r := &Reply{Code: 150}
	if !r.Is1xx() || r.Is2xx() || r.Is3xx() || !r.IsSuccess() {
		t.Errorf("150 classified incorrectly")
	}
	r = &Reply{Code: 226}
	if !r.Is2xx() || !r.IsSuccess() {
		t.Errorf("226 classified incorrectly")
	}
	r = &Reply{Code: 530}
	if r.IsSuccess() {
		t.Errorf("530 should not be success")
	}
}

func TestReplyMessage(t *testing.T) {
	r := &Reply{Lines: []string{"211-Features:", " UTF8", "211 End"}}
	if got := r.Message(); got != "End" {
		t.Errorf("Message() = %q, want %q", got, "End")
	}
}
