package ftp

import "testing"

func TestParseQuotedPath(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
		wantErr bool
	}{
		{"simple path", `"/pub/dir" is current directory`, "/pub/dir", false},
		{"escaped quote", `"/pub/my""dir""" is current directory`, `/pub/my"dir"`, false},
		{"no quotes", "not a quoted path", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQuotedPath(tt.message)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
