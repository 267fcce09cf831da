package common

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	formats := []string{"json", "text", "markdown"}

	tests := []struct {
		name      string
		format    string
		supported []string
		wantErr   bool
	}{
		{name: "json accepted", format: "json", supported: formats},
		{name: "text accepted", format: "text", supported: formats},
		{name: "markdown accepted", format: "markdown", supported: formats},
		{name: "yaml rejected", format: "yaml", supported: formats, wantErr: true},
		{name: "uppercase rejected", format: "JSON", supported: formats, wantErr: true},
		{name: "empty format rejected", format: "", supported: formats, wantErr: true},
		{name: "no restrictions allows anything", format: "csv", supported: nil},
		{name: "single format list", format: "json", supported: []string{"json"}},
		{name: "outside single format list", format: "text", supported: []string{"json"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateOutputFormat(%q) = nil, want error", tt.format)
				}
				if !strings.Contains(err.Error(), tt.format) {
					t.Errorf("error %q does not name the rejected format %q", err.Error(), tt.format)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateOutputFormat(%q) = %v, want nil", tt.format, err)
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	configured := []string{"json", "text", "markdown"}
	got := GetSupportedFormats(configured)
	if len(got) != len(configured) {
		t.Fatalf("expected %d formats, got %d", len(configured), len(got))
	}
	for i, want := range configured {
		if got[i] != want {
			t.Errorf("format[%d] = %q, want %q", i, got[i], want)
		}
	}
}
