package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"resume.pdf", "pdf"},
		{"resume.PDF", "pdf"},
		{"resume.docx", "docx"},
		{"archive.tar.gz", "gz"},
		{"noextension", ""},
		{"/tmp/uploads/cv.TXT", "txt"},
	}

	for _, tt := range tests {
		if got := FileExtension(tt.filename); got != tt.want {
			t.Errorf("FileExtension(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestIsSupportedResumeFile(t *testing.T) {
	allowed := []string{"pdf", "docx", "txt"}

	tests := []struct {
		filename string
		want     bool
	}{
		{"resume.pdf", true},
		{"resume.DOCX", true},
		{"resume.txt", true},
		{"resume.exe", false},
		{"resume", false},
	}

	for _, tt := range tests {
		if got := IsSupportedResumeFile(tt.filename, allowed); got != tt.want {
			t.Errorf("IsSupportedResumeFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateInputFile(path); err != nil {
		t.Errorf("ValidateInputFile(existing file) = %v, want nil", err)
	}
	if err := ValidateInputFile(""); err == nil {
		t.Error("ValidateInputFile(empty) = nil, want error")
	}
	if err := ValidateInputFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("ValidateInputFile(missing) = nil, want error")
	}
	if err := ValidateInputFile(dir); err == nil {
		t.Error("ValidateInputFile(directory) = nil, want error")
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	if err := ValidateOutputFile(""); err != nil {
		t.Errorf("ValidateOutputFile(stdout) = %v, want nil", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "out", "report.json")
	if err := ValidateOutputFile(path); err != nil {
		t.Fatalf("ValidateOutputFile(%q) = %v, want nil", path, err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("output directory was not created: %v", err)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
