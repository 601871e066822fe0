package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	// Image directory plus an outside directory reachable via symlink.
	imageDir := filepath.Join(tmpDir, "images")
	outsideDir := filepath.Join(tmpDir, "outside")
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		t.Fatalf("Failed to create image directory: %v", err)
	}
	if err := os.MkdirAll(outsideDir, 0755); err != nil {
		t.Fatalf("Failed to create outside directory: %v", err)
	}

	secretFile := filepath.Join(outsideDir, "secret.tif")
	if err := os.WriteFile(secretFile, []byte("secret"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}

	symlinkPath := filepath.Join(imageDir, "evil-symlink")
	if err := os.Symlink(outsideDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{
			name:      "frame inside image directory",
			filePath:  filepath.Join(tmpDir, "frame.tif"),
			safeDir:   tmpDir,
			wantError: false,
		},
		{
			name:      "nested frame path",
			filePath:  filepath.Join(tmpDir, "run-12", "frame.tif"),
			safeDir:   tmpDir,
			wantError: false,
		},
		{
			name:      "path traversal with ..",
			filePath:  filepath.Join(tmpDir, "..", "frame.tif"),
			safeDir:   tmpDir,
			wantError: true,
		},
		{
			name:      "path traversal at start",
			filePath:  "../../../etc/passwd",
			safeDir:   tmpDir,
			wantError: true,
		},
		{
			name:      "absolute path outside image dir",
			filePath:  "/etc/passwd",
			safeDir:   tmpDir,
			wantError: true,
		},
		{
			name:      "symlink escape through directory link",
			filePath:  filepath.Join(symlinkPath, "secret.tif"),
			safeDir:   imageDir,
			wantError: true,
		},
		{
			name:      "symlink escape accessing link directly",
			filePath:  symlinkPath,
			safeDir:   imageDir,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	tmpDir1 := t.TempDir()
	tmpDir2 := t.TempDir()

	tests := []struct {
		name        string
		filePath    string
		allowedDirs []string
		wantError   bool
	}{
		{
			name:        "path in first allowed dir",
			filePath:    filepath.Join(tmpDir1, "frame.csv"),
			allowedDirs: []string{tmpDir1, tmpDir2},
			wantError:   false,
		},
		{
			name:        "path in second allowed dir",
			filePath:    filepath.Join(tmpDir2, "frame.csv"),
			allowedDirs: []string{tmpDir1, tmpDir2},
			wantError:   false,
		},
		{
			name:        "path outside all dirs",
			filePath:    "/etc/passwd",
			allowedDirs: []string{tmpDir1, tmpDir2},
			wantError:   true,
		},
		{
			name:        "no allowed directories",
			filePath:    filepath.Join(tmpDir1, "frame.csv"),
			allowedDirs: []string{},
			wantError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinAllowedDirs(tt.filePath, tt.allowedDirs)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinAllowedDirs() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateExportPath(t *testing.T) {
	if err := ValidateExportPath(filepath.Join(os.TempDir(), "candidates.csv")); err != nil {
		t.Errorf("temp dir export rejected: %v", err)
	}
	if err := ValidateExportPath("/etc/passwd"); err == nil {
		t.Error("absolute path outside temp and cwd accepted")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"b2f1c9de-1111-2222-3333-444455556666", "b2f1c9de-1111-2222-3333-444455556666"},
		{"../../etc/passwd", "etc_passwd"},
		{"run id with spaces", "run_id_with_spaces"},
		{"///", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	long := strings.Repeat("a", 300)
	if got := SanitizeFilename(long); len(got) > 128 {
		t.Errorf("long input not truncated: %d chars", len(got))
	}
}
