package export

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes a payload as JSON to the given path, creating parent
// directories as needed. With gzipped set the stream is gzip-compressed;
// callers conventionally use a .json.gz suffix then.
func WriteFile(path string, payload any, gzipped bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !gzipped {
		return json.NewEncoder(f).Encode(payload)
	}

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(payload); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	return gz.Close()
}
