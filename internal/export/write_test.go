package export

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteFile_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dataset.json")

	err := WriteFile(path, testPayload{Name: "atlas", Count: 7}, false)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got testPayload
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, testPayload{Name: "atlas", Count: 7}, got)
}

func TestWriteFile_Gzipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json.gz")

	err := WriteFile(path, testPayload{Name: "atlas", Count: 7}, true)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var got testPayload
	require.NoError(t, json.NewDecoder(gz).Decode(&got))
	assert.Equal(t, "atlas", got.Name)
}

func TestWriteFile_UnencodablePayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	err := WriteFile(path, make(chan int), false)
	assert.Error(t, err)
}
