package middleware

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFileHash(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "portal.css")
	assert.NoError(t, os.WriteFile(tmpFile, []byte("body { color: #006b3f; }"), 0644))

	hash := computeFileHash(tmpFile)
	assert.Len(t, hash, 8)
	assert.Equal(t, hash, computeFileHash(tmpFile))

	assert.Empty(t, computeFileHash("non_existent_file.css"))
}

func TestComputeAssetVersions(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "css", "portal.css"), []byte("css"), 0644))

	versions := computeAssetVersions(dir, []string{"css/portal.css", "js/missing.js"})
	assert.Len(t, versions, 1)
	assert.Len(t, versions["css/portal.css"], 8)
}

func TestAssetURL(t *testing.T) {
	assert.Equal(t, "1", AssetVersion("js/unknown.js"))
	assert.Equal(t, "/static/js/unknown.js?v=1", AssetURL("js/unknown.js"))
}
