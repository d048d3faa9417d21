package middleware

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync"

	"e_mairie_go/logger"
)

// StaticAssets are the files under the static directory referenced by the page layout
var StaticAssets = []string{
	"css/portal.css",
	"js/booking.js",
}

var (
	assetVersions     map[string]string
	assetVersionsOnce sync.Once
)

// InitAssetVersions computes file hashes for cache busting at startup
func InitAssetVersions(staticDir string) {
	assetVersionsOnce.Do(func() {
		assetVersions = computeAssetVersions(staticDir, StaticAssets)
		logger.L().Info("asset versions initialized", "count", len(assetVersions))
	})
}

func computeAssetVersions(staticDir string, files []string) map[string]string {
	versions := make(map[string]string, len(files))
	for _, name := range files {
		if hash := computeFileHash(filepath.Join(staticDir, name)); hash != "" {
			versions[name] = hash
		}
	}
	return versions
}

// computeFileHash returns the first 8 characters of the MD5 hash of a file
func computeFileHash(path string) string {
	file, err := os.Open(path)
	if err != nil {
		logger.L().Warn("failed to open asset for hashing", "path", path, "error", err)
		return ""
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		logger.L().Warn("failed to hash asset", "path", path, "error", err)
		return ""
	}

	return hex.EncodeToString(hash.Sum(nil))[:8]
}

// AssetVersion returns the cache-busting version of a static file, "1" when unknown
func AssetVersion(name string) string {
	if v, ok := assetVersions[name]; ok {
		return v
	}
	return "1"
}

// AssetURL returns the versioned public URL of a static file
func AssetURL(name string) string {
	return "/static/" + name + "?v=" + AssetVersion(name)
}
