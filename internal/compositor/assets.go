package compositor

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/vytor/sandplay/internal/logger"
)

// AssetStore loads item images from a directory and keeps them decoded in
// memory. A missing or undecodable file is reported as not loaded.
type AssetStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]image.Image
}

func NewAssetStore(dir string) *AssetStore {
	return &AssetStore{dir: dir, cache: map[string]image.Image{}}
}

// Has reports whether an asset file named name exists.
func (s *AssetStore) Has(name string) bool {
	if s.dir == "" {
		return false
	}
	fi, err := os.Stat(filepath.Join(s.dir, filepath.Base(name)))
	return err == nil && !fi.IsDir()
}

// Put stores a decoded image under name.
func (s *AssetStore) Put(name string, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[name] = img
}

// Get returns the image for name, decoding it on first use.
func (s *AssetStore) Get(name string) (image.Image, bool) {
	s.mu.RLock()
	img, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return img, true
	}
	if s.dir == "" {
		return nil, false
	}

	f, err := os.Open(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	if err != nil {
		logger.Warn("asset %s could not be decoded: %v", name, err)
		return nil, false
	}
	s.Put(name, img)
	return img, true
}
