// Package cache stores fetched registry version lists on disk so repeated
// runs don't re-query the registry for every package.
package cache

import (
	"errors"
	"os"
	"path"

	"git.mills.io/prologic/bitcask"
)

const cacheAppDir = "bumpall"

// 300MB
const maxDatafileSize = 1024 * 1024 * 300

type Cache struct {
	db *bitcask.Bitcask
}

func NewCache() (*Cache, error) {
	baseDir, err := os.UserCacheDir()
	if err != nil {
		baseDir = os.TempDir()
	}

	cacheDir := path.Join(baseDir, cacheAppDir)
	if err := ensureDir(cacheDir); err != nil {
		return nil, err
	}

	db, err := bitcask.Open(cacheDir, bitcask.WithMaxDatafileSize(maxDatafileSize))
	if err != nil {
		return nil, err
	}

	return &Cache{db}, nil
}

func (cache *Cache) Close() error {
	return cache.db.Close()
}

func (cache *Cache) Has(key string) bool {
	return cache.db.Has([]byte(key))
}

func (cache *Cache) Get(key string) ([]byte, error) {
	if !cache.db.Has([]byte(key)) {
		return nil, errors.New("key not found")
	}

	return cache.db.Get([]byte(key))
}

func (cache *Cache) Set(key string, data []byte) error {
	return cache.db.Put([]byte(key), data)
}

// Clean drops every cached entry.
func (cache *Cache) Clean() error {
	return cache.db.DeleteAll()
}

func ensureDir(dirName string) error {
	if _, err := os.Stat(dirName); errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dirName, os.ModePerm)
	}

	return nil
}
