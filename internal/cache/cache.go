// Package cache implements a very trivial filesystem cache.
package cache

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"
)

const (
	// How long until a entry is considered stale.
	maxCacheAge = time.Hour * 24 * 7
)

var (
	ErrCacheMiss = errors.New("cache miss error")
	errCacheSet  = errors.New("cache set error")
	errCacheDir  = errors.New("cache dir error")
)

type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, content []byte) error
}

// Filesystem implements the default filesystem based Cache interface.
type Filesystem struct {
	cacheDir string
	maxAge   time.Duration
}

func New(cachePath string) (Filesystem, error) {
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		slog.Error("Failed to make cache root", slog.String("error", err.Error()),
			slog.String("path", cachePath))

		return Filesystem{}, errors.Join(err, errCacheDir)
	}

	return Filesystem{cacheDir: cachePath, maxAge: maxCacheAge}, nil
}

func (c Filesystem) Set(key string, content []byte) error {
	file, errFile := os.Create(c.path(key))
	if errFile != nil {
		return errors.Join(errFile, errCacheSet)
	}

	defer func(file io.Closer) {
		if err := file.Close(); err != nil {
			slog.Error("Failed to close cache file", slog.String("error", err.Error()))
		}
	}(file)

	if _, err := file.Write(content); err != nil {
		return errors.Join(err, errCacheSet)
	}

	return nil
}

func (c Filesystem) Get(key string) ([]byte, error) {
	fullPath := c.path(key)

	stat, errStat := os.Stat(fullPath)
	if errStat != nil {
		return nil, errors.Join(errStat, ErrCacheMiss)
	}

	if time.Since(stat.ModTime()) > c.maxAge {
		if err := os.Remove(fullPath); err != nil {
			return nil, errors.Join(err, ErrCacheMiss)
		}

		return nil, ErrCacheMiss
	}

	body, errRead := os.ReadFile(fullPath)
	if errRead != nil {
		return nil, errors.Join(errRead, ErrCacheMiss)
	}

	return body, nil
}

// path maps a key to a file name, keeping it inside the cache dir.
func (c Filesystem) path(key string) string {
	return path.Join(c.cacheDir, strings.NewReplacer("/", "_", "..", "_").Replace(key))
}
