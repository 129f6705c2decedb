package dataflows

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-backed response cache keyed on source, method and the
// request parameters. Entries expire by file mtime.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

func NewCache(dir string, ttl time.Duration, enabled bool) *Cache {
	return &Cache{dir: dir, ttl: ttl, enabled: enabled}
}

func (c *Cache) key(source, method string, params any) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("%s_%s_%x.json", source, method, md5.Sum(data))
}

// Get loads a non-expired entry into result, reporting whether it hit.
// Any read or decode failure counts as a miss.
func (c *Cache) Get(source, method string, params, result any) bool {
	if !c.enabled {
		return false
	}
	path := filepath.Join(c.dir, c.key(source, method, params))
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > c.ttl {
		os.Remove(path)
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

func (c *Cache) Set(source, method string, params, data any) error {
	if !c.enabled {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, c.key(source, method, params)), raw, 0o644)
}
