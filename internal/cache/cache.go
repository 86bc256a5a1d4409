package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache 译文缓存接口
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	SetWithTTL(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
	Stats() Stats
}

// Stats 缓存统计信息
type Stats struct {
	Hits   int64
	Misses int64
	Size   int64
}

// entry 缓存条目
type entry struct {
	Value     string        `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.Timestamp) > e.TTL
}

// MemoryCache 内存缓存实现
type MemoryCache struct {
	data  map[string]entry
	mutex sync.Mutex
	stats Stats
	now   func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get 获取缓存
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, exists := c.data[key]
	if !exists {
		c.stats.Misses++
		return "", false
	}

	if e.expired(c.now()) {
		delete(c.data, key)
		c.stats.Size = int64(len(c.data))
		c.stats.Misses++
		return "", false
	}

	c.stats.Hits++
	return e.Value, true
}

// Set 设置缓存
func (c *MemoryCache) Set(key string, value string) error {
	return c.SetWithTTL(key, value, 0)
}

// SetWithTTL 设置带过期时间的缓存
func (c *MemoryCache) SetWithTTL(key string, value string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry{
		Value:     value,
		Timestamp: c.now(),
		TTL:       ttl,
	}
	c.stats.Size = int64(len(c.data))
	return nil
}

// Delete 删除缓存
func (c *MemoryCache) Delete(key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	c.stats.Size = int64(len(c.data))
	return nil
}

// Clear 清除所有缓存
func (c *MemoryCache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]entry)
	c.stats = Stats{}
	return nil
}

// Stats 获取缓存统计信息
func (c *MemoryCache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.stats
}

// FileCache 文件缓存，内存作为一级缓存
type FileCache struct {
	basePath string
	memory   *MemoryCache
	stats    Stats
	mutex    sync.Mutex
}

// NewFileCache 创建文件缓存
func NewFileCache(basePath string) (*FileCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", basePath, err)
	}

	return &FileCache{
		basePath: basePath,
		memory:   NewMemoryCache(),
	}, nil
}

// getFilePath 根据 key 生成缓存文件路径
func (c *FileCache) getFilePath(key string) string {
	hash := md5.Sum([]byte(key))
	return filepath.Join(c.basePath, fmt.Sprintf("%x.cache", hash))
}

// Get 获取缓存
func (c *FileCache) Get(key string) (string, bool) {
	if value, ok := c.memory.Get(key); ok {
		return value, true
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	filePath := c.getFilePath(key)
	data, err := os.ReadFile(filePath)
	if err != nil {
		c.stats.Misses++
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.stats.Misses++
		return "", false
	}

	if e.expired(time.Now()) {
		_ = os.Remove(filePath)
		c.stats.Misses++
		return "", false
	}

	_ = c.memory.SetWithTTL(key, e.Value, e.TTL)
	c.stats.Hits++
	return e.Value, true
}

// Set 设置缓存
func (c *FileCache) Set(key string, value string) error {
	return c.SetWithTTL(key, value, 0)
}

// SetWithTTL 设置带过期时间的缓存，文件通过临时文件加重命名原子写入
func (c *FileCache) SetWithTTL(key string, value string, ttl time.Duration) error {
	if err := c.memory.SetWithTTL(key, value, ttl); err != nil {
		return err
	}

	data, err := json.Marshal(entry{
		Value:     value,
		Timestamp: time.Now(),
		TTL:       ttl,
	})
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	filePath := c.getFilePath(key)
	_, statErr := os.Stat(filePath)

	tmp, err := os.CreateTemp(c.basePath, "*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if os.IsNotExist(statErr) {
		c.stats.Size++
	}
	return nil
}

// Delete 删除缓存
func (c *FileCache) Delete(key string) error {
	_ = c.memory.Delete(key)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	err := os.Remove(c.getFilePath(key))
	if err == nil {
		c.stats.Size--
		return nil
	}
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear 清除所有缓存
func (c *FileCache) Clear() error {
	_ = c.memory.Clear()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	files, err := filepath.Glob(filepath.Join(c.basePath, "*.cache"))
	if err != nil {
		return err
	}
	for _, file := range files {
		_ = os.Remove(file)
	}

	c.stats = Stats{}
	return nil
}

// Stats 获取缓存统计信息
func (c *FileCache) Stats() Stats {
	memStats := c.memory.Stats()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	return Stats{
		Hits:   c.stats.Hits + memStats.Hits,
		Misses: c.stats.Misses,
		Size:   c.stats.Size,
	}
}

// KeyComponents 缓存 key 组成
type KeyComponents struct {
	Provider   string
	Model      string
	SourceLang string
	TargetLang string
	Text       string
}

// GenerateKey 由各组件生成缓存 key
func GenerateKey(c KeyComponents) string {
	keyData := fmt.Sprintf("provider:%s|model:%s|src:%s|tgt:%s|text:%s",
		c.Provider,
		c.Model,
		c.SourceLang,
		c.TargetLang,
		c.Text,
	)

	hash := md5.Sum([]byte(keyData))
	return fmt.Sprintf("%x", hash)
}

// New 根据配置创建缓存实例，未启用时返回 nil
func New(useCache bool, cacheDir string) (Cache, error) {
	if !useCache {
		return nil, nil
	}

	if cacheDir != "" {
		fc, err := NewFileCache(cacheDir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}

	return NewMemoryCache(), nil
}
