package providers

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor 根据基础配置创建提供商
type Constructor func(cfg BaseConfig, opts Options) (Provider, error)

// Options 与具体提供商相关的附加选项
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Registry 提供商构造器注册表
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry 创建新的注册表
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
	}
}

// Register 注册提供商构造器
func (r *Registry) Register(name string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.constructors[name] = ctor
	return nil
}

// Create 使用注册的构造器创建提供商
func (r *Registry) Create(name string, cfg BaseConfig, opts Options) (Provider, error) {
	r.mu.RLock()
	ctor, exists := r.constructors[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return ctor(cfg, opts)
}

// Has 是否已注册
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.constructors[name]
	return exists
}

// List 按名称排序列出所有提供商
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Remove 移除提供商
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.constructors, name)
}
