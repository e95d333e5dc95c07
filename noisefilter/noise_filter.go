package noisefilter

import (
	"strings"
	"sync"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// NoiseFilter 判断一个限定名是否属于标准库等背景噪音
type NoiseFilter interface {
	IsNoise(qualifiedName string) bool
}

var (
	noiseFilterMap = make(map[model.Language]NoiseFilter)
	mu             sync.RWMutex
)

// RegisterNoiseFilter 注册一个语言与其对应的 NoiseFilter
func RegisterNoiseFilter(lang model.Language, noiseFilter NoiseFilter) {
	mu.Lock()
	defer mu.Unlock()
	noiseFilterMap[lang] = noiseFilter
}

// GetNoiseFilter 根据语言类型获取对应的 NoiseFilter 实例。
func GetNoiseFilter(lang model.Language) NoiseFilter {
	mu.RLock()
	defer mu.RUnlock()
	noiseFilter, ok := noiseFilterMap[lang]
	if !ok {
		// 没注册时不做过滤
		return &DefaultNoiseFilter{}
	}
	return noiseFilter
}

// DefaultNoiseFilter 默认过滤器：不对任何 QN 进行噪音判定
type DefaultNoiseFilter struct{}

func (d *DefaultNoiseFilter) IsNoise(qn string) bool { return false }

// PrefixFilter 按命名空间前缀判定噪音
type PrefixFilter struct {
	prefixes []string
}

func NewPrefixFilter(prefixes ...string) *PrefixFilter {
	return &PrefixFilter{prefixes: append([]string(nil), prefixes...)}
}

func (f *PrefixFilter) IsNoise(qn string) bool {
	for _, p := range f.prefixes {
		if strings.HasPrefix(qn, p) {
			return true
		}
	}
	return false
}

func (f *PrefixFilter) Prefixes() []string {
	return append([]string(nil), f.prefixes...)
}
