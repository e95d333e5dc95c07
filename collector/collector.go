package collector

import (
	"fmt"
	"sync"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Collector 遍历单个文件的 AST，收集类型、方法、调用点、字面量与注解
type Collector interface {
	// CollectDefinitions 负责遍历 AST，建立并返回该文件的 FileContext。
	CollectDefinitions(rootNode *sitter.Node, filePath string, sourceBytes []byte) (*core.FileContext, error)
}

var (
	collectorMap = make(map[model.Language]Collector)
	mu           sync.RWMutex
)

// RegisterCollector 注册一个语言与其对应的 Collector
func RegisterCollector(lang model.Language, collector Collector) {
	mu.Lock()
	defer mu.Unlock()
	collectorMap[lang] = collector
}

// GetCollector 根据语言类型获取对应的 Collector 实例。
func GetCollector(lang model.Language) (Collector, error) {
	mu.RLock()
	defer mu.RUnlock()
	collector, ok := collectorMap[lang]
	if !ok {
		return nil, fmt.Errorf("no collector registered for language: %s", lang)
	}
	return collector, nil
}
