package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// ErrModelBuild 项目源码无法读取或解析时由模型构建方返回
var ErrModelBuild = errors.New("source model build failed")

// SourceModel 是构建完成后的只读源码模型，在所有组件之间显式传递
type SourceModel interface {
	// Types 返回全部类型，顺序确定
	Types() []*TypeDecl
	Type(qualifiedName string) (*TypeDecl, bool)
	Method(id string) (*MethodDecl, bool)
	// FindEntryCandidates 返回带有任一给定注解的方法
	FindEntryCandidates(annotationNames ...string) []*MethodDecl
	// ResolveInvocationTarget 将调用点解析为声明的目标方法，无法静态确定时返回 false
	ResolveInvocationTarget(caller *MethodDecl, call *CallSite) (*MethodDecl, bool)
	Implementers(typeQN string) []*TypeDecl
	ResolveType(from *FileContext, name string) (string, bool)
}

// --- 语言特有的符号解析接口 ---

type SymbolResolver interface {
	// ResolveType 将源码中书写的类型名解析为限定名。
	// 调用方可能持有 GlobalContext 的锁，实现只能使用 LookupTypeUnlocked。
	ResolveType(gc *GlobalContext, fc *FileContext, name string) (string, bool)

	// ResolveInvocation 将调用点解析为目标方法
	ResolveInvocation(gc *GlobalContext, caller *MethodDecl, call *CallSite) (*MethodDecl, bool)
}

var (
	symbolResolverMap = make(map[model.Language]SymbolResolver)
	resolverMu        sync.RWMutex
)

// RegisterSymbolResolver 注册一个语言与其对应的 SymbolResolver
func RegisterSymbolResolver(lang model.Language, resolver SymbolResolver) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	symbolResolverMap[lang] = resolver
}

// GetSymbolResolver 根据语言类型获取对应的 SymbolResolver 实例
func GetSymbolResolver(lang model.Language) (SymbolResolver, error) {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	resolver, ok := symbolResolverMap[lang]
	if !ok {
		return nil, fmt.Errorf("no SymbolResolver for language: %s", lang)
	}
	return resolver, nil
}
