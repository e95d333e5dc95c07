package core

import (
	"sort"
	"strings"
	"sync"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

type ImportEntry struct {
	RawImportPath string          `json:"RawImportPath"`
	Alias         string          `json:"Alias"`
	IsWildcard    bool            `json:"IsWildcard"`
	IsStatic      bool            `json:"IsStatic"`
	Location      *model.Location `json:"Location,omitempty"`
}

// FileContext 单个源文件收集到的包名、导入与类型声明
type FileContext struct {
	FilePath    string
	PackageName string
	Imports     map[string]*ImportEntry // Alias -> Import，通配符导入存放在 Wildcards
	Wildcards   []*ImportEntry
	Types       []*TypeDecl
	mutex       sync.RWMutex
}

func NewFileContext(filePath, packageName string) *FileContext {
	return &FileContext{
		FilePath:    filePath,
		PackageName: packageName,
		Imports:     make(map[string]*ImportEntry),
	}
}

func (fc *FileContext) AddImport(imp *ImportEntry) {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()
	if imp.IsWildcard {
		fc.Wildcards = append(fc.Wildcards, imp)
		return
	}
	fc.Imports[imp.Alias] = imp
}

// AddType 将类型挂到文件下，parentQN 为空时以包名为前缀
func (fc *FileContext) AddType(t *TypeDecl, parentQN string) *TypeDecl {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	if parentQN == "" {
		parentQN = fc.PackageName
	}
	t.File = fc
	t.Package = fc.PackageName
	t.QualifiedName = BuildQualifiedName(parentQN, t.Name)
	fc.Types = append(fc.Types, t)
	return t
}

// BuildQualifiedName 以 "." 连接限定名
func BuildQualifiedName(parentQN, name string) string {
	if parentQN == "" || parentQN == "." {
		return name
	}
	return parentQN + "." + name
}

// GlobalContext 是项目的源码模型：所有文件的类型、方法与导入，以及调用解析器。
// 构建完成后只读，可被多个遍历并发读取。
type GlobalContext struct {
	FileContexts    map[string]*FileContext
	TypesByQN       map[string]*TypeDecl
	MethodsByID     map[string]*MethodDecl
	implementers    map[string][]*TypeDecl
	resolver        SymbolResolver
	sortedTypeCache []*TypeDecl
	mutex           sync.RWMutex
}

func NewGlobalContext(resolver SymbolResolver) *GlobalContext {
	return &GlobalContext{
		FileContexts: make(map[string]*FileContext),
		TypesByQN:    make(map[string]*TypeDecl),
		MethodsByID:  make(map[string]*MethodDecl),
		implementers: make(map[string][]*TypeDecl),
		resolver:     resolver,
	}
}

// RegisterFileContext 合并单个文件的定义到全局符号表
func (gc *GlobalContext) RegisterFileContext(fc *FileContext) {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	gc.FileContexts[fc.FilePath] = fc
	gc.sortedTypeCache = nil

	for _, t := range fc.Types {
		gc.TypesByQN[t.QualifiedName] = t
		for _, m := range t.Methods {
			gc.MethodsByID[m.ID] = m
		}
	}
}

// Link 在所有文件注册完成后建立接口实现关系，必须在遍历开始前调用
func (gc *GlobalContext) Link() {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	gc.implementers = make(map[string][]*TypeDecl)
	for _, t := range gc.sortedTypesLocked() {
		supers := append([]string{}, t.Interfaces...)
		if t.SuperClass != "" {
			supers = append(supers, t.SuperClass)
		}
		for _, raw := range supers {
			qn, ok := gc.resolveTypeLocked(t.File, raw)
			if !ok {
				continue
			}
			gc.implementers[qn] = append(gc.implementers[qn], t)
		}
	}
}

// --- SourceModel 实现 ---

func (gc *GlobalContext) Types() []*TypeDecl {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()
	return gc.sortedTypesLocked()
}

func (gc *GlobalContext) sortedTypesLocked() []*TypeDecl {
	if gc.sortedTypeCache != nil {
		return gc.sortedTypeCache
	}
	types := make([]*TypeDecl, 0, len(gc.TypesByQN))
	for _, t := range gc.TypesByQN {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].QualifiedName < types[j].QualifiedName })
	gc.sortedTypeCache = types
	return types
}

func (gc *GlobalContext) Type(qn string) (*TypeDecl, bool) {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()
	t, ok := gc.TypesByQN[qn]
	return t, ok
}

func (gc *GlobalContext) Method(id string) (*MethodDecl, bool) {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()
	m, ok := gc.MethodsByID[id]
	return m, ok
}

func (gc *GlobalContext) FindEntryCandidates(annotationNames ...string) []*MethodDecl {
	var out []*MethodDecl
	for _, t := range gc.Types() {
		for _, m := range t.Methods {
			for _, name := range annotationNames {
				if m.HasAnnotation(name) {
					out = append(out, m)
					break
				}
			}
		}
	}
	return out
}

func (gc *GlobalContext) Implementers(typeQN string) []*TypeDecl {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()
	return gc.implementers[typeQN]
}

func (gc *GlobalContext) ResolveType(from *FileContext, name string) (string, bool) {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()
	return gc.resolveTypeLocked(from, name)
}

func (gc *GlobalContext) resolveTypeLocked(from *FileContext, name string) (string, bool) {
	if gc.resolver == nil {
		if _, ok := gc.TypesByQN[name]; ok {
			return name, true
		}
		return "", false
	}
	return gc.resolver.ResolveType(gc, from, stripGenerics(name))
}

func (gc *GlobalContext) ResolveInvocationTarget(caller *MethodDecl, call *CallSite) (*MethodDecl, bool) {
	if gc.resolver == nil || caller == nil || call == nil {
		return nil, false
	}
	return gc.resolver.ResolveInvocation(gc, caller, call)
}

// LookupTypeUnlocked 供 SymbolResolver 在持有读锁期间查询
func (gc *GlobalContext) LookupTypeUnlocked(qn string) (*TypeDecl, bool) {
	t, ok := gc.TypesByQN[qn]
	return t, ok
}

func stripGenerics(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "<"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSuffix(name, "[]")
}
