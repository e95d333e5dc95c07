package entrypoint

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// Finder 发现某一框架族对外暴露的入口点。
// 描述文件或注解缺失时返回空列表，永远不会让整个运行失败。
type Finder interface {
	Framework() model.Framework
	Find(sm core.SourceModel, projectRoot string) []*model.EntryPoint
}

// ForFramework 按框架检测结果选择 Finder，UNKNOWN 时使用组合 Finder
func ForFramework(fw model.Framework, logger *slog.Logger) Finder {
	if logger == nil {
		logger = slog.Default()
	}
	switch fw {
	case model.FrameworkSpringMVC:
		return NewSpringFinder()
	case model.FrameworkJAXRS:
		return NewJAXRSFinder()
	case model.FrameworkStruts1:
		return NewStruts1Finder(logger)
	case model.FrameworkStruts2:
		return NewStruts2Finder(logger)
	case model.FrameworkServlet:
		return NewServletFinder(logger)
	default:
		return NewCompositeFinder(logger)
	}
}

// CompositeFinder 依次运行全部 Finder 并按入口点 ID 去重
type CompositeFinder struct {
	finders []Finder
}

func NewCompositeFinder(logger *slog.Logger) *CompositeFinder {
	return &CompositeFinder{finders: []Finder{
		NewSpringFinder(),
		NewJAXRSFinder(),
		NewStruts2Finder(logger),
		NewStruts1Finder(logger),
		NewServletFinder(logger),
	}}
}

func (c *CompositeFinder) Framework() model.Framework { return model.FrameworkUnknown }

func (c *CompositeFinder) Find(sm core.SourceModel, projectRoot string) []*model.EntryPoint {
	var out []*model.EntryPoint
	seen := make(map[string]bool)
	for _, f := range c.finders {
		for _, ep := range f.Find(sm, projectRoot) {
			if seen[ep.ID] {
				continue
			}
			seen[ep.ID] = true
			out = append(out, ep)
		}
	}
	return out
}

// bindDispatch 处理类型在模型中且恰好声明一个同名方法时，返回该方法的标识
func bindDispatch(sm core.SourceModel, typeName, methodName string) string {
	if sm == nil || typeName == "" {
		return ""
	}
	t, ok := sm.Type(typeName)
	if !ok {
		return ""
	}
	if methods := t.MethodsNamed(methodName); len(methods) == 1 {
		return methods[0].ID
	}
	return ""
}

// joinPath 拼接类级与方法级路径片段，保证只有一个分隔符并以 "/" 开头
func joinPath(prefix, path string) string {
	prefix = strings.TrimSpace(prefix)
	path = strings.TrimSpace(path)
	joined := strings.TrimSuffix(prefix, "/")
	if path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		joined += path
	}
	if !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
