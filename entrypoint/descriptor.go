package entrypoint

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/parser"
	"github.com/bmatcuk/doublestar/v4"
)

// 框架约定的分发方法名
const (
	StrutsDispatchMethod  = "execute"
	ServletDispatchMethod = "service"
)

const defaultStruts2ActionClass = "com.opensymphony.xwork2.ActionSupport"

// findDescriptors 在项目下按 doublestar 模式查找描述文件，跳过构建输出目录
func findDescriptors(projectRoot, pattern string) []string {
	matches, err := doublestar.Glob(os.DirFS(projectRoot), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range matches {
		if strings.HasPrefix(m, "target/") || strings.Contains(m, "/target/") || strings.HasPrefix(m, "build/") || strings.Contains(m, "/build/") {
			continue
		}
		out = append(out, filepath.Join(projectRoot, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out
}

// xmlElement 记录元素属性与所在行
type xmlElement struct {
	attrs map[string]string
	line  int
}

func attrMap(start xml.StartElement) map[string]string {
	attrs := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		attrs[a.Name.Local] = strings.TrimSpace(a.Value)
	}
	return attrs
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func newDecoder(r io.Reader) *xml.Decoder {
	dec := parser.NewXMLDecoder(r)
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return dec
}

// --- Struts 1 ---

// Struts1Finder 解析 WEB-INF/struts-config*.xml 中的 <action path type>
type Struts1Finder struct {
	logger *slog.Logger
}

func NewStruts1Finder(logger *slog.Logger) *Struts1Finder {
	return &Struts1Finder{logger: orDefault(logger)}
}

func (f *Struts1Finder) Framework() model.Framework { return model.FrameworkStruts1 }

func (f *Struts1Finder) Find(sm core.SourceModel, projectRoot string) []*model.EntryPoint {
	var out []*model.EntryPoint
	for _, path := range findDescriptors(projectRoot, "**/WEB-INF/struts-config*.xml") {
		actions, err := readActions(path)
		if err != nil {
			f.logger.Warn("unreadable struts descriptor", "file", path, "error", err)
			continue
		}
		rel := relativePath(projectRoot, path)
		for _, a := range actions {
			typeName := a.attrs["type"]
			ep := model.NewEntryPoint(model.FrameworkStruts1, typeName, StrutsDispatchMethod, a.attrs["path"], nil,
				&model.Location{FilePath: rel, StartLine: a.line})
			ep.Dispatch = model.UnresolvedDispatch
			ep.MethodID = bindDispatch(sm, typeName, StrutsDispatchMethod)
			out = append(out, ep)
		}
	}
	return out
}

// --- Struts 2 ---

// Struts2Finder 解析 struts.xml 中 <package namespace> 下的 <action name class method>
type Struts2Finder struct {
	logger *slog.Logger
}

func NewStruts2Finder(logger *slog.Logger) *Struts2Finder {
	return &Struts2Finder{logger: orDefault(logger)}
}

func (f *Struts2Finder) Framework() model.Framework { return model.FrameworkStruts2 }

func (f *Struts2Finder) Find(sm core.SourceModel, projectRoot string) []*model.EntryPoint {
	var out []*model.EntryPoint
	for _, path := range findDescriptors(projectRoot, "**/struts.xml") {
		actions, err := readActions(path)
		if err != nil {
			f.logger.Warn("unreadable struts descriptor", "file", path, "error", err)
			continue
		}
		rel := relativePath(projectRoot, path)
		for _, a := range actions {
			typeName := a.attrs["class"]
			if typeName == "" {
				typeName = defaultStruts2ActionClass
			}
			actionPath := joinPath(a.attrs["namespace"], a.attrs["name"]+".action")
			loc := &model.Location{FilePath: rel, StartLine: a.line}

			// 通配方法(method="{1}")在运行时按 action 名决定，按未解析分发处理
			if method := a.attrs["method"]; method != "" && !strings.ContainsAny(method, "{}*") {
				methodID := bindDispatch(sm, typeName, method)
				ep := model.NewEntryPoint(model.FrameworkStruts2, typeName, boundSignature(sm, methodID, method), actionPath, nil, loc)
				ep.MethodID = methodID
				out = append(out, ep)
				continue
			}
			if a.attrs["method"] != "" {
				ep := model.NewEntryPoint(model.FrameworkStruts2, typeName, StrutsDispatchMethod, actionPath, nil, loc)
				ep.Dispatch = model.UnresolvedDispatch
				out = append(out, ep)
				continue
			}
			ep := model.NewEntryPoint(model.FrameworkStruts2, typeName, StrutsDispatchMethod, actionPath, nil, loc)
			ep.Dispatch = model.UnresolvedDispatch
			ep.MethodID = bindDispatch(sm, typeName, StrutsDispatchMethod)
			out = append(out, ep)
		}
	}
	return out
}

// boundSignature 已绑定时取源码中的签名，否则按无参方法书写
func boundSignature(sm core.SourceModel, methodID, method string) string {
	if methodID != "" && sm != nil {
		if m, ok := sm.Method(methodID); ok {
			return m.Signature
		}
	}
	return method + "()"
}

// readActions 读取全部 <action> 元素；位于 <package> 内时附带其 namespace 属性
func readActions(path string) ([]xmlElement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := newDecoder(f)
	var (
		actions    []xmlElement
		namespaces []string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return actions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "package":
				namespaces = append(namespaces, attrMap(el)["namespace"])
			case "action":
				line, _ := dec.InputPos()
				attrs := attrMap(el)
				if len(namespaces) > 0 {
					attrs["namespace"] = namespaces[len(namespaces)-1]
				}
				actions = append(actions, xmlElement{attrs: attrs, line: line})
			}
		case xml.EndElement:
			if el.Name.Local == "package" && len(namespaces) > 0 {
				namespaces = namespaces[:len(namespaces)-1]
			}
		}
	}
}

// --- Servlet ---

type servletDecl struct {
	Name  string `xml:"servlet-name"`
	Class string `xml:"servlet-class"`
}

type servletMapping struct {
	Name        string   `xml:"servlet-name"`
	URLPatterns []string `xml:"url-pattern"`
	line        int
}

// ServletFinder 解析 WEB-INF/web.xml，按 servlet-name 连接 <servlet> 与 <servlet-mapping>
type ServletFinder struct {
	logger *slog.Logger
}

func NewServletFinder(logger *slog.Logger) *ServletFinder {
	return &ServletFinder{logger: orDefault(logger)}
}

func (f *ServletFinder) Framework() model.Framework { return model.FrameworkServlet }

func (f *ServletFinder) Find(sm core.SourceModel, projectRoot string) []*model.EntryPoint {
	var out []*model.EntryPoint
	for _, path := range findDescriptors(projectRoot, "**/WEB-INF/web.xml") {
		servlets, mappings, err := readWebXML(path)
		if err != nil {
			f.logger.Warn("unreadable deployment descriptor", "file", path, "error", err)
			continue
		}
		rel := relativePath(projectRoot, path)
		for _, mapping := range mappings {
			class, ok := servlets[strings.TrimSpace(mapping.Name)]
			// 只有 jsp-file 的 servlet 没有处理类
			if !ok || class == "" {
				continue
			}
			for _, pattern := range mapping.URLPatterns {
				ep := model.NewEntryPoint(model.FrameworkServlet, class, ServletDispatchMethod, strings.TrimSpace(pattern), nil,
					&model.Location{FilePath: rel, StartLine: mapping.line})
				ep.Dispatch = model.UnresolvedDispatch
				ep.MethodID = bindDispatch(sm, class, ServletDispatchMethod)
				out = append(out, ep)
			}
		}
	}
	return out
}

func readWebXML(path string) (map[string]string, []servletMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	dec := newDecoder(f)
	servlets := make(map[string]string)
	var mappings []servletMapping
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return servlets, mappings, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse web.xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "servlet":
			var s servletDecl
			if err := dec.DecodeElement(&s, &start); err != nil {
				return nil, nil, fmt.Errorf("parse servlet: %w", err)
			}
			servlets[strings.TrimSpace(s.Name)] = strings.TrimSpace(s.Class)
		case "servlet-mapping":
			line, _ := dec.InputPos()
			var m servletMapping
			if err := dec.DecodeElement(&m, &start); err != nil {
				return nil, nil, fmt.Errorf("parse servlet-mapping: %w", err)
			}
			m.line = line
			mappings = append(mappings, m)
		}
	}
}
