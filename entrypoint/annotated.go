package entrypoint

import (
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// mappingAnnotation 方法级映射注解及其隐含的 HTTP 方法，verb 为空表示由注解参数决定
type mappingAnnotation struct {
	name string
	verb model.HTTPVerb
}

var springMappings = []mappingAnnotation{
	{"RequestMapping", ""},
	{"GetMapping", model.VerbGet},
	{"PostMapping", model.VerbPost},
	{"PutMapping", model.VerbPut},
	{"DeleteMapping", model.VerbDelete},
	{"PatchMapping", model.VerbPatch},
}

var jaxrsVerbs = []mappingAnnotation{
	{"GET", model.VerbGet},
	{"POST", model.VerbPost},
	{"PUT", model.VerbPut},
	{"DELETE", model.VerbDelete},
	{"PATCH", model.VerbPatch},
	{"HEAD", model.VerbHead},
	{"OPTIONS", model.VerbOptions},
}

// SpringFinder 扫描 @RequestMapping 及其快捷注解。
// 类级 @RequestMapping 只提供路径前缀，@Controller/@RestController 本身不产生入口点。
type SpringFinder struct{}

func NewSpringFinder() *SpringFinder { return &SpringFinder{} }

func (f *SpringFinder) Framework() model.Framework { return model.FrameworkSpringMVC }

func (f *SpringFinder) Find(sm core.SourceModel, _ string) []*model.EntryPoint {
	var out []*model.EntryPoint
	for _, m := range sm.FindEntryCandidates(annotationNames(springMappings)...) {
		if isInterfaceDeclaration(m) {
			continue
		}
		prefixes := []string{""}
		if m.Declaring != nil {
			if classMapping := m.Declaring.Annotation("RequestMapping"); classMapping != nil {
				prefixes = pathValues(classMapping, "value", "path")
			}
		}

		for _, ma := range springMappings {
			anno := m.Annotation(ma.name)
			if anno == nil {
				continue
			}
			verbs := []model.HTTPVerb{ma.verb}
			if ma.verb == "" {
				verbs = requestMethods(anno)
			}
			out = append(out, expand(model.FrameworkSpringMVC, m, prefixes, pathValues(anno, "value", "path"), verbs)...)
			break
		}
	}
	return out
}

// JAXRSFinder 扫描 @Path 与 @GET/@POST 等注解，没有方法注解时接受任意方法
type JAXRSFinder struct{}

func NewJAXRSFinder() *JAXRSFinder { return &JAXRSFinder{} }

func (f *JAXRSFinder) Framework() model.Framework { return model.FrameworkJAXRS }

func (f *JAXRSFinder) Find(sm core.SourceModel, _ string) []*model.EntryPoint {
	names := append(annotationNames(jaxrsVerbs), "Path")

	var out []*model.EntryPoint
	for _, m := range sm.FindEntryCandidates(names...) {
		if isInterfaceDeclaration(m) {
			continue
		}
		prefixes := []string{""}
		if m.Declaring != nil {
			if classPath := m.Declaring.Annotation("Path"); classPath != nil {
				prefixes = pathValues(classPath, "value")
			}
		}
		paths := []string{""}
		if methodPath := m.Annotation("Path"); methodPath != nil {
			paths = pathValues(methodPath, "value")
		}

		var verbs []model.HTTPVerb
		for _, v := range jaxrsVerbs {
			if m.HasAnnotation(v.name) {
				verbs = append(verbs, v.verb)
			}
		}
		out = append(out, expand(model.FrameworkJAXRS, m, prefixes, paths, verbs)...)
	}
	return out
}

// isInterfaceDeclaration 接口上的抽象声明由实现类承载，不单独作为入口点
func isInterfaceDeclaration(m *core.MethodDecl) bool {
	return m.Declaring != nil && m.Declaring.Kind == model.Interface && !m.HasBody
}

// expand 类级前缀与方法级路径做笛卡尔积，每个组合一个入口点
func expand(fw model.Framework, m *core.MethodDecl, prefixes, paths []string, verbs []model.HTTPVerb) []*model.EntryPoint {
	var out []*model.EntryPoint
	for _, prefix := range prefixes {
		for _, path := range paths {
			ep := model.NewEntryPoint(fw, m.DeclaringName(), m.Signature, joinPath(prefix, path), verbs, m.Location)
			ep.MethodID = m.ID
			out = append(out, ep)
		}
	}
	return out
}

// pathValues 读取注解中的路径，数组写法展开为多个；未声明时返回一个空路径
func pathValues(anno *core.Annotation, keys ...string) []string {
	raw, ok := anno.Attribute(keys...)
	if !ok {
		return []string{""}
	}
	values := core.StringValues(raw)
	if len(values) == 0 {
		return []string{""}
	}
	return values
}

// requestMethods 解析 method = RequestMethod.X 或 {RequestMethod.GET, RequestMethod.POST}
func requestMethods(anno *core.Annotation) []model.HTTPVerb {
	raw, ok := anno.Attribute("method")
	if !ok {
		return nil
	}
	raw = strings.Trim(strings.TrimSpace(raw), "{}")
	var verbs []model.HTTPVerb
	for _, part := range strings.Split(raw, ",") {
		if v, ok := model.ParseVerb(part); ok {
			verbs = append(verbs, v)
		}
	}
	return verbs
}

func annotationNames(mappings []mappingAnnotation) []string {
	names := make([]string, 0, len(mappings))
	for _, m := range mappings {
		names = append(names, m.name)
	}
	return names
}
