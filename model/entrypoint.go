package model

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Framework 是入口点所属的框架族
type Framework string

const (
	FrameworkSpringMVC Framework = "SPRING_MVC"
	FrameworkJAXRS     Framework = "JAX_RS"
	FrameworkStruts1   Framework = "STRUTS1"
	FrameworkStruts2   Framework = "STRUTS2"
	FrameworkServlet   Framework = "SERVLET"
	FrameworkUnknown   Framework = "UNKNOWN"
)

// HTTPVerb HTTP 方法，VerbAny 表示任意方法
type HTTPVerb string

const (
	VerbGet     HTTPVerb = "GET"
	VerbPost    HTTPVerb = "POST"
	VerbPut     HTTPVerb = "PUT"
	VerbDelete  HTTPVerb = "DELETE"
	VerbPatch   HTTPVerb = "PATCH"
	VerbHead    HTTPVerb = "HEAD"
	VerbOptions HTTPVerb = "OPTIONS"
	VerbAny     HTTPVerb = "*"
)

// ConcreteVerbs 不含通配符的全部 HTTP 方法
var ConcreteVerbs = []HTTPVerb{VerbGet, VerbPost, VerbPut, VerbDelete, VerbPatch, VerbHead, VerbOptions}

// ParseVerb 将 "get"、"RequestMethod.GET" 等写法规范化
func ParseVerb(s string) (HTTPVerb, bool) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	v := HTTPVerb(strings.ToUpper(s))
	for _, c := range ConcreteVerbs {
		if c == v {
			return v, true
		}
	}
	return "", false
}

// UnresolvedDispatch 标记处理方法是框架约定的分发方法名，而非已解析的方法
const UnresolvedDispatch = "UNRESOLVED_DISPATCH"

// EntryPoint 描述一个对外可达的操作，创建后不可变
type EntryPoint struct {
	ID               string     `json:"ID"`
	Framework        Framework  `json:"Framework"`
	TypeName         string     `json:"TypeName"`
	MethodSignature  string     `json:"MethodSignature"`
	MethodID         string     `json:"MethodID,omitempty"`
	Dispatch         string     `json:"Dispatch,omitempty"`
	Path             string     `json:"Path"`
	Verbs            []HTTPVerb `json:"Verbs"`
	Location         *Location  `json:"Location,omitempty"`
	BusinessFunction string     `json:"BusinessFunction,omitempty"`
}

// IsUnresolvedDispatch 处理方法是否只是框架约定的分发方法名
func (e *EntryPoint) IsUnresolvedDispatch() bool {
	return e.Dispatch == UnresolvedDispatch
}

// AcceptsAnyVerb 是否接受任意 HTTP 方法
func (e *EntryPoint) AcceptsAnyVerb() bool {
	for _, v := range e.Verbs {
		if v == VerbAny {
			return true
		}
	}
	return len(e.Verbs) == 0
}

// EntryPointID 根据框架、方法、路径与处理方法生成稳定的标识
func EntryPointID(fw Framework, verbs []HTTPVerb, path, typeName, signature string) string {
	var sb strings.Builder
	sb.WriteString(string(fw))
	sb.WriteByte('|')
	for i, v := range verbs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(string(v))
	}
	sb.WriteByte('|')
	sb.WriteString(path)
	sb.WriteByte('|')
	sb.WriteString(typeName)
	sb.WriteByte('#')
	sb.WriteString(signature)
	return strconv.FormatUint(xxhash.Sum64String(sb.String()), 16)
}

// NewEntryPoint 构造入口点并填充 ID
func NewEntryPoint(fw Framework, typeName, signature, path string, verbs []HTTPVerb, loc *Location) *EntryPoint {
	if len(verbs) == 0 {
		verbs = []HTTPVerb{VerbAny}
	}
	return &EntryPoint{
		ID:              EntryPointID(fw, verbs, path, typeName, signature),
		Framework:       fw,
		TypeName:        typeName,
		MethodSignature: signature,
		Path:            path,
		Verbs:           verbs,
		Location:        loc,
	}
}
