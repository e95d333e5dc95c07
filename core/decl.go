package core

import (
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// Annotation 注解，Arguments 保留括号内的原始文本
type Annotation struct {
	Name      string          `json:"Name"`
	Arguments string          `json:"Arguments,omitempty"`
	Location  *model.Location `json:"Location,omitempty"`
}

// Attribute 返回注解元素的原始值文本，单值注解的键为 "value"
func (a Annotation) Attribute(keys ...string) (string, bool) {
	attrs := ParseAnnotationArguments(a.Arguments)
	for _, k := range keys {
		if v, ok := attrs[k]; ok {
			return v, true
		}
	}
	return "", false
}

// FieldDecl 字段声明
type FieldDecl struct {
	Name        string
	Type        string
	Annotations []Annotation
}

// TypeDecl 类型声明。External 为 true 表示该类型不在分析的源码集合内，只是占位。
type TypeDecl struct {
	Kind          model.ElementKind
	Name          string
	QualifiedName string
	Package       string
	Annotations   []Annotation
	SuperClass    string
	Interfaces    []string
	Fields        []*FieldDecl
	Methods       []*MethodDecl
	File          *FileContext
	Location      *model.Location
	External      bool
}

// HasAnnotation 按简单名判断是否带有注解
func (t *TypeDecl) HasAnnotation(name string) bool {
	return findAnnotation(t.Annotations, name) != nil
}

// Annotation 按简单名返回注解
func (t *TypeDecl) Annotation(name string) *Annotation {
	return findAnnotation(t.Annotations, name)
}

// Field 按名字查找字段
func (t *TypeDecl) Field(name string) *FieldDecl {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MethodsNamed 返回同名的全部重载，保持声明顺序
func (t *TypeDecl) MethodsNamed(name string) []*MethodDecl {
	var out []*MethodDecl
	for _, m := range t.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// AddMethod 将方法挂到类型下并生成方法标识
func (t *TypeDecl) AddMethod(m *MethodDecl) *MethodDecl {
	m.Declaring = t
	m.ID = MethodID(t.QualifiedName, m.Name, m.ParamTypes)
	if m.Signature == "" {
		m.Signature = m.Name + "(" + strings.Join(m.ParamTypes, ", ") + ")"
	}
	if m.Locals == nil {
		m.Locals = make(map[string]string)
	}
	t.Methods = append(t.Methods, m)
	return m
}

// CallSite 方法体内的一次方法调用
type CallSite struct {
	Name      string
	Receiver  string // 原始接收者表达式，无接收者时为空
	ArgCount  int
	FirstArg  *string // 第一个参数是字符串字面量时的内容
	ArgKinds  []string // 每个参数的字面量类型(String/int/long/...)，非字面量为空串
	Chained   string  // 调用结果上紧接着调用的方法名
	AssignTo  string  // 调用结果赋值给的局部变量名
	Location  *model.Location
	Enclosing string // 所在方法的标识
}

// Literal 方法体内的字符串字面量
type Literal struct {
	Value    string
	Location *model.Location
}

// MethodDecl 方法或构造函数声明
type MethodDecl struct {
	ID          string
	Name        string
	Signature   string
	ParamTypes  []string
	Declaring   *TypeDecl
	Annotations []Annotation
	Locals      map[string]string // 参数和局部变量名 -> 声明类型
	CallSites   []*CallSite
	Literals    []Literal
	HasBody     bool
	Location    *model.Location
}

func (m *MethodDecl) HasAnnotation(name string) bool {
	return findAnnotation(m.Annotations, name) != nil
}

func (m *MethodDecl) Annotation(name string) *Annotation {
	return findAnnotation(m.Annotations, name)
}

// DeclaringName 所属类型的限定名
func (m *MethodDecl) DeclaringName() string {
	if m.Declaring == nil {
		return ""
	}
	return m.Declaring.QualifiedName
}

// MethodID 生成方法的稳定标识，参数类型参与其中以区分重载
func MethodID(typeQN, name string, paramTypes []string) string {
	return typeQN + "#" + name + "(" + strings.Join(paramTypes, ",") + ")"
}

func findAnnotation(annos []Annotation, name string) *Annotation {
	for i := range annos {
		if annos[i].Name == name || strings.HasSuffix(annos[i].Name, "."+name) {
			return &annos[i]
		}
	}
	return nil
}
