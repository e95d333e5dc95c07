package java

import (
	"strings"
	"unicode"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

type SymbolResolver struct{}

func NewJavaSymbolResolver() *SymbolResolver {
	return &SymbolResolver{}
}

// ResolveType 按 Java 的可见性规则解析类型名。
// 调用方持有 gc 的锁，这里只能使用 LookupTypeUnlocked。
func (j *SymbolResolver) ResolveType(gc *core.GlobalContext, fc *core.FileContext, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || primitiveTypes[name] {
		return "", false
	}

	// 1. 带点的名字：全限定名或 Outer.Inner
	if strings.Contains(name, ".") {
		if _, ok := gc.LookupTypeUnlocked(name); ok {
			return name, true
		}
		head, rest, _ := strings.Cut(name, ".")
		if fc != nil && !isPackageLike(head) {
			if headQN, ok := j.ResolveType(gc, fc, head); ok {
				return headQN + "." + rest, true
			}
		}
		// 当作外部全限定名
		return name, true
	}

	if fc != nil {
		// 2. 同文件声明（含内部类）
		for _, t := range fc.Types {
			if t.Name == name {
				return t.QualifiedName, true
			}
		}

		// 3. 精确导入，外部类型同样返回
		if imp, ok := fc.Imports[name]; ok && !imp.IsStatic {
			return imp.RawImportPath, true
		}

		// 4. 同包
		samePkg := core.BuildQualifiedName(fc.PackageName, name)
		if _, ok := gc.LookupTypeUnlocked(samePkg); ok {
			return samePkg, true
		}

		// 5. 通配符导入
		for _, w := range fc.Wildcards {
			if w.IsStatic {
				continue
			}
			qn := w.RawImportPath + "." + name
			if _, ok := gc.LookupTypeUnlocked(qn); ok {
				return qn, true
			}
		}
	}

	// 6. java.lang 隐式导入
	if javaLangTypes[name] {
		return "java.lang." + name, true
	}
	return "", false
}

// ResolveInvocation 确定接收者的静态类型，再按方法名与参数个数沿继承链查找目标。
// 目标类型不在源码模型内时返回一个 External 占位方法，由调用方决定如何处理。
func (j *SymbolResolver) ResolveInvocation(gc *core.GlobalContext, caller *core.MethodDecl, call *core.CallSite) (*core.MethodDecl, bool) {
	owner := caller.Declaring
	if owner == nil {
		return nil, false
	}

	receiver := strings.TrimSpace(call.Receiver)
	switch {
	case receiver == "" || receiver == "this":
		// 内部类中的无接收者调用可以落到外部类
		for t := owner; t != nil; t = enclosingType(gc, t) {
			if m, ok := j.findMethod(gc, t, call); ok {
				return m, true
			}
		}
		return nil, false

	case receiver == "super":
		superQN, ok := gc.ResolveType(owner.File, owner.SuperClass)
		if !ok {
			return nil, false
		}
		return j.dispatch(gc, superQN, call)
	}

	typeQN, ok := j.receiverType(gc, caller, receiver)
	if !ok {
		return nil, false
	}
	return j.dispatch(gc, typeQN, call)
}

func (j *SymbolResolver) receiverType(gc *core.GlobalContext, caller *core.MethodDecl, receiver string) (string, bool) {
	owner := caller.Declaring

	if strings.HasPrefix(receiver, "new ") {
		typeName := strings.TrimSpace(strings.TrimPrefix(receiver, "new "))
		if i := strings.IndexAny(typeName, "(<"); i >= 0 {
			typeName = typeName[:i]
		}
		return gc.ResolveType(owner.File, typeName)
	}

	name := receiver
	fieldOnly := false
	if strings.HasPrefix(receiver, "this.") {
		name = strings.TrimPrefix(receiver, "this.")
		fieldOnly = true
	}
	if !isIdentifier(name) {
		return "", false
	}

	if !fieldOnly {
		if declared, ok := caller.Locals[name]; ok {
			return gc.ResolveType(owner.File, declared)
		}
	}

	seen := make(map[string]bool)
	for t := owner; t != nil && !seen[t.QualifiedName]; {
		seen[t.QualifiedName] = true
		if f := t.Field(name); f != nil {
			return gc.ResolveType(t.File, f.Type)
		}
		superQN, ok := gc.ResolveType(t.File, t.SuperClass)
		if !ok {
			break
		}
		t, _ = gc.Type(superQN)
	}

	// 大写开头视为静态调用的类型名
	if !fieldOnly && unicode.IsUpper([]rune(name)[0]) {
		return gc.ResolveType(owner.File, name)
	}
	return "", false
}

// dispatch 在声明类型上查找方法。接口只有一个实现类时落到实现类上，
// 多个实现类无法静态确定，没有实现类时停在接口本身。
func (j *SymbolResolver) dispatch(gc *core.GlobalContext, typeQN string, call *core.CallSite) (*core.MethodDecl, bool) {
	t, ok := gc.Type(typeQN)
	if !ok {
		return externalMethod(typeQN, call), true
	}

	if t.Kind == model.Interface {
		var impls []*core.TypeDecl
		for _, impl := range gc.Implementers(t.QualifiedName) {
			if impl.Kind != model.Interface {
				impls = append(impls, impl)
			}
		}
		switch len(impls) {
		case 0:
		case 1:
			if m, ok := j.findMethod(gc, impls[0], call); ok {
				return m, true
			}
		default:
			return nil, false
		}
	}
	return j.findMethod(gc, t, call)
}

// findMethod 按名字与参数个数匹配，沿父类链向上查找
func (j *SymbolResolver) findMethod(gc *core.GlobalContext, t *core.TypeDecl, call *core.CallSite) (*core.MethodDecl, bool) {
	seen := make(map[string]bool)
	for t != nil && !seen[t.QualifiedName] {
		seen[t.QualifiedName] = true
		m, ambiguous := matchOverload(t.MethodsNamed(call.Name), call)
		if ambiguous {
			// 重载无法静态区分时不猜测
			return nil, false
		}
		if m != nil {
			return m, true
		}
		if t.SuperClass == "" {
			return nil, false
		}
		superQN, ok := gc.ResolveType(t.File, t.SuperClass)
		if !ok {
			return nil, false
		}
		next, ok := gc.Type(superQN)
		if !ok {
			return externalMethod(superQN, call), true
		}
		t = next
	}
	return nil, false
}

// matchOverload 先按参数个数匹配，再按可变参数匹配。同一阶段有多个候选时
// 用字面量参数类型筛选，仍不唯一则返回 ambiguous。
func matchOverload(candidates []*core.MethodDecl, call *core.CallSite) (*core.MethodDecl, bool) {
	var exact, varargs []*core.MethodDecl
	for _, m := range candidates {
		n := len(m.ParamTypes)
		switch {
		case n == call.ArgCount:
			exact = append(exact, m)
		case n > 0 && strings.HasSuffix(m.ParamTypes[n-1], "...") && call.ArgCount >= n-1:
			varargs = append(varargs, m)
		}
	}
	for _, phase := range [][]*core.MethodDecl{exact, varargs} {
		switch len(phase) {
		case 0:
			continue
		case 1:
			return phase[0], false
		}
		return pickByArgKinds(phase, call.ArgKinds)
	}
	return nil, false
}

func pickByArgKinds(candidates []*core.MethodDecl, kinds []string) (*core.MethodDecl, bool) {
	var compatible, identical []*core.MethodDecl
	for _, m := range candidates {
		ok, same := argsMatch(m.ParamTypes, kinds)
		if !ok {
			continue
		}
		compatible = append(compatible, m)
		if same {
			identical = append(identical, m)
		}
	}
	switch {
	case len(compatible) == 1:
		return compatible[0], false
	case len(identical) == 1:
		return identical[0], false
	}
	return nil, true
}

// argsMatch 判断字面量参数能否传给 params；same 表示每个参数类型都已知且完全一致
func argsMatch(params, kinds []string) (ok bool, same bool) {
	same = len(kinds) > 0
	for i, kind := range kinds {
		if len(params) == 0 {
			return false, false
		}
		p := params[min(i, len(params)-1)]
		if strings.HasSuffix(p, "...") {
			p = strings.TrimSuffix(p, "...")
			same = false
		}
		p = simpleTypeName(p)
		if !literalAssignable(kind, p) {
			return false, false
		}
		if kind == "" || kind == "null" || kind != p {
			same = false
		}
	}
	return true, same
}

// literalAssignable 按方法调用上下文的宽化与装箱规则判断，未知类型一律视为兼容
func literalAssignable(kind, param string) bool {
	if kind == "" {
		return true
	}
	if kind == "null" {
		return !primitiveTypes[param]
	}
	return literalTargets[kind][param]
}

var literalTargets = map[string]map[string]bool{
	"String":  typeSet("String", "CharSequence", "Object", "Serializable", "Comparable"),
	"boolean": typeSet("boolean", "Boolean", "Object", "Serializable", "Comparable"),
	"char":    typeSet("char", "int", "long", "float", "double", "Character", "Object", "Serializable", "Comparable"),
	"int":     typeSet("int", "long", "float", "double", "Integer", "Number", "Object", "Serializable", "Comparable"),
	"long":    typeSet("long", "float", "double", "Long", "Number", "Object", "Serializable", "Comparable"),
	"float":   typeSet("float", "double", "Float", "Number", "Object", "Serializable", "Comparable"),
	"double":  typeSet("double", "Double", "Number", "Object", "Serializable", "Comparable"),
}

func typeSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// simpleTypeName 去掉泛型参数、final 修饰与包名
func simpleTypeName(t string) string {
	t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "final "))
	if i := strings.Index(t, "<"); i >= 0 {
		t = t[:i]
	}
	return t[strings.LastIndex(t, ".")+1:]
}

func enclosingType(gc *core.GlobalContext, t *core.TypeDecl) *core.TypeDecl {
	i := strings.LastIndex(t.QualifiedName, ".")
	if i < 0 {
		return nil
	}
	outer, ok := gc.Type(t.QualifiedName[:i])
	if !ok {
		return nil
	}
	return outer
}

func externalMethod(typeQN string, call *core.CallSite) *core.MethodDecl {
	name := typeQN[strings.LastIndex(typeQN, ".")+1:]
	decl := &core.TypeDecl{Kind: model.Unknown, Name: name, QualifiedName: typeQN, External: true}
	params := make([]string, call.ArgCount)
	for i := range params {
		params[i] = "?"
	}
	return decl.AddMethod(&core.MethodDecl{Name: call.Name, ParamTypes: params})
}

var primitiveTypes = map[string]bool{
	"void": true, "boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "var": true,
}

func isPackageLike(segment string) bool {
	return segment != "" && unicode.IsLower([]rune(segment)[0])
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
