package java

import (
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Collector struct{}

func NewJavaCollector() *Collector {
	return &Collector{}
}

func (c *Collector) CollectDefinitions(rootNode *sitter.Node, filePath string, sourceBytes []byte) (*core.FileContext, error) {
	fCtx := core.NewFileContext(filePath, "")

	// 1. 处理顶级声明 (Package & Imports)
	c.processTopLevelDeclarations(rootNode, fCtx, sourceBytes)

	// 2. 收集类型定义
	for i := uint(0); i < rootNode.NamedChildCount(); i++ {
		child := rootNode.NamedChild(i)
		if child != nil && typeDeclarationKinds[child.Kind()] {
			c.collectType(child, fCtx, "", sourceBytes)
		}
	}
	return fCtx, nil
}

func (c *Collector) processTopLevelDeclarations(root *sitter.Node, fCtx *core.FileContext, src []byte) {
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "package_declaration":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				sub := child.NamedChild(j)
				if sub.Kind() == "scoped_identifier" || sub.Kind() == "identifier" {
					fCtx.PackageName = c.getNodeContent(sub, src)
					break
				}
			}
		case "import_declaration":
			c.handleImport(child, fCtx, src)
		}
	}
}

func (c *Collector) handleImport(node *sitter.Node, fCtx *core.FileContext, src []byte) {
	isStatic := false
	var pathParts []string

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "static":
			isStatic = true
		case "scoped_identifier", "identifier", "asterisk":
			pathParts = append(pathParts, c.getNodeContent(child, src))
		}
	}
	if len(pathParts) == 0 {
		return
	}

	fullPath := strings.Join(pathParts, ".")
	entry := &core.ImportEntry{
		RawImportPath: fullPath,
		IsStatic:      isStatic,
		IsWildcard:    pathParts[len(pathParts)-1] == "*",
		Location:      c.extractLocation(node, fCtx.FilePath),
	}
	if entry.IsWildcard {
		entry.RawImportPath = strings.TrimSuffix(fullPath, ".*")
		entry.Alias = "*"
	} else {
		entry.Alias = fullPath[strings.LastIndex(fullPath, ".")+1:]
	}
	fCtx.AddImport(entry)
}

func (c *Collector) collectType(node *sitter.Node, fCtx *core.FileContext, parentQN string, src []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	t := &core.TypeDecl{
		Kind:        typeKind(node.Kind()),
		Name:        c.getNodeContent(nameNode, src),
		Annotations: c.extractAnnotations(node, fCtx.FilePath, src),
		Location:    c.extractLocation(node, fCtx.FilePath),
	}

	if scNode := node.ChildByFieldName("superclass"); scNode != nil {
		for i := uint(0); i < scNode.NamedChildCount(); i++ {
			t.SuperClass = c.getNodeContent(scNode.NamedChild(i), src)
			break
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "super_interfaces" || child.Kind() == "extends_interfaces" {
			c.recursiveCollectTypes(child, &t.Interfaces, src)
		}
	}

	fCtx.AddType(t, parentQN)

	// record 组件即字段
	if node.Kind() == "record_declaration" {
		if params := node.ChildByFieldName("parameters"); params != nil {
			for i := uint(0); i < params.NamedChildCount(); i++ {
				p := params.NamedChild(i)
				if p.Kind() != "formal_parameter" {
					continue
				}
				t.Fields = append(t.Fields, &core.FieldDecl{
					Name: c.getNodeContent(p.ChildByFieldName("name"), src),
					Type: c.getNodeContent(p.ChildByFieldName("type"), src),
				})
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	c.collectMembers(body, t, fCtx, src)
}

func (c *Collector) collectMembers(body *sitter.Node, t *core.TypeDecl, fCtx *core.FileContext, src []byte) {
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		kind := member.Kind()
		switch {
		case kind == "enum_body_declarations":
			c.collectMembers(member, t, fCtx, src)
		case kind == "field_declaration" || kind == "constant_declaration":
			fieldType := c.getNodeContent(member.ChildByFieldName("type"), src)
			annos := c.extractAnnotations(member, fCtx.FilePath, src)
			for j := uint(0); j < member.NamedChildCount(); j++ {
				decl := member.NamedChild(j)
				if decl.Kind() != "variable_declarator" {
					continue
				}
				t.Fields = append(t.Fields, &core.FieldDecl{
					Name:        c.getNodeContent(decl.ChildByFieldName("name"), src),
					Type:        fieldType,
					Annotations: annos,
				})
			}
		case methodDeclarationKinds[kind]:
			c.collectMethod(member, t, fCtx, src)
		case typeDeclarationKinds[kind]:
			c.collectType(member, fCtx, t.QualifiedName, src)
		}
	}
}

func (c *Collector) collectMethod(node *sitter.Node, t *core.TypeDecl, fCtx *core.FileContext, src []byte) {
	name := c.getNodeContent(node.ChildByFieldName("name"), src)
	if name == "" {
		name = t.Name
	}

	m := &core.MethodDecl{
		Name:        name,
		Annotations: c.extractAnnotations(node, fCtx.FilePath, src),
		Location:    c.extractLocation(node, fCtx.FilePath),
		Locals:      make(map[string]string),
	}

	var paramDecls []string
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			p := params.NamedChild(i)
			var pType, pName string
			switch p.Kind() {
			case "formal_parameter":
				pType = c.getNodeContent(p.ChildByFieldName("type"), src)
				pName = c.getNodeContent(p.ChildByFieldName("name"), src)
			case "spread_parameter":
				for j := uint(0); j < p.NamedChildCount(); j++ {
					sub := p.NamedChild(j)
					switch {
					case sub.Kind() == "variable_declarator":
						pName = c.getNodeContent(sub.ChildByFieldName("name"), src)
					case sub.Kind() != "modifiers" && pType == "":
						pType = c.getNodeContent(sub, src) + "..."
					}
				}
			default:
				continue
			}
			pType = compactType(pType)
			m.ParamTypes = append(m.ParamTypes, pType)
			paramDecls = append(paramDecls, pType+" "+pName)
			if pName != "" {
				m.Locals[pName] = strings.TrimSuffix(pType, "...")
			}
		}
	}
	m.Signature = name + "(" + strings.Join(paramDecls, ", ") + ")"
	t.AddMethod(m)

	if body := node.ChildByFieldName("body"); body != nil {
		m.HasBody = true
		c.walkBody(body, m, fCtx.FilePath, src)
	}
}

// walkBody 按源码顺序收集调用点、字符串字面量与局部变量类型
func (c *Collector) walkBody(node *sitter.Node, m *core.MethodDecl, filePath string, src []byte) {
	switch node.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		// 局部类型不归属于当前方法
		return
	case "string_literal", "text_block":
		m.Literals = append(m.Literals, core.Literal{
			Value:    core.Unquote(c.getNodeContent(node, src)),
			Location: c.extractLocation(node, filePath),
		})
		return
	case "local_variable_declaration":
		localType := compactType(c.getNodeContent(node.ChildByFieldName("type"), src))
		for i := uint(0); i < node.NamedChildCount(); i++ {
			decl := node.NamedChild(i)
			if decl.Kind() == "variable_declarator" {
				m.Locals[c.getNodeContent(decl.ChildByFieldName("name"), src)] = localType
			}
		}
	case "enhanced_for_statement", "catch_formal_parameter", "resource":
		if tNode, nNode := node.ChildByFieldName("type"), node.ChildByFieldName("name"); tNode != nil && nNode != nil {
			m.Locals[c.getNodeContent(nNode, src)] = compactType(c.getNodeContent(tNode, src))
		}
	case "method_invocation":
		// 先记录外层调用，再处理参数与接收者中的嵌套调用
		m.CallSites = append(m.CallSites, c.buildCallSite(node, m, filePath, src))
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			c.walkBody(child, m, filePath, src)
		}
	}
}

func (c *Collector) buildCallSite(node *sitter.Node, m *core.MethodDecl, filePath string, src []byte) *core.CallSite {
	call := &core.CallSite{
		Name:      c.getNodeContent(node.ChildByFieldName("name"), src),
		Receiver:  c.getNodeContent(node.ChildByFieldName("object"), src),
		Location:  c.extractLocation(node, filePath),
		Enclosing: m.ID,
	}

	if args := node.ChildByFieldName("arguments"); args != nil {
		call.ArgCount = int(args.NamedChildCount())
		call.ArgKinds = make([]string, call.ArgCount)
		for i := range call.ArgKinds {
			call.ArgKinds[i] = literalKind(args.NamedChild(uint(i)), src)
		}
		if call.ArgCount > 0 {
			if first := args.NamedChild(0); first != nil && first.Kind() == "string_literal" {
				v := core.Unquote(c.getNodeContent(first, src))
				call.FirstArg = &v
			}
		}
	}

	// 越过强转与括号，找到调用结果的去向
	outer := node
	parent := node.Parent()
	for parent != nil && (parent.Kind() == "cast_expression" || parent.Kind() == "parenthesized_expression") {
		outer = parent
		parent = parent.Parent()
	}
	if parent == nil {
		return call
	}
	switch parent.Kind() {
	case "method_invocation":
		if obj := parent.ChildByFieldName("object"); obj != nil && sameNode(obj, outer) {
			call.Chained = c.getNodeContent(parent.ChildByFieldName("name"), src)
		}
	case "variable_declarator":
		call.AssignTo = c.getNodeContent(parent.ChildByFieldName("name"), src)
	case "assignment_expression":
		if left := parent.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			call.AssignTo = c.getNodeContent(left, src)
		}
	}
	return call
}

func (c *Collector) extractAnnotations(n *sitter.Node, filePath string, src []byte) []core.Annotation {
	var mNode *sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil && child.Kind() == "modifiers" {
			mNode = child
			break
		}
	}
	if mNode == nil {
		return nil
	}

	var annos []core.Annotation
	for i := uint(0); i < mNode.NamedChildCount(); i++ {
		child := mNode.NamedChild(i)
		if child.Kind() != "marker_annotation" && child.Kind() != "annotation" {
			continue
		}
		anno := core.Annotation{
			Name:     c.getNodeContent(child.ChildByFieldName("name"), src),
			Location: c.extractLocation(child, filePath),
		}
		if args := child.ChildByFieldName("arguments"); args != nil {
			anno.Arguments = core.StripParens(c.getNodeContent(args, src))
		}
		annos = append(annos, anno)
	}
	return annos
}

func (c *Collector) recursiveCollectTypes(n *sitter.Node, results *[]string, src []byte) {
	kind := n.Kind()
	if kind == "type_identifier" || kind == "scoped_type_identifier" || kind == "generic_type" {
		*results = append(*results, c.getNodeContent(n, src))
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c.recursiveCollectTypes(n.NamedChild(i), results, src)
	}
}

func (c *Collector) extractLocation(n *sitter.Node, filePath string) *model.Location {
	if n == nil {
		return nil
	}
	return &model.Location{
		FilePath:    filePath,
		StartLine:   int(n.StartPosition().Row) + 1,
		EndLine:     int(n.EndPosition().Row) + 1,
		StartColumn: int(n.StartPosition().Column),
		EndColumn:   int(n.EndPosition().Column),
	}
}

func (c *Collector) getNodeContent(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(src)
}

func typeKind(nodeKind string) model.ElementKind {
	switch nodeKind {
	case "class_declaration":
		return model.Class
	case "interface_declaration":
		return model.Interface
	case "enum_declaration":
		return model.Enum
	case "record_declaration":
		return model.Record
	case "annotation_type_declaration":
		return model.KAnnotation
	default:
		return model.Unknown
	}
}

// compactType 去掉类型文本中的空白，"Map<String, Long>" -> "Map<String,Long>"
func compactType(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// literalKind 返回字面量参数的 Java 类型，其它表达式返回空串
func literalKind(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "string_literal", "text_block":
		return "String"
	case "character_literal":
		return "char"
	case "true", "false":
		return "boolean"
	case "null_literal":
		return "null"
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if strings.HasSuffix(strings.ToLower(node.Utf8Text(src)), "l") {
			return "long"
		}
		return "int"
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		if strings.HasSuffix(strings.ToLower(node.Utf8Text(src)), "f") {
			return "float"
		}
		return "double"
	}
	return ""
}
