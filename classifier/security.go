package classifier

import (
	"regexp"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// SecurityAnnotations 识别的安全注解，按此顺序输出记录
var SecurityAnnotations = []string{"PreAuthorize", "PostAuthorize", "Secured", "RolesAllowed"}

// 只识别 hasRole('X') 写法，其它表达式记录但角色为空
var hasRolePattern = regexp.MustCompile(`hasRole\(\s*'([^']*)'\s*\)`)

var valueKeyPattern = regexp.MustCompile(`^\s*value\s*=\s*`)

// SecurityClassifier 将方法上的安全注解转换为安全规则
type SecurityClassifier struct{}

func NewSecurityClassifier() *SecurityClassifier { return &SecurityClassifier{} }

func (c *SecurityClassifier) Name() string { return "security" }

func (c *SecurityClassifier) Classify(m *core.MethodDecl) []model.DependencyRecord {
	var out []model.DependencyRecord
	for _, name := range SecurityAnnotations {
		anno := m.Annotation(name)
		if anno == nil {
			continue
		}
		expr := NormalizeGuardExpression(anno.Arguments)
		loc := anno.Location
		if loc == nil {
			loc = m.Location
		}
		out = append(out, model.NewSecurityRule(loc, expr, ExtractRoles(expr)))
	}
	return out
}

// NormalizeGuardExpression 去掉括号、value= 键、引号与花括号，保留表达式本身
func NormalizeGuardExpression(raw string) string {
	expr := core.StripParens(raw)
	expr = valueKeyPattern.ReplaceAllString(expr, "")
	expr = strings.NewReplacer(`"`, "", "{", "", "}", "").Replace(expr)
	return strings.TrimSpace(expr)
}

// ExtractRoles 按出现顺序返回 hasRole('X') 中的角色
func ExtractRoles(expr string) []string {
	roles := []string{}
	for _, match := range hasRolePattern.FindAllStringSubmatch(expr, -1) {
		roles = append(roles, match[1])
	}
	return roles
}
