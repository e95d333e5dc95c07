package classifier

import (
	"regexp"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

var (
	// 只做关键字检测，不解析 SQL，允许误报
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|CALL)\b`)
	sqlTablePattern   = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE)\s+([A-Za-z_][\w.$]*)`)
)

// 字段类型名包含这些片段时视为数据源
var dataSourceTypeHints = []string{
	"DataSource", "JdbcTemplate", "EntityManager", "SessionFactory", "Session", "Connection",
}

// SQLClassifier 将含 SQL 关键字的字符串字面量识别为数据库调用
type SQLClassifier struct{}

func NewSQLClassifier() *SQLClassifier { return &SQLClassifier{} }

func (c *SQLClassifier) Name() string { return "sql" }

func (c *SQLClassifier) Classify(m *core.MethodDecl) []model.DependencyRecord {
	var out []model.DependencyRecord
	var target string
	targetResolved := false

	for _, lit := range m.Literals {
		if !sqlKeywordPattern.MatchString(lit.Value) {
			continue
		}
		if !targetResolved {
			target = dataSourceTarget(m.Declaring)
			targetResolved = true
		}
		out = append(out, model.NewDatabaseCall(lit.Location, lit.Value, target, ExtractTables(lit.Value)))
	}
	return out
}

// ExtractTables 尽力从 SQL 文本中提取表名，按出现顺序去重
func ExtractTables(query string) []string {
	var tables []string
	seen := make(map[string]bool)
	for _, match := range sqlTablePattern.FindAllStringSubmatch(query, -1) {
		name := match[1]
		key := strings.ToUpper(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		tables = append(tables, name)
	}
	return tables
}

// dataSourceTarget 取所属类型上第一个数据源字段，优先使用注入注解上的名字
func dataSourceTarget(t *core.TypeDecl) string {
	if t == nil {
		return ""
	}
	for _, f := range t.Fields {
		if !isDataSourceType(f.Type) {
			continue
		}
		for _, annoName := range []string{"Resource", "Qualifier", "Named"} {
			anno := findFieldAnnotation(f, annoName)
			if anno == nil {
				continue
			}
			if raw, ok := anno.Attribute("name", "lookup", "mappedName", "value"); ok {
				if vals := core.StringValues(raw); len(vals) > 0 && vals[0] != "" {
					return vals[0]
				}
			}
		}
		return f.Name
	}
	return ""
}

func isDataSourceType(typeName string) bool {
	for _, hint := range dataSourceTypeHints {
		if strings.Contains(typeName, hint) {
			return true
		}
	}
	return false
}

func findFieldAnnotation(f *core.FieldDecl, name string) *core.Annotation {
	for i := range f.Annotations {
		a := &f.Annotations[i]
		if a.Name == name || strings.HasSuffix(a.Name, "."+name) {
			return a
		}
	}
	return nil
}
