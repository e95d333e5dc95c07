package dependency

import (
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// 组件角色注解，按优先级排列
var roleAnnotations = []struct {
	annotation string
	role       model.Role
}{
	{"Service", model.RoleService},
	{"Repository", model.RoleRepository},
	{"Component", model.RoleComponent},
	{"RestController", model.RoleController},
}

// 命名约定，注解缺失时使用
var roleSuffixes = []struct {
	suffix string
	role   model.Role
}{
	{"Service", model.RoleService},
	{"Repository", model.RoleRepository},
	{"Controller", model.RoleController},
	{"Client", model.RoleExternalAPI},
}

// ClassifyRole 启发式判定类型的架构角色。命名不同而行为相同的类型可能得到不同结果。
func ClassifyRole(t *core.TypeDecl) model.Role {
	if t == nil {
		return model.RoleComponent
	}
	for _, ra := range roleAnnotations {
		if t.HasAnnotation(ra.annotation) {
			return ra.role
		}
	}
	for _, rs := range roleSuffixes {
		if strings.HasSuffix(t.Name, rs.suffix) {
			return rs.role
		}
	}
	return model.RoleComponent
}
