package model

// --- 外部依赖记录类型 (Dependency Record Types) ---

// DependencyType 是外部依赖记录的判别字段
type DependencyType string

const (
	DatabaseCallType DependencyType = "DATABASE"      // DatabaseCall: 方法体内出现 SQL 字面量
	RemoteLookupType DependencyType = "REMOTE_LOOKUP" // RemoteLookupCall: 通过 lookup("key") 获取远程组件
	SecurityRuleType DependencyType = "SECURITY"      // SecurityRule: 方法被安全注解保护
)

// DatabaseCall 数据库调用
type DatabaseCall struct {
	Query  string   `json:"Query"`
	Target string   `json:"Target,omitempty"` // 数据源/连接目标，无法确定时为空
	Tables []string `json:"Tables,omitempty"` // 尽力提取，允许不完整
}

// RemoteLookupCall 远程组件查找
type RemoteLookupCall struct {
	LookupKey     string `json:"LookupKey"`
	InvokedMethod string `json:"InvokedMethod,omitempty"`
}

// SecurityRule 安全规则
type SecurityRule struct {
	Expression    string   `json:"Expression"`
	RequiredRoles []string `json:"RequiredRoles"`
}

// DependencyRecord 是一个封闭的变体集合，Type 决定哪个变体字段有效。
type DependencyRecord struct {
	Type         DependencyType    `json:"Type"`
	Method       string            `json:"Method,omitempty"` // 产生该记录的方法标识，由遍历填充
	Location     *Location         `json:"Location,omitempty"`
	Database     *DatabaseCall     `json:"Database,omitempty"`
	RemoteLookup *RemoteLookupCall `json:"RemoteLookup,omitempty"`
	Security     *SecurityRule     `json:"Security,omitempty"`
}

func NewDatabaseCall(loc *Location, query, target string, tables []string) DependencyRecord {
	return DependencyRecord{
		Type:     DatabaseCallType,
		Location: loc,
		Database: &DatabaseCall{Query: query, Target: target, Tables: tables},
	}
}

func NewRemoteLookupCall(loc *Location, key, invoked string) DependencyRecord {
	return DependencyRecord{
		Type:         RemoteLookupType,
		Location:     loc,
		RemoteLookup: &RemoteLookupCall{LookupKey: key, InvokedMethod: invoked},
	}
}

func NewSecurityRule(loc *Location, expression string, roles []string) DependencyRecord {
	if roles == nil {
		roles = []string{}
	}
	return DependencyRecord{
		Type:     SecurityRuleType,
		Location: loc,
		Security: &SecurityRule{Expression: expression, RequiredRoles: roles},
	}
}

// --- 内部调用边 (Internal Call Edges) ---

// Role 是被调用方所属类型的架构角色，启发式判定
type Role string

const (
	RoleService     Role = "SERVICE"
	RoleRepository  Role = "REPOSITORY"
	RoleController  Role = "CONTROLLER"
	RoleComponent   Role = "COMPONENT"
	RoleExternalAPI Role = "EXTERNAL_API"
)

// InternalCallEdge 描述调用图中的一步，Depth 从入口方法的 0 开始计数
type InternalCallEdge struct {
	Caller          string    `json:"Caller,omitempty"`
	Callee          string    `json:"Callee,omitempty"`
	CalleeType      string    `json:"CalleeType"`
	Role            Role      `json:"Role"`
	CalleeSignature string    `json:"CalleeSignature"`
	Depth           int       `json:"Depth"`
	Location        *Location `json:"Location,omitempty"`
}

// DependencyGraphResult 单个入口点一次遍历的累积结果
type DependencyGraphResult struct {
	Edges   []InternalCallEdge `json:"Edges"`
	Records []DependencyRecord `json:"Records"`
}

func NewDependencyGraphResult() *DependencyGraphResult {
	return &DependencyGraphResult{
		Edges:   make([]InternalCallEdge, 0),
		Records: make([]DependencyRecord, 0),
	}
}

// CountByType 统计各类依赖记录的数量
func (r *DependencyGraphResult) CountByType() map[DependencyType]int {
	counts := make(map[DependencyType]int)
	for _, rec := range r.Records {
		counts[rec.Type]++
	}
	return counts
}
