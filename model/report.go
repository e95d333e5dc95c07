package model

import "time"

// ConfigSnapshot 是分析时生效配置的快照，随报告一起输出
type ConfigSnapshot struct {
	MaxDepth                int      `json:"MaxDepth"`
	ExcludeTestPaths        bool     `json:"ExcludeTestPaths"`
	ExcludePatterns         []string `json:"ExcludePatterns,omitempty"`
	StandardLibraryPrefixes []string `json:"StandardLibraryPrefixes,omitempty"`
	Workers                 int      `json:"Workers"`
	PropertiesFile          string   `json:"PropertiesFile,omitempty"`
}

// AnalyzedEntryPoint 入口点及其依赖图
type AnalyzedEntryPoint struct {
	EntryPoint *EntryPoint            `json:"EntryPoint"`
	Graph      *DependencyGraphResult `json:"Graph"`
}

// ReportSummary 报告级别的计数
type ReportSummary struct {
	EntryPoints   int `json:"EntryPoints"`
	CallEdges     int `json:"CallEdges"`
	DatabaseCalls int `json:"DatabaseCalls"`
	RemoteLookups int `json:"RemoteLookups"`
	SecurityRules int `json:"SecurityRules"`
}

// AnalysisReport 单个项目的分析报告，只由报告装配器在分析期间修改
type AnalysisReport struct {
	RunID         string                `json:"RunID,omitempty"`
	ProjectName   string                `json:"ProjectName"`
	ProjectRoot   string                `json:"ProjectRoot,omitempty"`
	GeneratedAt   time.Time             `json:"GeneratedAt"`
	Framework     Framework             `json:"Framework"`
	Configuration ConfigSnapshot        `json:"Configuration"`
	EntryPoints   []*AnalyzedEntryPoint `json:"EntryPoints"`
	Summary       ReportSummary         `json:"Summary"`
}

// Append 追加一个入口点结果并更新计数
func (r *AnalysisReport) Append(ep *EntryPoint, graph *DependencyGraphResult) {
	r.EntryPoints = append(r.EntryPoints, &AnalyzedEntryPoint{EntryPoint: ep, Graph: graph})
	r.Summary.EntryPoints++
	if graph == nil {
		return
	}
	r.Summary.CallEdges += len(graph.Edges)
	counts := graph.CountByType()
	r.Summary.DatabaseCalls += counts[DatabaseCallType]
	r.Summary.RemoteLookups += counts[RemoteLookupType]
	r.Summary.SecurityRules += counts[SecurityRuleType]
}

// --- 项目级结果 ---

// ProjectStatus 项目处理状态
type ProjectStatus string

const (
	ProjectAnalyzed ProjectStatus = "ANALYZED"
	ProjectNoReport ProjectStatus = "NO_REPORT" // 没有发现任何入口点
	ProjectFailed   ProjectStatus = "FAILED"
)

// ProjectOutcome 记录一个项目的处理结果，失败不影响其它项目
type ProjectOutcome struct {
	Project    string          `json:"Project"`
	Root       string          `json:"Root"`
	Status     ProjectStatus   `json:"Status"`
	Message    string          `json:"Message,omitempty"`
	Framework  Framework       `json:"Framework,omitempty"`
	ReportPath string          `json:"ReportPath,omitempty"`
	Summary    *ReportSummary  `json:"Summary,omitempty"`
	Report     *AnalysisReport `json:"-"`
}
