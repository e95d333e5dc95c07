package processor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/config"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/metrics"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/processor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var workspace = filepath.Join("testdata", "workspace")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProcessor(t *testing.T, rec *metrics.Recorder) *processor.Processor {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	return processor.NewProcessor(cfg, quietLogger(), rec)
}

func TestDiscoverProjects(t *testing.T) {
	projects, err := processor.DiscoverProjects(workspace)
	require.NoError(t, err)

	var names []string
	for _, p := range projects {
		names = append(names, p.Name)
	}
	// target/ 下复制出来的 pom.xml 不算项目
	assert.Equal(t, []string{"accounts", "accounts-batch", "tools"}, names)

	assert.Equal(t, filepath.Join(workspace, "accounts"), projects[0].Root)
	assert.Equal(t, []string{filepath.Join(workspace, "accounts", "batch")}, projects[0].Children)
	assert.Empty(t, projects[1].Children)
}

func TestDiscoverProjects_FallsBackToRoot(t *testing.T) {
	root := t.TempDir()
	projects, err := processor.DiscoverProjects(root)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, filepath.Base(root), projects[0].Name)
	assert.Equal(t, root, projects[0].Root)
}

func TestDiscoverProjects_UnreadableRoot(t *testing.T) {
	_, err := processor.DiscoverProjects(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, processor.ErrRootUnreadable))

	file := filepath.Join(t.TempDir(), "pom.xml")
	require.NoError(t, os.WriteFile(file, []byte("<project/>"), 0o644))
	_, err = processor.DiscoverProjects(file)
	assert.True(t, errors.Is(err, processor.ErrRootUnreadable))
}

func TestAnalyzeProject_EndToEnd(t *testing.T) {
	p := newProcessor(t, nil)
	projects, err := processor.DiscoverProjects(workspace)
	require.NoError(t, err)

	report, err := p.AnalyzeProject(context.Background(), projects[0])
	require.NoError(t, err)

	assert.Equal(t, "accounts", report.ProjectName)
	assert.Equal(t, model.FrameworkSpringMVC, report.Framework)
	assert.Equal(t, p.RunID(), report.RunID)
	assert.Equal(t, 10, report.Configuration.MaxDepth)
	assert.False(t, report.GeneratedAt.IsZero())

	// 嵌套模块 batch 中的入口点不计入父项目
	require.Len(t, report.EntryPoints, 1)
	analyzed := report.EntryPoints[0]
	assert.Equal(t, "/accounts", analyzed.EntryPoint.Path)
	assert.Equal(t, []model.HTTPVerb{model.VerbGet}, analyzed.EntryPoint.Verbs)
	assert.Equal(t, "com.acme.web.AccountController#list()", analyzed.EntryPoint.MethodID)

	graph := analyzed.Graph
	require.Len(t, graph.Edges, 1)
	edge := graph.Edges[0]
	assert.Equal(t, "com.acme.repo.AccountRepository", edge.CalleeType)
	assert.Equal(t, model.RoleRepository, edge.Role)
	assert.Equal(t, 1, edge.Depth)
	assert.Equal(t, "findAll()", edge.CalleeSignature)

	counts := graph.CountByType()
	assert.Equal(t, 1, counts[model.DatabaseCallType])
	assert.Equal(t, 1, counts[model.SecurityRuleType])
	assert.Equal(t, 0, counts[model.RemoteLookupType])

	for _, rec := range graph.Records {
		switch rec.Type {
		case model.DatabaseCallType:
			assert.Equal(t, "SELECT * FROM ACCOUNTS", rec.Database.Query)
			assert.Equal(t, []string{"ACCOUNTS"}, rec.Database.Tables)
		case model.SecurityRuleType:
			assert.Equal(t, "hasRole('ADMIN')", rec.Security.Expression)
			assert.Equal(t, []string{"ADMIN"}, rec.Security.RequiredRoles)
		}
	}

	assert.Equal(t, model.ReportSummary{EntryPoints: 1, CallEdges: 1, DatabaseCalls: 1, SecurityRules: 1}, report.Summary)
}

func TestAnalyzeProject_MissingRoot(t *testing.T) {
	p := newProcessor(t, nil)
	_, err := p.AnalyzeProject(context.Background(), processor.Project{Name: "gone", Root: filepath.Join(t.TempDir(), "gone")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrModelBuild))
}

func TestProcessProject_FailureIsIsolated(t *testing.T) {
	p := newProcessor(t, nil)
	outcome := p.ProcessProject(context.Background(), processor.Project{Name: "gone", Root: filepath.Join(t.TempDir(), "gone")})

	assert.Equal(t, model.ProjectFailed, outcome.Status)
	assert.NotEmpty(t, outcome.Message)
	assert.Nil(t, outcome.Report)
}

// explodingResolver 在解析调用时 panic，类型解析保持正常
type explodingResolver struct {
	core.SymbolResolver
}

func (explodingResolver) ResolveInvocation(*core.GlobalContext, *core.MethodDecl, *core.CallSite) (*core.MethodDecl, bool) {
	panic("resolver bug")
}

func TestRun_PanicIsIsolated(t *testing.T) {
	original, err := core.GetSymbolResolver(model.LangJava)
	require.NoError(t, err)
	core.RegisterSymbolResolver(model.LangJava, explodingResolver{original})
	t.Cleanup(func() { core.RegisterSymbolResolver(model.LangJava, original) })

	outcomes, err := newProcessor(t, nil).Run(context.Background(), workspace)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	accounts, tools := outcomes[0], outcomes[2]
	assert.Equal(t, model.ProjectFailed, accounts.Status)
	assert.Contains(t, accounts.Message, "panic: resolver bug")
	assert.Nil(t, accounts.Report)
	// 没有调用可解析的项目不受影响
	assert.Equal(t, model.ProjectNoReport, tools.Status)
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := metrics.NewRecorder()
	p := newProcessor(t, rec)

	outcomes, err := p.Run(context.Background(), workspace)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	accounts, batch, tools := outcomes[0], outcomes[1], outcomes[2]

	assert.Equal(t, model.ProjectAnalyzed, accounts.Status)
	require.NotNil(t, accounts.Report)
	assert.Len(t, accounts.Report.EntryPoints, 1)

	// 没有框架依赖时退回组合 Finder
	assert.Equal(t, model.ProjectAnalyzed, batch.Status)
	assert.Equal(t, model.FrameworkUnknown, batch.Framework)
	require.NotNil(t, batch.Report)
	require.Len(t, batch.Report.EntryPoints, 1)
	assert.Equal(t, "/jobs/run", batch.Report.EntryPoints[0].EntryPoint.Path)
	require.Len(t, batch.Report.EntryPoints[0].Graph.Edges, 1)
	assert.Equal(t, model.RoleController, batch.Report.EntryPoints[0].Graph.Edges[0].Role)

	assert.Equal(t, model.ProjectNoReport, tools.Status)
	assert.Nil(t, tools.Report)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.ProjectsTotal.WithLabelValues("ANALYZED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.ProjectsTotal.WithLabelValues("NO_REPORT")))
	// batch 的入口点由组合 Finder 中的 Spring Finder 发现
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.EntryPointsTotal.WithLabelValues("SPRING_MVC")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.CallEdgesTotal))
}

func TestRun_UnreadableRoot(t *testing.T) {
	p := newProcessor(t, nil)
	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, processor.ErrRootUnreadable))
}

func TestRun_Idempotent(t *testing.T) {
	p := newProcessor(t, nil)
	projects, err := processor.DiscoverProjects(workspace)
	require.NoError(t, err)

	first, err := p.AnalyzeProject(context.Background(), projects[0])
	require.NoError(t, err)
	second, err := p.AnalyzeProject(context.Background(), projects[0])
	require.NoError(t, err)

	require.Equal(t, len(first.EntryPoints), len(second.EntryPoints))
	for i := range first.EntryPoints {
		assert.Equal(t, first.EntryPoints[i].Graph, second.EntryPoints[i].Graph)
	}
}
