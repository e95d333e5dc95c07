package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/config"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/dependency"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/entrypoint"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/framework"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/metrics"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/noisefilter"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/x/java"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrRootUnreadable 根目录无法读取，是唯一会中止整次运行的错误
var ErrRootUnreadable = errors.New("root directory unreadable")

// 查找构建描述时忽略的目录
var ignoredDirs = map[string]bool{"target": true, "build": true, "node_modules": true}

// Project 一个待分析的项目，Children 为嵌套在其下的其它项目目录
type Project struct {
	Name     string
	Root     string
	Children []string
}

// Processor 逐个分析项目，项目内的入口点并发遍历。
// 单个项目失败只记录在其结果中，不影响其它项目。
type Processor struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Recorder
	detector *framework.Detector
	runID    string
}

func NewProcessor(cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) *Processor {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:      cfg,
		logger:   logger,
		metrics:  rec,
		detector: framework.NewDetector(logger),
		runID:    uuid.NewString(),
	}
}

func (p *Processor) RunID() string { return p.runID }

// Run 发现 root 下的全部项目并依次分析
func (p *Processor) Run(ctx context.Context, root string) ([]model.ProjectOutcome, error) {
	projects, err := DiscoverProjects(root)
	if err != nil {
		return nil, err
	}
	p.logger.Info("projects discovered", "root", root, "count", len(projects))

	outcomes := make([]model.ProjectOutcome, 0, len(projects))
	for _, proj := range projects {
		outcome := p.ProcessProject(ctx, proj)
		p.metrics.RecordProject(outcome.Status)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// ProcessProject 分析单个项目并把任何失败转成 FAILED 结果
func (p *Processor) ProcessProject(ctx context.Context, proj Project) model.ProjectOutcome {
	outcome := model.ProjectOutcome{Project: proj.Name, Root: proj.Root}
	p.logger.Info("analyzing project", "project", proj.Name, "root", proj.Root)

	report, err := p.analyzeRecovered(ctx, proj)
	if err != nil {
		p.logger.Warn("project analysis failed", "project", proj.Name, "error", err)
		outcome.Status = model.ProjectFailed
		outcome.Message = err.Error()
		return outcome
	}

	outcome.Framework = report.Framework
	if len(report.EntryPoints) == 0 {
		p.logger.Info("no entry points found", "project", proj.Name, "framework", report.Framework)
		outcome.Status = model.ProjectNoReport
		outcome.Message = "no entry points found"
		return outcome
	}

	outcome.Status = model.ProjectAnalyzed
	outcome.Report = report
	outcome.Summary = &report.Summary
	p.logger.Info("project analyzed", "project", proj.Name,
		"framework", report.Framework,
		"entry_points", report.Summary.EntryPoints,
		"edges", report.Summary.CallEdges)
	return outcome
}

// analyzeRecovered 把分析过程中的 panic 转成错误，只影响当前项目
func (p *Processor) analyzeRecovered(ctx context.Context, proj Project) (report *model.AnalysisReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("project analysis panicked", "project", proj.Name, "panic", r, "stack", string(debug.Stack()))
			report, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return p.AnalyzeProject(ctx, proj)
}

// AnalyzeProject 构建源码模型、识别框架、发现入口点，然后并发计算每个入口点的依赖图。
// 报告中入口点的顺序与 Finder 返回的顺序一致。
func (p *Processor) AnalyzeProject(ctx context.Context, proj Project) (*model.AnalysisReport, error) {
	gc, err := java.BuildModel(ctx, proj.Root, java.Options{
		ExcludeTestPaths: p.cfg.ExcludeTestPaths,
		ExcludePatterns:  p.cfg.ExcludePatterns,
		SkipDirs:         proj.Children,
		Workers:          p.cfg.Workers,
		Logger:           p.logger,
	})
	if err != nil {
		return nil, err
	}

	detected := p.detector.Detect(proj.Root)
	p.logger.Info("framework detected", "project", proj.Name, "framework", detected.Framework, "marker", markerString(detected.Marker))

	finder := entrypoint.ForFramework(detected.Framework, p.logger)
	eps := excludeNested(finder.Find(gc, proj.Root), proj)

	report := &model.AnalysisReport{
		RunID:         p.runID,
		ProjectName:   proj.Name,
		ProjectRoot:   proj.Root,
		GeneratedAt:   time.Now().UTC(),
		Framework:     detected.Framework,
		Configuration: p.cfg.Snapshot(),
		EntryPoints:   make([]*model.AnalyzedEntryPoint, 0, len(eps)),
	}

	engine := dependency.NewEngine(gc, dependency.Options{
		MaxDepth:    p.cfg.MaxDepth,
		NoiseFilter: p.noiseFilter(),
	})

	// 源码模型此时只读，每次遍历的状态互不共享
	graphs := make([]*model.DependencyGraphResult, len(eps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Workers, 1))
	for i, ep := range eps {
		g.Go(func() (err error) {
			// 工作 goroutine 中的 panic 无法被调用方 recover
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("entry point %s: panic: %v", ep.Path, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			graphs[i] = engine.Resolve(ep)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve entry points: %w", err)
	}

	for i, ep := range eps {
		report.Append(ep, graphs[i])
		p.metrics.RecordEntryPoint(ep, graphs[i])
		p.logger.Debug("entry point resolved", "project", proj.Name, "path", ep.Path,
			"handler", ep.TypeName+"#"+ep.MethodSignature,
			"edges", len(graphs[i].Edges), "records", len(graphs[i].Records))
	}
	return report, nil
}

// noiseFilter 配置了标准库前缀时按配置过滤，否则使用语言包注册的默认过滤器
func (p *Processor) noiseFilter() noisefilter.NoiseFilter {
	if len(p.cfg.StandardLibraryPrefixes) > 0 {
		return java.NewJavaNoiseFilter(p.cfg.StandardLibraryPrefixes...)
	}
	return noisefilter.GetNoiseFilter(model.LangJava)
}

// DiscoverProjects 把每个包含 pom.xml 或 build.gradle(.kts) 的目录当作一个项目，
// 没有找到任何构建描述时 root 本身作为唯一项目
func DiscoverProjects(root string) ([]Project, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}

	pattern := "**/{" + strings.Join(framework.BuildDescriptors, ",") + "}"
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, m := range matches {
		dir := path.Dir(m)
		if seen[dir] || ignoredPath(dir) {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	sort.Strings(dirs)

	projects := make([]Project, 0, len(dirs))
	for _, dir := range dirs {
		proj := Project{Name: projectName(root, dir), Root: filepath.Join(root, filepath.FromSlash(dir))}
		for _, other := range dirs {
			if other != dir && (dir == "." || strings.HasPrefix(other, dir+"/")) {
				proj.Children = append(proj.Children, filepath.Join(root, filepath.FromSlash(other)))
			}
		}
		projects = append(projects, proj)
	}
	return projects, nil
}

func ignoredPath(dir string) bool {
	if dir == "." {
		return false
	}
	for _, seg := range strings.Split(dir, "/") {
		if ignoredDirs[seg] || strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// projectName 嵌套模块用相对路径命名，避免同名目录的报告互相覆盖
func projectName(root, dir string) string {
	if dir == "." {
		if abs, err := filepath.Abs(root); err == nil {
			return filepath.Base(abs)
		}
		return filepath.Base(root)
	}
	return strings.ReplaceAll(dir, "/", "-")
}

// excludeNested 去掉位于嵌套子项目中的入口点，它们由子项目自己报告
func excludeNested(eps []*model.EntryPoint, proj Project) []*model.EntryPoint {
	if len(proj.Children) == 0 {
		return eps
	}
	prefixes := make([]string, 0, len(proj.Children))
	for _, child := range proj.Children {
		if rel, err := filepath.Rel(proj.Root, child); err == nil {
			prefixes = append(prefixes, filepath.ToSlash(rel)+"/")
		}
	}

	out := eps[:0]
	for _, ep := range eps {
		if ep.Location != nil && hasAnyPrefix(ep.Location.FilePath, prefixes) {
			continue
		}
		out = append(out, ep)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func markerString(c *framework.Coordinate) string {
	if c == nil {
		return ""
	}
	return c.String()
}
