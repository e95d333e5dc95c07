package java

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/collector"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/parser"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Options 控制源码模型的构建范围
type Options struct {
	ExcludeTestPaths bool
	ExcludePatterns  []string // 相对项目根目录的 doublestar 模式
	SkipDirs         []string // 绝对路径，通常是嵌套的子项目
	Workers          int
	Logger           *slog.Logger
}

// BuildModel 解析项目下的全部 Java 源文件并建立源码模型。
// 文件按路径排序后注册，保证相同输入得到相同模型。
func BuildModel(ctx context.Context, root string, opts Options) (*core.GlobalContext, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	files, err := DiscoverSources(root, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelBuild, err)
	}
	logger.Debug("java sources discovered", "root", root, "files", len(files))

	resolver, err := core.GetSymbolResolver(model.LangJava)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelBuild, err)
	}
	coll, err := collector.GetCollector(model.LangJava)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelBuild, err)
	}

	// --- 阶段 1: 并发解析并收集定义 ---
	var (
		mu       sync.Mutex
		contexts []*core.FileContext
		failed   int
	)
	jobs := make(chan string)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			// 每个 worker 持有自己的 parser
			p, err := parser.NewParser(model.LangJava)
			if err != nil {
				return err
			}
			defer p.Close()

			for path := range jobs {
				fc, err := collectFile(p, coll, root, path)
				if err != nil {
					logger.Debug("skipping unparsable file", "file", path, "error", err)
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				mu.Lock()
				contexts = append(contexts, fc)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelBuild, err)
	}
	if len(files) > 0 && len(contexts) == 0 {
		return nil, fmt.Errorf("%w: none of %d java files could be parsed", core.ErrModelBuild, len(files))
	}

	// --- 阶段 2: 按路径顺序注册并建立继承关系 ---
	sort.Slice(contexts, func(i, j int) bool { return contexts[i].FilePath < contexts[j].FilePath })
	gc := core.NewGlobalContext(resolver)
	for _, fc := range contexts {
		gc.RegisterFileContext(fc)
	}
	gc.Link()

	logger.Debug("source model built", "root", root, "files", len(contexts), "failed", failed, "types", len(gc.TypesByQN))
	return gc, nil
}

// collectFile 单个文件的解析或收集 panic 时按解析失败处理
func collectFile(p parser.Parser, coll collector.Collector, root, path string) (fc *core.FileContext, err error) {
	defer func() {
		if r := recover(); r != nil {
			fc, err = nil, fmt.Errorf("collect %s: panic: %v", path, r)
		}
	}()
	tree, src, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return coll.CollectDefinitions(tree.RootNode(), relativePath(root, path), src)
}

// DiscoverSources 列出 root 下需要分析的 .java 文件，结果已排序
func DiscoverSources(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	patterns := append([]string{}, opts.ExcludePatterns...)
	if opts.ExcludeTestPaths {
		patterns = append(patterns, TestPathPatterns...)
	}
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[filepath.Clean(d)] = true
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// 子目录不可读时跳过即可
			return nil
		}
		rel := relativePath(root, path)
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || skip[filepath.Clean(path)] || excluded(patterns, rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != model.LangJava.FileExtension() || excluded(patterns, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	return files, err
}

func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		// 目录本身也按 "dir/**" 的形式参与匹配
		if strings.HasSuffix(rel, "/") {
			if ok, _ := doublestar.Match(p, rel+"x"); ok {
				return true
			}
		}
	}
	return false
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
