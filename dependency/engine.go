package dependency

import (
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/classifier"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/noisefilter"
)

const DefaultMaxDepth = 10

type Options struct {
	MaxDepth    int
	NoiseFilter noisefilter.NoiseFilter
	Classifiers []classifier.Classifier
}

// Engine 从入口方法出发遍历调用图。Engine 本身不可变，
// 每次遍历的状态都是局部的，可以在多个 goroutine 中并发调用 Resolve。
type Engine struct {
	model       core.SourceModel
	maxDepth    int
	noise       noisefilter.NoiseFilter
	classifiers []classifier.Classifier
}

func NewEngine(sm core.SourceModel, opts Options) *Engine {
	e := &Engine{
		model:       sm,
		maxDepth:    opts.MaxDepth,
		noise:       opts.NoiseFilter,
		classifiers: opts.Classifiers,
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	if e.noise == nil {
		e.noise = &noisefilter.DefaultNoiseFilter{}
	}
	if e.classifiers == nil {
		e.classifiers = classifier.Defaults()
	}
	return e
}

func (e *Engine) MaxDepth() int { return e.maxDepth }

// Resolve 计算入口点的依赖图。入口方法不在模型中（如未解析的分发方法）时返回空结果。
func (e *Engine) Resolve(ep *model.EntryPoint) *model.DependencyGraphResult {
	if ep == nil || ep.MethodID == "" {
		return model.NewDependencyGraphResult()
	}
	m, ok := e.model.Method(ep.MethodID)
	if !ok {
		return model.NewDependencyGraphResult()
	}
	return e.ResolveMethod(m)
}

// ResolveMethod 以 m 为深度 0 进行一次前序深度优先遍历
func (e *Engine) ResolveMethod(m *core.MethodDecl) *model.DependencyGraphResult {
	result := model.NewDependencyGraphResult()
	w := &walker{engine: e, visited: make(map[string]bool), result: result}
	w.expand(m, 0)
	return result
}

// walker 持有单次遍历的状态
type walker struct {
	engine  *Engine
	visited map[string]bool // 已展开的方法标识
	result  *model.DependencyGraphResult
}

func (w *walker) expand(m *core.MethodDecl, depth int) {
	w.visited[m.ID] = true

	// 分类器按方法运行一次，与调用点无关
	for _, rec := range classifier.Run(w.engine.classifiers, m) {
		rec.Method = m.ID
		w.result.Records = append(w.result.Records, rec)
	}

	for _, call := range m.CallSites {
		callee, ok := w.engine.model.ResolveInvocationTarget(m, call)
		if !ok || callee == nil || callee.Declaring == nil {
			continue
		}
		calleeType := callee.DeclaringName()
		if w.engine.noise.IsNoise(calleeType) || callee.Declaring.External {
			continue
		}

		// 先记录边，再判断是否继续展开
		w.result.Edges = append(w.result.Edges, model.InternalCallEdge{
			Caller:          m.ID,
			Callee:          callee.ID,
			CalleeType:      calleeType,
			Role:            ClassifyRole(callee.Declaring),
			CalleeSignature: callee.Signature,
			Depth:           depth + 1,
			Location:        call.Location,
		})

		if w.visited[callee.ID] || depth+1 >= w.engine.maxDepth {
			continue
		}
		w.expand(callee, depth+1)
	}
}
