package classifier

import (
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// Classifier 扫描单个方法体，识别一类对外部系统有意义的调用。
// 实现必须是纯函数：不依赖遍历深度，也不保留状态。
type Classifier interface {
	Name() string
	Classify(m *core.MethodDecl) []model.DependencyRecord
}

// Defaults 返回内置的分类器，顺序即记录的追加顺序
func Defaults() []Classifier {
	return []Classifier{
		NewSQLClassifier(),
		NewLookupClassifier(),
		NewSecurityClassifier(),
	}
}

// Run 依次执行全部分类器
func Run(classifiers []Classifier, m *core.MethodDecl) []model.DependencyRecord {
	var out []model.DependencyRecord
	for _, c := range classifiers {
		out = append(out, c.Classify(m)...)
	}
	return out
}
