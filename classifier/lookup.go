package classifier

import (
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

const lookupMethodName = "lookup"

// LookupClassifier 识别以字符串字面量为键的 lookup 调用（JNDI、EJB Home 等）
type LookupClassifier struct{}

func NewLookupClassifier() *LookupClassifier { return &LookupClassifier{} }

func (c *LookupClassifier) Name() string { return "remote-lookup" }

func (c *LookupClassifier) Classify(m *core.MethodDecl) []model.DependencyRecord {
	var out []model.DependencyRecord
	for i, call := range m.CallSites {
		// 键不是字面量时无法静态确定，不记录
		if call.Name != lookupMethodName || call.FirstArg == nil {
			continue
		}
		out = append(out, model.NewRemoteLookupCall(call.Location, *call.FirstArg, invokedAfterLookup(m.CallSites[i+1:], call)))
	}
	return out
}

// invokedAfterLookup 查找 lookup 结果上随后调用的方法：
// 链式调用直接可得，赋值给局部变量时取该变量上的第一次调用
func invokedAfterLookup(rest []*core.CallSite, call *core.CallSite) string {
	if call.Chained != "" {
		return call.Chained
	}
	if call.AssignTo == "" {
		return ""
	}
	for _, next := range rest {
		if next.Receiver == call.AssignTo {
			return next.Name
		}
	}
	return ""
}
