package business_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/business"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMap = `Function;Verb;Url
"List accounts";get;/accounts
Create account;POST;"/accounts"
Admin login;POST;/admin/login.action
Admin login (retry);GET;/admin/login.action
Duplicate;GET;/accounts
broken line
Export;PUT;/export/*
`

func parse(t *testing.T, content string) *business.Map {
	t.Helper()
	m, err := business.ParseMap(strings.NewReader(content))
	require.NoError(t, err)
	return m
}

func TestParseMap(t *testing.T) {
	m := parse(t, sampleMap)
	require.Len(t, m.Mappings, 6)

	first := m.Mappings[0]
	assert.Equal(t, "List accounts", first.Function)
	assert.Equal(t, "GET", first.Verb)
	assert.Equal(t, "/accounts", first.Path)
	assert.Equal(t, 2, first.Line)

	fn, ok := m.Lookup("get", "/accounts")
	require.True(t, ok)
	// 重复键以先出现的为准
	assert.Equal(t, "List accounts", fn)

	fn, ok = m.Lookup("POST", "/accounts")
	require.True(t, ok)
	assert.Equal(t, "Create account", fn)

	// 不做路径变量归一化
	_, ok = m.Lookup("GET", "/accounts/")
	assert.False(t, ok)
}

func TestParseMap_HeaderOnly(t *testing.T) {
	m := parse(t, "Function;Verb;Url\n")
	assert.Empty(t, m.Mappings)
}

func TestLoadMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "business.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleMap), 0o644))

	m, err := business.LoadMap(path)
	require.NoError(t, err)
	assert.Len(t, m.Mappings, 6)

	_, err = business.LoadMap(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestCorrelate(t *testing.T) {
	m := parse(t, sampleMap)

	get := model.NewEntryPoint(model.FrameworkSpringMVC, "a.Ctl", "list()", "/accounts", []model.HTTPVerb{model.VerbGet}, nil)
	putPost := model.NewEntryPoint(model.FrameworkSpringMVC, "a.Ctl", "save()", "/accounts", []model.HTTPVerb{model.VerbPut, model.VerbPost}, nil)
	action := model.NewEntryPoint(model.FrameworkStruts2, "a.Admin", "execute", "/admin/login.action", nil, nil)
	unmatched := model.NewEntryPoint(model.FrameworkSpringMVC, "a.Ctl", "del()", "/accounts", []model.HTTPVerb{model.VerbDelete}, nil)

	report := &model.AnalysisReport{}
	for _, ep := range []*model.EntryPoint{get, putPost, action, unmatched} {
		report.Append(ep, model.NewDependencyGraphResult())
	}

	assert.Equal(t, 3, business.Correlate(report, m))
	assert.Equal(t, "List accounts", get.BusinessFunction)
	assert.Equal(t, "Create account", putPost.BusinessFunction)
	// 任意方法的入口点按文件顺序取第一个具体方法
	assert.Equal(t, "Admin login", action.BusinessFunction)
	assert.Empty(t, unmatched.BusinessFunction)
}

func TestCorrelate_Nil(t *testing.T) {
	assert.Equal(t, 0, business.Correlate(nil, parse(t, sampleMap)))
	assert.Equal(t, 0, business.Correlate(&model.AnalysisReport{}, nil))
}
