package business

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// Mapping 业务映射文件中的一行：业务功能名;HTTP 方法;URL 模板
type Mapping struct {
	Function string
	Verb     string
	Path     string
	Line     int
}

// Key 连接键：大写的 HTTP 方法 + ":" + URL 模板，不做路径变量归一化
func Key(verb, path string) string {
	return strings.ToUpper(strings.TrimSpace(verb)) + ":" + strings.TrimSpace(path)
}

// Map 按文件顺序保存的映射，同一个键以先出现的为准
type Map struct {
	Mappings []Mapping
	byKey    map[string]string
}

func LoadMap(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open business map: %w", err)
	}
	defer f.Close()

	m, err := ParseMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseMap 解析以 ";" 分隔、首行为表头的映射，字段可带引号。不足三列的行被忽略。
func ParseMap(r io.Reader) (*Map, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	m := &Map{byKey: make(map[string]string)}
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse business map: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) < 3 {
			continue
		}
		line, _ := reader.FieldPos(0)
		mapping := Mapping{
			Function: strings.TrimSpace(record[0]),
			Verb:     strings.ToUpper(strings.TrimSpace(record[1])),
			Path:     strings.TrimSpace(record[2]),
			Line:     line,
		}
		if mapping.Function == "" || mapping.Path == "" {
			continue
		}
		m.Mappings = append(m.Mappings, mapping)
		key := Key(mapping.Verb, mapping.Path)
		if _, dup := m.byKey[key]; !dup {
			m.byKey[key] = mapping.Function
		}
	}
}

// Lookup 精确匹配 verb:path
func (m *Map) Lookup(verb, path string) (string, bool) {
	if m == nil {
		return "", false
	}
	fn, ok := m.byKey[Key(verb, path)]
	return fn, ok
}

// lookupAnyVerb 入口点接受任意方法时，取同一路径下文件中第一个具体方法的映射
func (m *Map) lookupAnyVerb(path string) (string, bool) {
	for _, mapping := range m.Mappings {
		if mapping.Path != path {
			continue
		}
		if _, ok := model.ParseVerb(mapping.Verb); ok {
			return mapping.Function, true
		}
	}
	return "", false
}

// Match 返回入口点对应的业务功能名
func (m *Map) Match(ep *model.EntryPoint) (string, bool) {
	if m == nil || ep == nil {
		return "", false
	}
	for _, v := range ep.Verbs {
		if v == model.VerbAny {
			continue
		}
		if fn, ok := m.Lookup(string(v), ep.Path); ok {
			return fn, true
		}
	}
	if ep.AcceptsAnyVerb() {
		return m.lookupAnyVerb(ep.Path)
	}
	return "", false
}

// Correlate 为报告中匹配到的入口点填充 BusinessFunction，返回匹配数量。
// 未匹配的入口点保持为空。
func Correlate(report *model.AnalysisReport, m *Map) int {
	if report == nil || m == nil {
		return 0
	}
	matched := 0
	for _, analyzed := range report.EntryPoints {
		if fn, ok := m.Match(analyzed.EntryPoint); ok {
			analyzed.EntryPoint.BusinessFunction = fn
			matched++
		}
	}
	return matched
}
