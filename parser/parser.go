package parser

import (
	"fmt"
	"os"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser 定义了语言解析器的通用能力
type Parser interface {
	// ParseFile 读取文件内容并解析，返回语法树与源码字节。调用方负责关闭语法树。
	ParseFile(filePath string) (*sitter.Tree, []byte, error)
	ParseBytes(content []byte) (*sitter.Tree, error)
	Close()
}

// TreeSitterParser 是 Parser 的具体实现，非并发安全，每个 worker 持有一个
type TreeSitterParser struct {
	Language model.Language
	tsParser *sitter.Parser
}

// NewParser 创建一个新的 TreeSitterParser 实例
func NewParser(lang model.Language) (*TreeSitterParser, error) {
	tsLang, err := model.GetLanguage(lang)
	if err != nil {
		return nil, err
	}

	tsParser := sitter.NewParser()
	if err := tsParser.SetLanguage(tsLang); err != nil {
		tsParser.Close()
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	return &TreeSitterParser{
		Language: lang,
		tsParser: tsParser,
	}, nil
}

func (p *TreeSitterParser) ParseFile(filePath string) (*sitter.Tree, []byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	tree, err := p.ParseBytes(content)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return tree, content, nil
}

func (p *TreeSitterParser) ParseBytes(content []byte) (*sitter.Tree, error) {
	tree := p.tsParser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter failed to parse %s source", p.Language)
	}
	return tree, nil
}

// Close 释放 Tree-sitter 内部资源
func (p *TreeSitterParser) Close() {
	if p.tsParser != nil {
		p.tsParser.Close()
	}
}
