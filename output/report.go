package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"gopkg.in/yaml.v3"
)

// Format 报告文件格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// ReportFileName <project>-analysis.<ext>
func ReportFileName(projectName string, format Format) string {
	return projectName + "-analysis." + string(format)
}

// EncodeReport 序列化报告。YAML 由 JSON 形式转换而来，字段名与省略规则两种格式一致。
func EncodeReport(w io.Writer, report *model.AnalysisReport, format Format) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if format != FormatYAML {
		_, err := w.Write(buf.Bytes())
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &node); err != nil {
		return fmt.Errorf("convert report to yaml: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// blockStyle 去掉从 JSON 继承来的 flow 风格与引号
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		if n.Tag == "!!str" {
			n.Style = 0
		}
		return
	}
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// WriteReport 将报告写入 outDir，返回文件路径
func WriteReport(outDir string, report *model.AnalysisReport, format Format) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(outDir, ReportFileName(report.ProjectName, format))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := EncodeReport(f, report, format); err != nil {
		return "", err
	}
	return path, nil
}
