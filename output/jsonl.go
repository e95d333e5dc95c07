package output

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// JSONLWriter 每个值一行 JSON，写完需要 Flush
type JSONLWriter struct {
	buf     *bufio.Writer
	encoder *json.Encoder
	count   int
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	buf := bufio.NewWriter(w)
	return &JSONLWriter{buf: buf, encoder: json.NewEncoder(buf)}
}

func (w *JSONLWriter) Write(v any) error {
	if err := w.encoder.Encode(v); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count 已写出的行数
func (w *JSONLWriter) Count() int { return w.count }

func (w *JSONLWriter) Flush() error { return w.buf.Flush() }

// ExportOutcomes 将每个项目的处理结果写成一行，失败与无报告的项目同样输出
func ExportOutcomes(path string, outcomes []model.ProjectOutcome) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	writer := NewJSONLWriter(f)
	for _, o := range outcomes {
		if err := writer.Write(o); err != nil {
			return writer.Count(), err
		}
	}
	return writer.Count(), writer.Flush()
}
