package output

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
)

// ExportMermaidHTML 生成包含 Mermaid.js 渲染逻辑的静态网页，每个入口点一张调用图
func ExportMermaidHTML(outputPath string, report *model.AnalysisReport) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteMermaidHTML(f, report)
}

func WriteMermaidHTML(w io.Writer, report *model.AnalysisReport) error {
	var sb strings.Builder

	// 1. 写入 HTML 模板头部
	fmt.Fprintf(&sb, `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>%s Entry Points</title>
    <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
    <style>
        body { font-family: -apple-system, sans-serif; background: #f0f2f5; margin: 20px; }
        .mermaid { background: white; padding: 20px; border-radius: 12px; box-shadow: 0 4px 15px rgba(0,0,0,0.1); margin-bottom: 24px; }
        h1 { color: #1a1a1a; text-align: center; }
        h2 { color: #333; font-size: 1.1em; }
    </style>
</head>
<body>
    <h1>%s</h1>
`, html.EscapeString(report.ProjectName), html.EscapeString(report.ProjectName))

	// 2. 每个入口点一个 flowchart
	for _, analyzed := range report.EntryPoints {
		ep := analyzed.EntryPoint
		fmt.Fprintf(&sb, "    <h2>%s %s</h2>\n", html.EscapeString(verbLabel(ep.Verbs)), html.EscapeString(ep.Path))
		sb.WriteString("    <div class=\"mermaid\">\n")
		writeFlowchart(&sb, analyzed)
		sb.WriteString("    </div>\n")
	}

	// 3. 写入脚本初始化和结尾
	sb.WriteString(`    <script>
        mermaid.initialize({
            startOnLoad: true,
            maxTextSize: 100000,
            theme: 'default',
            flowchart: { useMaxWidth: false, htmlLabels: true }
        });
    </script>
</body>
</html>`)

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeFlowchart(sb *strings.Builder, analyzed *model.AnalyzedEntryPoint) {
	ep := analyzed.EntryPoint
	entryID := ep.MethodID
	if entryID == "" {
		entryID = ep.TypeName + "#" + ep.MethodSignature
	}

	sb.WriteString("    graph LR\n")
	fmt.Fprintf(sb, "    %s([\"%s\"])\n", safeID(entryID), label(shortType(ep.TypeName)+"."+ep.MethodSignature))
	if analyzed.Graph == nil {
		return
	}

	declared := map[string]bool{entryID: true}
	for _, e := range analyzed.Graph.Edges {
		if !declared[e.Callee] {
			declared[e.Callee] = true
			fmt.Fprintf(sb, "    %s[\"%s <small>(%s)</small>\"]\n", safeID(e.Callee), label(shortType(e.CalleeType)+"."+e.CalleeSignature), e.Role)
		}
		fmt.Fprintf(sb, "    %s --> %s\n", safeID(e.Caller), safeID(e.Callee))
	}

	// 依赖记录挂在产生它的方法上
	for i, rec := range analyzed.Graph.Records {
		id := fmt.Sprintf("rec_%d", i)
		owner := rec.Method
		if owner == "" {
			owner = entryID
		}
		fmt.Fprintf(sb, "    %s{{\"%s\"}}\n", id, label(recordLabel(rec)))
		fmt.Fprintf(sb, "    %s -.-> %s\n", safeID(owner), id)
	}
}

func recordLabel(rec model.DependencyRecord) string {
	switch rec.Type {
	case model.DatabaseCallType:
		if len(rec.Database.Tables) > 0 {
			return "DB: " + strings.Join(rec.Database.Tables, ", ")
		}
		return "DB: " + truncate(rec.Database.Query, 40)
	case model.RemoteLookupType:
		return "Lookup: " + rec.RemoteLookup.LookupKey
	case model.SecurityRuleType:
		if len(rec.Security.RequiredRoles) > 0 {
			return "Roles: " + strings.Join(rec.Security.RequiredRoles, ", ")
		}
		return "Guard: " + truncate(rec.Security.Expression, 40)
	}
	return string(rec.Type)
}

func verbLabel(verbs []model.HTTPVerb) string {
	parts := make([]string, 0, len(verbs))
	for _, v := range verbs {
		if v == model.VerbAny {
			parts = append(parts, "ANY")
			continue
		}
		parts = append(parts, string(v))
	}
	return strings.Join(parts, ",")
}

func shortType(qn string) string {
	if i := strings.LastIndex(qn, "."); i >= 0 {
		return qn[i+1:]
	}
	return qn
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// label 转义 Mermaid 标签中的引号与尖括号
func label(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;").Replace(s)
}

// safeID 确保方法标识符合 Mermaid 的 ID 命名规范
func safeID(id string) string {
	r := strings.NewReplacer(".", "_", "/", "_", "-", "_", "\\", "_", ":", "_", "@", "_",
		"#", "_", "(", "_", ")", "_", ",", "_", " ", "_", "<", "_", ">", "_", "[", "_", "]", "_", "$", "_", "?", "_")
	return "n_" + r.Replace(id)
}
