package core

import (
	"regexp"
	"strings"
)

var stringLiteralPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

// ParseAnnotationArguments 将注解括号内的文本拆分为 键 -> 原始值。
// 只按顶层逗号切分，字符串、花括号、圆括号内的逗号不参与切分。
// 没有键的单值写法记为 "value"。
func ParseAnnotationArguments(raw string) map[string]string {
	attrs := make(map[string]string)
	raw = StripParens(raw)
	if raw == "" {
		return attrs
	}

	for _, part := range splitTopLevel(raw, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, ok := splitKeyValue(part); ok {
			attrs[key] = value
			continue
		}
		// 单值注解：@Secured("ROLE_A") / @RequestMapping({"/a", "/b"})
		if _, exists := attrs["value"]; !exists {
			attrs["value"] = part
		}
	}
	return attrs
}

// StripParens 去掉包住整个参数列表的一对圆括号
func StripParens(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '(' && raw[len(raw)-1] == ')' && closingParen(raw) == len(raw)-1 {
		return strings.TrimSpace(raw[1 : len(raw)-1])
	}
	return raw
}

// closingParen 返回与首字符 '(' 匹配的 ')' 下标
func closingParen(s string) int {
	depth := 0
	inStr, inChar, escaped := false, false, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && (inStr || inChar):
			escaped = true
		case r == '"' && !inChar:
			inStr = !inStr
		case r == '\'' && !inStr:
			inChar = !inChar
		case inStr || inChar:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// StringValues 提取原始值文本中的全部字符串字面量内容
func StringValues(raw string) []string {
	matches := stringLiteralPattern.FindAllStringSubmatch(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, unescape(m[1]))
	}
	return out
}

// Unquote 去掉 Java 字符串字面量两侧的引号（含文本块）
func Unquote(lit string) string {
	lit = strings.TrimSpace(lit)
	if strings.HasPrefix(lit, `"""`) && strings.HasSuffix(lit, `"""`) && len(lit) >= 6 {
		return strings.TrimSpace(lit[3 : len(lit)-3])
	}
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		return unescape(lit[1 : len(lit)-1])
	}
	return lit
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`, `\n`, "\n", `\t`, "\t", `\r`, "\r")
	return r.Replace(s)
}

func splitKeyValue(part string) (string, string, bool) {
	i := strings.Index(part, "=")
	if i <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(part[:i])
	for _, r := range key {
		if !(r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", "", false
		}
	}
	return key, strings.TrimSpace(part[i+1:]), true
}

func splitTopLevel(s string, sep rune) []string {
	var (
		parts   []string
		depth   int
		inStr   bool
		inChar  bool
		escaped bool
		start   int
	)
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && (inStr || inChar):
			escaped = true
		case r == '"' && !inChar:
			inStr = !inStr
		case r == '\'' && !inStr:
			inChar = !inChar
		case inStr || inChar:
		case r == '{' || r == '(' || r == '[':
			depth++
		case r == '}' || r == ')' || r == ']':
			depth--
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
