package model

import "fmt"

// ElementKind 是源码中类型声明的种类
type ElementKind string

const (
	Class       ElementKind = "CLASS"
	Interface   ElementKind = "INTERFACE"
	Enum        ElementKind = "ENUM"
	Record      ElementKind = "RECORD"
	KAnnotation ElementKind = "ANNOTATION"
	Method      ElementKind = "METHOD"
	Unknown     ElementKind = "UNKNOWN"
)

// Location 描述了代码元素或调用点在源码中的位置
type Location struct {
	FilePath    string `json:"FilePath"`
	StartLine   int    `json:"StartLine"`
	EndLine     int    `json:"EndLine,omitempty"`
	StartColumn int    `json:"StartColumn,omitempty"`
	EndColumn   int    `json:"EndColumn,omitempty"`
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.FilePath, l.StartLine)
}
