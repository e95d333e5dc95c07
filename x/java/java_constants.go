package java

// 默认视为标准库（噪音）的命名空间前缀
var DefaultStandardLibraryPrefixes = []string{
	"java.", "javax.", "jakarta.", "sun.", "com.sun.", "jdk.",
	"org.slf4j.", "org.apache.log4j.", "org.apache.commons.logging.", "lombok.",
}

// TestPathPatterns 在排除测试代码时使用的 doublestar 模式
var TestPathPatterns = []string{
	"**/src/test/**",
	"**/test/**",
	"**/tests/**",
}

// java.lang 下无需导入即可使用的常见类型
var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "StringBuilder": true, "StringBuffer": true,
	"Integer": true, "Long": true, "Short": true, "Byte": true, "Double": true, "Float": true,
	"Boolean": true, "Character": true, "Number": true, "Math": true, "System": true,
	"Thread": true, "Runnable": true, "Class": true, "Enum": true, "Iterable": true,
	"Exception": true, "RuntimeException": true, "Throwable": true, "Error": true,
	"IllegalArgumentException": true, "IllegalStateException": true, "Record": true,
}

// 类型声明节点
var typeDeclarationKinds = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// 方法声明节点
var methodDeclarationKinds = map[string]bool{
	"method_declaration":              true,
	"constructor_declaration":         true,
	"compact_constructor_declaration": true,
}
