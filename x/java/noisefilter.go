package java

import "github.com/CodMac/go-treesitter-entrypoint-analyzer/noisefilter"

// NewJavaNoiseFilter 以给定前缀构建过滤器，为空时使用默认的标准库前缀
func NewJavaNoiseFilter(prefixes ...string) *noisefilter.PrefixFilter {
	if len(prefixes) == 0 {
		prefixes = DefaultStandardLibraryPrefixes
	}
	return noisefilter.NewPrefixFilter(prefixes...)
}
