package noisefilter_test

import (
	"testing"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/noisefilter"
	"github.com/stretchr/testify/assert"
)

func TestPrefixFilter(t *testing.T) {
	f := noisefilter.NewPrefixFilter("java.", "org.slf4j.")

	assert.True(t, f.IsNoise("java.util.List"))
	assert.True(t, f.IsNoise("org.slf4j.Logger"))
	assert.False(t, f.IsNoise("com.acme.java.Util"))
	assert.False(t, f.IsNoise("javafx.scene.Node"))
	assert.Equal(t, []string{"java.", "org.slf4j."}, f.Prefixes())

	// 返回副本，修改不影响过滤器
	prefixes := f.Prefixes()
	prefixes[0] = "com."
	assert.False(t, f.IsNoise("com.acme.Service"))
}

func TestRegistry(t *testing.T) {
	const lang = model.Language("registry-test")

	// 没注册时不做过滤
	assert.False(t, noisefilter.GetNoiseFilter(lang).IsNoise("java.lang.String"))

	noisefilter.RegisterNoiseFilter(lang, noisefilter.NewPrefixFilter("java."))
	assert.True(t, noisefilter.GetNoiseFilter(lang).IsNoise("java.lang.String"))
}
