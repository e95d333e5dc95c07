package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/x/java"
	"github.com/go-playground/validator/v10"
	"github.com/magiconair/properties"
	"github.com/spf13/viper"
)

// ErrInvalidConfig 配置值不合法
var ErrInvalidConfig = errors.New("invalid configuration")

const EnvPrefix = "EPA"

const (
	KeyMaxDepth                = "analysis.max-depth"
	KeyExcludeTestPaths        = "analysis.exclude-test-paths"
	KeyExcludePatterns         = "analysis.exclude-patterns"
	KeyStandardLibraryPrefixes = "analysis.standard-library-prefixes"
	KeyWorkers                 = "analysis.workers"
	KeyOutputFormat            = "output.format"
	KeyMermaid                 = "output.mermaid"
)

// DefaultExcludePatterns 构建输出与版本控制目录
var DefaultExcludePatterns = []string{"**/target/**", "**/build/**", "**/.git/**"}

var validate = validator.New()

// Config 一次运行的生效配置，随每份报告输出快照
type Config struct {
	MaxDepth                int      `validate:"min=1,max=100"`
	ExcludeTestPaths        bool     ``
	ExcludePatterns         []string `validate:"dive,required"`
	StandardLibraryPrefixes []string `validate:"dive,required"`
	Workers                 int      `validate:"min=1"`
	OutputFormat            string   `validate:"oneof=json yaml"`
	Mermaid                 bool     ``
	PropertiesFile          string   ``
}

// Default 返回未做任何覆盖的默认配置，不读取环境变量，结果总是合法
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v, "")
}

// Load 依次叠加默认值、可选的 .properties 覆盖文件与 EPA_ 前缀的环境变量
func Load(propertiesPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 环境变量覆盖：analysis.max-depth -> EPA_ANALYSIS_MAX_DEPTH
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if propertiesPath != "" {
		overrides, err := readProperties(propertiesPath)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(overrides); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", propertiesPath, err)
		}
	}

	cfg := fromViper(v, propertiesPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper, propertiesPath string) *Config {
	return &Config{
		MaxDepth:                v.GetInt(KeyMaxDepth),
		ExcludeTestPaths:        v.GetBool(KeyExcludeTestPaths),
		ExcludePatterns:         stringList(v, KeyExcludePatterns),
		StandardLibraryPrefixes: stringList(v, KeyStandardLibraryPrefixes),
		Workers:                 v.GetInt(KeyWorkers),
		OutputFormat:            strings.ToLower(strings.TrimSpace(v.GetString(KeyOutputFormat))),
		Mermaid:                 v.GetBool(KeyMermaid),
		PropertiesFile:          propertiesPath,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyMaxDepth, 10)
	v.SetDefault(KeyExcludeTestPaths, true)
	v.SetDefault(KeyExcludePatterns, strings.Join(DefaultExcludePatterns, ","))
	v.SetDefault(KeyStandardLibraryPrefixes, strings.Join(java.DefaultStandardLibraryPrefixes, ","))
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyOutputFormat, "json")
	v.SetDefault(KeyMermaid, false)
}

// readProperties 读取 .properties 覆盖文件，"a.b=c" 展开为嵌套 map 以便与默认值合并
func readProperties(path string) (map[string]any, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	root := make(map[string]any)
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		parts := strings.Split(strings.ToLower(key), ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return root, nil
}

// stringList 读取逗号分隔的列表。properties 与环境变量里的值都是单个字符串。
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case []string:
		raw = val
	case []any:
		for _, item := range val {
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = strings.Split(v.GetString(key), ",")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate 校验取值范围，失败时包装 ErrInvalidConfig
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed on '%s' (value %v)", ErrInvalidConfig, fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Snapshot 报告中记录的配置快照
func (c *Config) Snapshot() model.ConfigSnapshot {
	return model.ConfigSnapshot{
		MaxDepth:                c.MaxDepth,
		ExcludeTestPaths:        c.ExcludeTestPaths,
		ExcludePatterns:         append([]string(nil), c.ExcludePatterns...),
		StandardLibraryPrefixes: append([]string(nil), c.StandardLibraryPrefixes...),
		Workers:                 c.Workers,
		PropertiesFile:          c.PropertiesFile,
	}
}
