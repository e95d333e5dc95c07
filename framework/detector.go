package framework

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/parser"
)

// BuildDescriptors 识别为项目根的构建描述文件，按优先级排列
var BuildDescriptors = []string{"pom.xml", "build.gradle", "build.gradle.kts"}

// Coordinate 依赖坐标
type Coordinate struct {
	Group    string
	Artifact string
}

func (c Coordinate) String() string { return c.Group + ":" + c.Artifact }

// marker 判定框架的依赖特征
type marker struct {
	framework model.Framework
	groups    []string // 精确匹配 groupId
	artifacts []string // 精确匹配 artifactId
	contains  []string // artifactId 包含的片段
}

// 按顺序检查，先命中者为准
var markers = []marker{
	{framework: model.FrameworkSpringMVC, artifacts: []string{"spring-webmvc", "spring-boot-starter-web", "spring-web"}},
	{framework: model.FrameworkJAXRS, groups: []string{"javax.ws.rs", "jakarta.ws.rs"}, contains: []string{"jersey", "resteasy", "cxf-rt-frontend-jaxrs"}},
	{framework: model.FrameworkStruts2, artifacts: []string{"struts2-core"}},
	{framework: model.FrameworkStruts1, artifacts: []string{"struts", "struts-core", "struts-taglib"}},
	{framework: model.FrameworkServlet, artifacts: []string{"servlet-api", "javax.servlet-api", "jakarta.servlet-api"}},
}

func (m marker) matches(c Coordinate) bool {
	for _, g := range m.groups {
		if c.Group == g {
			return true
		}
	}
	for _, a := range m.artifacts {
		if c.Artifact == a {
			return true
		}
	}
	for _, frag := range m.contains {
		if strings.Contains(c.Artifact, frag) {
			return true
		}
	}
	return false
}

// Result 框架检测结果，Marker 为命中的依赖坐标
type Result struct {
	Framework  model.Framework
	Descriptor string
	Marker     *Coordinate
}

// Detector 通过构建描述中声明的依赖识别框架。
// 描述文件缺失、不可读或没有命中任何特征时返回 UNKNOWN，这不是错误。
type Detector struct {
	Logger *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{Logger: logger}
}

func (d *Detector) Detect(projectRoot string) Result {
	for _, name := range BuildDescriptors {
		path := filepath.Join(projectRoot, name)
		coords, err := ReadDependencies(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			d.Logger.Warn("unreadable build descriptor", "file", path, "error", err)
			return Result{Framework: model.FrameworkUnknown, Descriptor: path}
		}
		return classify(path, coords)
	}
	return Result{Framework: model.FrameworkUnknown}
}

func classify(descriptor string, coords []Coordinate) Result {
	for _, m := range markers {
		for i := range coords {
			if m.matches(coords[i]) {
				c := coords[i]
				return Result{Framework: m.framework, Descriptor: descriptor, Marker: &c}
			}
		}
	}
	return Result{Framework: model.FrameworkUnknown, Descriptor: descriptor}
}

// ReadDependencies 读取构建描述中声明的依赖坐标
func ReadDependencies(path string) ([]Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if filepath.Base(path) == "pom.xml" {
		return parsePom(f)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return parseGradle(string(content)), nil
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// parsePom 收集文档中所有 <dependency> 元素，包括 dependencyManagement 与 profiles 中的
func parsePom(r io.Reader) ([]Coordinate, error) {
	dec := parser.NewXMLDecoder(r)

	var coords []Coordinate
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return coords, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse pom: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "dependency" {
			continue
		}
		var dep pomDependency
		if err := dec.DecodeElement(&dep, &start); err != nil {
			return nil, fmt.Errorf("parse pom dependency: %w", err)
		}
		coords = append(coords, Coordinate{
			Group:    strings.TrimSpace(dep.GroupID),
			Artifact: strings.TrimSpace(dep.ArtifactID),
		})
	}
}

var (
	// implementation 'group:artifact:version' / "group:artifact"
	gradleShortNotation = regexp.MustCompile(`['"]([\w.\-]+):([\w.\-]+)(?::[^'"]*)?['"]`)
	// compile group: 'group', name: 'artifact'
	gradleMapNotation = regexp.MustCompile(`group\s*[:=]\s*['"]([\w.\-]+)['"]\s*,\s*name\s*[:=]\s*['"]([\w.\-]+)['"]`)
)

func parseGradle(content string) []Coordinate {
	var coords []Coordinate
	for _, m := range gradleShortNotation.FindAllStringSubmatch(content, -1) {
		coords = append(coords, Coordinate{Group: m[1], Artifact: m[2]})
	}
	for _, m := range gradleMapNotation.FindAllStringSubmatch(content, -1) {
		coords = append(coords, Coordinate{Group: m[1], Artifact: m[2]})
	}
	return coords
}
