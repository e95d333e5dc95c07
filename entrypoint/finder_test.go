package entrypoint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/entrypoint"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/x/java"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadProject(t *testing.T, name string) (string, *core.GlobalContext) {
	t.Helper()
	root := filepath.Join("testdata", name)
	gc, err := java.BuildModel(context.Background(), root, java.Options{ExcludeTestPaths: true})
	require.NoError(t, err)
	return root, gc
}

type endpoint struct {
	path  string
	verbs []model.HTTPVerb
	sig   string
}

func endpoints(eps []*model.EntryPoint) []endpoint {
	out := make([]endpoint, 0, len(eps))
	for _, ep := range eps {
		out = append(out, endpoint{path: ep.Path, verbs: ep.Verbs, sig: ep.MethodSignature})
	}
	return out
}

var anyVerb = []model.HTTPVerb{model.VerbAny}

func TestSpringFinder(t *testing.T) {
	root, gc := loadProject(t, "spring")
	eps := entrypoint.NewSpringFinder().Find(gc, root)

	assert.Equal(t, []endpoint{
		{"/api/users", []model.HTTPVerb{model.VerbGet}, "list()"},
		{"/v1/users", []model.HTTPVerb{model.VerbGet}, "list()"},
		{"/api/users", []model.HTTPVerb{model.VerbPost, model.VerbPut}, "save(String body)"},
		{"/v1/users", []model.HTTPVerb{model.VerbPost, model.VerbPut}, "save(String body)"},
		{"/api/ping", anyVerb, "ping()"},
		{"/v1/ping", anyVerb, "ping()"},
	}, endpoints(eps))

	first := eps[0]
	assert.Equal(t, model.FrameworkSpringMVC, first.Framework)
	assert.Equal(t, "com.acme.web.UserController", first.TypeName)
	assert.Equal(t, "com.acme.web.UserController#list()", first.MethodID)
	assert.Equal(t, "src/main/java/com/acme/web/UserController.java", first.Location.FilePath)
	assert.Equal(t, 8, first.Location.StartLine)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, eps[0].ID, eps[1].ID)
}

func TestJAXRSFinder(t *testing.T) {
	root, gc := loadProject(t, "jaxrs")
	eps := entrypoint.NewJAXRSFinder().Find(gc, root)

	assert.Equal(t, []endpoint{
		{"/orders/{id}", []model.HTTPVerb{model.VerbGet}, "get(String id)"},
		{"/orders", []model.HTTPVerb{model.VerbPost}, "create(String body)"},
		{"/orders/items", anyVerb, "items()"},
	}, endpoints(eps))
	assert.Equal(t, model.FrameworkJAXRS, eps[0].Framework)
}

func TestStruts1Finder(t *testing.T) {
	root, gc := loadProject(t, "struts1")
	eps := entrypoint.NewStruts1Finder(nil).Find(gc, root)
	require.Len(t, eps, 2)

	login := eps[0]
	assert.Equal(t, "/login", login.Path)
	assert.Equal(t, anyVerb, login.Verbs)
	assert.Equal(t, "execute", login.MethodSignature)
	assert.True(t, login.IsUnresolvedDispatch())
	assert.Equal(t, "com.acme.action.LoginAction#execute(Object,Object,Object,Object)", login.MethodID)
	assert.Equal(t, "WebContent/WEB-INF/struts-config.xml", login.Location.FilePath)
	assert.Equal(t, 5, login.Location.StartLine)

	// 处理类不在源码中时不绑定方法
	report := eps[1]
	assert.Equal(t, "com.acme.action.ReportAction", report.TypeName)
	assert.Empty(t, report.MethodID)
	assert.True(t, report.IsUnresolvedDispatch())
}

func TestStruts2Finder(t *testing.T) {
	root, gc := loadProject(t, "struts2")
	eps := entrypoint.NewStruts2Finder(nil).Find(gc, root)

	assert.Equal(t, []endpoint{
		{"/admin/login.action", anyVerb, "authenticate()"},
		{"/admin/logout.action", anyVerb, "execute"},
		{"/admin/report_*.action", anyVerb, "execute"},
		{"/admin/audit.action", anyVerb, "review()"},
		{"/home.action", anyVerb, "execute"},
	}, endpoints(eps))

	assert.False(t, eps[0].IsUnresolvedDispatch())
	assert.Equal(t, "com.acme.action.AdminAction#authenticate()", eps[0].MethodID)
	assert.True(t, eps[1].IsUnresolvedDispatch())
	assert.Equal(t, "com.acme.action.AdminAction#execute()", eps[1].MethodID)

	// 通配方法不绑定到任何方法
	assert.True(t, eps[2].IsUnresolvedDispatch())
	assert.Empty(t, eps[2].MethodID)

	// 处理类不在源码中时仍按无参方法书写签名
	assert.False(t, eps[3].IsUnresolvedDispatch())
	assert.Empty(t, eps[3].MethodID)

	assert.Equal(t, "com.opensymphony.xwork2.ActionSupport", eps[4].TypeName)
	assert.Empty(t, eps[4].MethodID)
}

func TestServletFinder(t *testing.T) {
	root, gc := loadProject(t, "servlet")
	eps := entrypoint.NewServletFinder(nil).Find(gc, root)

	assert.Equal(t, []endpoint{
		{"/export/*", anyVerb, "service"},
		{"*.csv", anyVerb, "service"},
	}, endpoints(eps))
	assert.Equal(t, "com.acme.servlet.ExportServlet", eps[0].TypeName)
	assert.Equal(t, "com.acme.servlet.ExportServlet#service(HttpServletRequest,HttpServletResponse)", eps[0].MethodID)
	assert.Equal(t, "src/main/webapp/WEB-INF/web.xml", eps[0].Location.FilePath)
	assert.Equal(t, 11, eps[0].Location.StartLine)
}

func TestServletFinder_Latin1Descriptor(t *testing.T) {
	root := t.TempDir()
	webInf := filepath.Join(root, "src", "main", "webapp", "WEB-INF")
	require.NoError(t, os.MkdirAll(webInf, 0o755))
	content := `<?xml version="1.0" encoding="ISO-8859-1"?>
<web-app>
  <display-name>R` + "\xe9" + `servations</display-name>
  <servlet>
    <servlet-name>booking</servlet-name>
    <servlet-class>com.acme.servlet.BookingServlet</servlet-class>
  </servlet>
  <servlet-mapping>
    <servlet-name>booking</servlet-name>
    <url-pattern>/booking</url-pattern>
  </servlet-mapping>
</web-app>`
	require.NoError(t, os.WriteFile(filepath.Join(webInf, "web.xml"), []byte(content), 0o644))

	gc, err := java.BuildModel(context.Background(), root, java.Options{})
	require.NoError(t, err)
	eps := entrypoint.NewServletFinder(nil).Find(gc, root)
	require.Len(t, eps, 1)
	assert.Equal(t, "/booking", eps[0].Path)
	assert.Equal(t, "com.acme.servlet.BookingServlet", eps[0].TypeName)
}

func TestFinders_EmptyWhenNothingDeclared(t *testing.T) {
	root, gc := loadProject(t, "jaxrs")

	assert.Empty(t, entrypoint.NewSpringFinder().Find(gc, root))
	assert.Empty(t, entrypoint.NewStruts1Finder(nil).Find(gc, root))
	assert.Empty(t, entrypoint.NewStruts2Finder(nil).Find(gc, root))
	assert.Empty(t, entrypoint.NewServletFinder(nil).Find(gc, root))
}

func TestForFramework(t *testing.T) {
	cases := map[model.Framework]model.Framework{
		model.FrameworkSpringMVC: model.FrameworkSpringMVC,
		model.FrameworkJAXRS:     model.FrameworkJAXRS,
		model.FrameworkStruts1:   model.FrameworkStruts1,
		model.FrameworkStruts2:   model.FrameworkStruts2,
		model.FrameworkServlet:   model.FrameworkServlet,
		model.FrameworkUnknown:   model.FrameworkUnknown,
	}
	for fw, expected := range cases {
		assert.Equal(t, expected, entrypoint.ForFramework(fw, nil).Framework())
	}
}

func TestCompositeFinder(t *testing.T) {
	root, gc := loadProject(t, "servlet")
	eps := entrypoint.ForFramework(model.FrameworkUnknown, nil).Find(gc, root)
	require.Len(t, eps, 2)
	assert.Equal(t, model.FrameworkServlet, eps[0].Framework)

	root, gc = loadProject(t, "spring")
	assert.Len(t, entrypoint.ForFramework(model.FrameworkUnknown, nil).Find(gc, root), 6)
}
