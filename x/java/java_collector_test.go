package java_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/collector"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/parser"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/x/java"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shopRoot = filepath.Join("testdata", "shop")

func getTestFilePath(parts ...string) string {
	return filepath.Join(append([]string{shopRoot, "src", "main", "java", "com", "acme", "shop"}, parts...)...)
}

func collectFile(t *testing.T, parts ...string) *core.FileContext {
	t.Helper()
	p, err := parser.NewParser(model.LangJava)
	require.NoError(t, err)
	defer p.Close()

	filePath := getTestFilePath(parts...)
	tree, src, err := p.ParseFile(filePath)
	require.NoError(t, err)
	defer tree.Close()

	coll, err := collector.GetCollector(model.LangJava)
	require.NoError(t, err)
	fCtx, err := coll.CollectDefinitions(tree.RootNode(), filePath, src)
	require.NoError(t, err)
	return fCtx
}

func buildShop(t *testing.T) *core.GlobalContext {
	t.Helper()
	gc, err := java.BuildModel(context.Background(), shopRoot, java.Options{ExcludeTestPaths: true, Workers: 2})
	require.NoError(t, err)
	return gc
}

func TestJavaCollector_PackageAndImports(t *testing.T) {
	fCtx := collectFile(t, "web", "OrderController.java")

	assert.Equal(t, "com.acme.shop.web", fCtx.PackageName)

	imp, ok := fCtx.Imports["OrderService"]
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.service.OrderService", imp.RawImportPath)
	assert.False(t, imp.IsWildcard)

	require.Len(t, fCtx.Wildcards, 1)
	assert.Equal(t, "org.springframework.web.bind.annotation", fCtx.Wildcards[0].RawImportPath)
	assert.True(t, fCtx.Wildcards[0].IsWildcard)
}

func TestJavaCollector_TypeAndAnnotations(t *testing.T) {
	fCtx := collectFile(t, "web", "OrderController.java")
	require.Len(t, fCtx.Types, 1)

	ctrl := fCtx.Types[0]
	assert.Equal(t, model.Class, ctrl.Kind)
	assert.Equal(t, "com.acme.shop.web.OrderController", ctrl.QualifiedName)
	assert.True(t, ctrl.HasAnnotation("RestController"))

	mapping := ctrl.Annotation("RequestMapping")
	require.NotNil(t, mapping)
	assert.Equal(t, `"/orders"`, mapping.Arguments)

	field := ctrl.Field("orderService")
	require.NotNil(t, field)
	assert.Equal(t, "OrderService", field.Type)
}

func TestJavaCollector_Methods(t *testing.T) {
	fCtx := collectFile(t, "web", "OrderController.java")
	ctrl := fCtx.Types[0]

	finds := ctrl.MethodsNamed("find")
	require.Len(t, finds, 1)
	find := finds[0]
	assert.Equal(t, "com.acme.shop.web.OrderController#find(long)", find.ID)
	assert.Equal(t, "find(long id)", find.Signature)
	assert.Equal(t, "long", find.Locals["id"])
	assert.True(t, find.HasBody)
	assert.Equal(t, 17, find.Location.StartLine)

	get := find.Annotation("GetMapping")
	require.NotNil(t, get)
	assert.Equal(t, `"/{id}"`, get.Arguments)

	// 构造函数以类名作为方法名
	ctors := ctrl.MethodsNamed("OrderController")
	require.Len(t, ctors, 1)
	assert.Equal(t, []string{"OrderService"}, ctors[0].ParamTypes)

	create := ctrl.MethodsNamed("create")[0]
	assert.True(t, create.HasAnnotation("PreAuthorize"))
	assert.Equal(t, "List<String>", create.Locals["lines"])

	var names []string
	for _, c := range create.CallSites {
		names = append(names, c.Name)
	}
	// 外层调用先于参数中的嵌套调用
	assert.Equal(t, []string{"of", "place", "size"}, names)
	assert.Equal(t, "this.orderService", create.CallSites[1].Receiver)
}

func TestJavaCollector_Literals(t *testing.T) {
	fCtx := collectFile(t, "repo", "OrderRepository.java")
	repo := fCtx.Types[0]

	load := repo.MethodsNamed("load")[0]
	require.Len(t, load.Literals, 1)
	assert.Equal(t, "SELECT * FROM ORDERS WHERE ID = ?", load.Literals[0].Value)
	assert.Equal(t, 11, load.Literals[0].Location.StartLine)

	query := repo.MethodsNamed("query")[0]
	assert.Equal(t, []string{"String", "Object..."}, query.ParamTypes)
}

func TestJavaCollector_LookupCallSites(t *testing.T) {
	fCtx := collectFile(t, "legacy", "PaymentGateway.java")
	require.Len(t, fCtx.Types, 3)

	gateway := fCtx.Types[0]
	pay := gateway.MethodsNamed("pay")[0]

	var lookups []*core.CallSite
	for _, c := range pay.CallSites {
		if c.Name == "lookup" {
			lookups = append(lookups, c)
		}
	}
	require.Len(t, lookups, 3)

	require.NotNil(t, lookups[0].FirstArg)
	assert.Equal(t, "ejb/Pay", *lookups[0].FirstArg)
	assert.Equal(t, "home", lookups[0].AssignTo)
	assert.Equal(t, "ctx", lookups[0].Receiver)

	assert.Nil(t, lookups[1].FirstArg)

	require.NotNil(t, lookups[2].FirstArg)
	assert.Equal(t, "ejb/Refund", *lookups[2].FirstArg)
	assert.Equal(t, "refund", lookups[2].Chained)

	assert.Equal(t, "com.acme.shop.legacy.PaymentGateway.Audit", fCtx.Types[1].QualifiedName)
	assert.Equal(t, model.Interface, fCtx.Types[2].Kind)
}
