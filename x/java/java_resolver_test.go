package java_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/core"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/x/java"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callNamed(t *testing.T, m *core.MethodDecl, name string) *core.CallSite {
	t.Helper()
	for _, c := range m.CallSites {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no call site %q in %s", name, m.ID)
	return nil
}

func TestBuildModel_ExcludesTestSources(t *testing.T) {
	gc := buildShop(t)

	_, ok := gc.Type("com.acme.shop.web.OrderController")
	assert.True(t, ok)
	_, ok = gc.Type("com.acme.shop.OrderControllerTest")
	assert.False(t, ok)

	withTests, err := java.BuildModel(context.Background(), shopRoot, java.Options{ExcludeTestPaths: false})
	require.NoError(t, err)
	_, ok = withTests.Type("com.acme.shop.OrderControllerTest")
	assert.True(t, ok)
}

func TestBuildModel_RelativeLocations(t *testing.T) {
	gc := buildShop(t)
	ctrl, ok := gc.Type("com.acme.shop.web.OrderController")
	require.True(t, ok)
	assert.Equal(t, "src/main/java/com/acme/shop/web/OrderController.java", ctrl.Location.FilePath)
}

func TestBuildModel_UnreadableRoot(t *testing.T) {
	_, err := java.BuildModel(context.Background(), filepath.Join("testdata", "missing"), java.Options{})
	assert.True(t, errors.Is(err, core.ErrModelBuild))
}

func TestBuildModel_ExcludePatternsAndSkipDirs(t *testing.T) {
	files, err := java.DiscoverSources(shopRoot, java.Options{
		ExcludeTestPaths: true,
		ExcludePatterns:  []string{"**/legacy/**"},
		SkipDirs:         []string{filepath.Join(shopRoot, "src", "main", "java", "com", "acme", "shop", "repo")},
	})
	require.NoError(t, err)
	assert.Len(t, files, 3)
	for _, f := range files {
		assert.NotContains(t, f, "legacy")
		assert.NotContains(t, f, "repo")
	}
}

func TestBuildModel_EmptyProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("none"), 0o644))

	gc, err := java.BuildModel(context.Background(), dir, java.Options{})
	require.NoError(t, err)
	assert.Empty(t, gc.Types())
}

func TestResolver_InterfaceWithSingleImplementer(t *testing.T) {
	gc := buildShop(t)
	find, ok := gc.Method("com.acme.shop.web.OrderController#find(long)")
	require.True(t, ok)

	target, ok := gc.ResolveInvocationTarget(find, callNamed(t, find, "describe"))
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.service.OrderServiceImpl#describe(long)", target.ID)
}

func TestResolver_ThisFieldAndLocalReceivers(t *testing.T) {
	gc := buildShop(t)
	create, ok := gc.Method("com.acme.shop.web.OrderController#create(String)")
	require.True(t, ok)

	target, ok := gc.ResolveInvocationTarget(create, callNamed(t, create, "place"))
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.service.OrderServiceImpl#place(int)", target.ID)

	// 导入的外部类型得到占位方法
	size, ok := gc.ResolveInvocationTarget(create, callNamed(t, create, "size"))
	require.True(t, ok)
	assert.True(t, size.Declaring.External)
	assert.Equal(t, "java.util.List", size.DeclaringName())

	of, ok := gc.ResolveInvocationTarget(create, callNamed(t, create, "of"))
	require.True(t, ok)
	assert.Equal(t, "java.util.List", of.DeclaringName())
}

func TestResolver_UnqualifiedAndVarargs(t *testing.T) {
	gc := buildShop(t)
	place, ok := gc.Method("com.acme.shop.service.OrderServiceImpl#place(int)")
	require.True(t, ok)

	target, ok := gc.ResolveInvocationTarget(place, callNamed(t, place, "validate"))
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.service.OrderServiceImpl#validate(int)", target.ID)

	save, ok := gc.Method("com.acme.shop.repo.OrderRepository#save(int)")
	require.True(t, ok)
	target, ok = gc.ResolveInvocationTarget(save, callNamed(t, save, "query"))
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.repo.OrderRepository#query(String,Object...)", target.ID)
}

func TestResolver_InnerClassReachesOuterMethod(t *testing.T) {
	gc := buildShop(t)
	record, ok := gc.Method("com.acme.shop.legacy.PaymentGateway.Audit#record()")
	require.True(t, ok)

	target, ok := gc.ResolveInvocationTarget(record, callNamed(t, record, "pay"))
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.legacy.PaymentGateway#pay(InitialContext,String)", target.ID)
}

func TestResolver_CastReceiverIsUnresolved(t *testing.T) {
	gc := buildShop(t)
	pay, ok := gc.Method("com.acme.shop.legacy.PaymentGateway#pay(InitialContext,String)")
	require.True(t, ok)

	_, ok = gc.ResolveInvocationTarget(pay, callNamed(t, pay, "refund"))
	assert.False(t, ok)

	// 同文件内的非公开接口，没有实现类时落在接口方法本身
	target, ok := gc.ResolveInvocationTarget(pay, callNamed(t, pay, "create"))
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.legacy.PaymentHome#create()", target.ID)
	assert.False(t, target.HasBody)
}

func TestResolver_ResolveType(t *testing.T) {
	gc := buildShop(t)
	ctrl, _ := gc.Type("com.acme.shop.web.OrderController")

	qn, ok := gc.ResolveType(ctrl.File, "OrderService")
	require.True(t, ok)
	assert.Equal(t, "com.acme.shop.service.OrderService", qn)

	qn, ok = gc.ResolveType(ctrl.File, "String")
	require.True(t, ok)
	assert.Equal(t, "java.lang.String", qn)

	_, ok = gc.ResolveType(ctrl.File, "long")
	assert.False(t, ok)

	impls := gc.Implementers("com.acme.shop.service.OrderService")
	require.Len(t, impls, 1)
	assert.Equal(t, "com.acme.shop.service.OrderServiceImpl", impls[0].QualifiedName)
}

func writeJava(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolver_OverloadsWithSameArity(t *testing.T) {
	root := t.TempDir()
	writeJava(t, root, "src/main/java/p/Dao.java", `package p;

public class Dao {
    public void save(String s) { String q = "DELETE FROM A"; }
    public void save(Long id) { String q = "INSERT INTO B VALUES (1)"; }
    public void find(int id) {}
    public void find(long id) {}
}
`)
	writeJava(t, root, "src/main/java/p/Svc.java", `package p;

public class Svc {
    private Dao dao;

    public void run(Object x) {
        dao.save(1L);
        dao.save("a");
        dao.save(x);
        dao.find(1);
        dao.save(null);
    }
}
`)
	gc, err := java.BuildModel(context.Background(), root, java.Options{})
	require.NoError(t, err)
	run, ok := gc.Method("p.Svc#run(Object)")
	require.True(t, ok)
	require.Len(t, run.CallSites, 5)
	assert.Equal(t, []string{"long"}, run.CallSites[0].ArgKinds)
	assert.Equal(t, []string{""}, run.CallSites[2].ArgKinds)

	resolved := func(i int) string {
		target, ok := gc.ResolveInvocationTarget(run, run.CallSites[i])
		if !ok {
			return ""
		}
		return target.ID
	}
	assert.Equal(t, "p.Dao#save(Long)", resolved(0))
	assert.Equal(t, "p.Dao#save(String)", resolved(1))
	// 非字面量参数无法区分重载
	assert.Empty(t, resolved(2))
	// int 字面量两者都可接收，完全一致的优先
	assert.Equal(t, "p.Dao#find(int)", resolved(3))
	assert.Empty(t, resolved(4))
}
