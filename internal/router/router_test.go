package router

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ayokah-next/internal/authz"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func noop(*gin.Context) {}

func catalogEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group(apiPrefix)
	api.GET("/items", noop)
	api.GET("/account/orders", noop)
	api.POST("/account/orders/more", noop)
	api.PATCH("/seller/items/:id/status", noop)
	api.GET("/seller/items", noop)
	r.GET("/healthz", noop)
	return r
}

func TestBuildGuardedRouteCatalog(t *testing.T) {
	items := buildGuardedRouteCatalog(catalogEngine())
	if len(items) != 4 {
		t.Fatalf("want 4 guarded routes got %d: %+v", len(items), items)
	}
	if items[0].Module != "account" || items[0].Permission != "GET:/account/orders" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	last := items[len(items)-1]
	if last.Module != "seller" || last.Object != "/seller/items/:id/status" {
		t.Fatalf("unexpected last item: %+v", last)
	}
}

func TestReportUnreachableRoutes(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if got := reportUnreachableRoutes(catalogEngine(), svc); len(got) != 0 {
		t.Fatalf("builtin roles should cover all guarded routes: %+v", got)
	}
	if err := svc.RevokeRolePolicy("vendor", "/seller/*", "*"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if got := reportUnreachableRoutes(catalogEngine(), svc); len(got) != 2 {
		t.Fatalf("want 2 unreachable seller routes got %+v", got)
	}
}
