package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	return svc
}

func TestBuiltinRoleGuards(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	cases := []struct {
		sub, obj, act string
		want          bool
	}{
		{"customer", "/api/v1/account/orders", "GET", true},
		{"customer", "/api/v1/account/orders/more", "post", true},
		{"customer", "/api/v1/seller/items", "GET", false},
		{"vendor", "/api/v1/seller/items/12/status", "PATCH", true},
		{"vendor", "/api/v1/account/address", "GET", false},
		{"guest", "/api/v1/account/address", "GET", false},
		{"", "/api/v1/account/address", "GET", false},
	}
	for _, tc := range cases {
		got, err := svc.Enforce(tc.sub, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce %+v failed: %v", tc, err)
		}
		if got != tc.want {
			t.Fatalf("enforce %s %s %s: want %v got %v", tc.sub, tc.act, tc.obj, tc.want, got)
		}
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	policies, err := svc.GetRolePolicies("customer")
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	if len(policies) != 1 || policies[0].Object != "/account/*" || policies[0].Action != "*" {
		t.Fatalf("unexpected customer policies: %+v", policies)
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != "role:customer" || roles[1] != "role:vendor" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestGrantAndRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("vendor", "/account/orders", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if ok, _ := svc.Enforce("vendor", "/api/v1/account/orders", "GET"); !ok {
		t.Fatalf("expected granted access")
	}
	if err := svc.RevokeRolePolicy("vendor", "/account/orders", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if ok, _ := svc.Enforce("vendor", "/api/v1/account/orders", "GET"); ok {
		t.Fatalf("expected revoked access")
	}
	if err := svc.GrantRolePolicy("vendor", "/x", " "); err == nil {
		t.Fatalf("blank action should be rejected")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"account":               "/account",
		"/api/v1":               "/",
		"/api/v1/":              "/",
		"/api/v1/seller/items":  "/seller/items",
		"/api/v1/seller/items/": "/seller/items",
	}
	for in, want := range cases {
		if got := NormalizeObject(in); got != want {
			t.Fatalf("NormalizeObject(%q)=%q want %q", in, got, want)
		}
	}
}

func TestCheckReportsDecision(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	decision, err := svc.Check("Vendor", "/api/v1/seller/items/:id/status", "patch")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !decision.Allowed || decision.Role != "role:vendor" || decision.Object != "/seller/items/:id/status" || decision.Action != "PATCH" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	decision, err = svc.Check("", "/api/v1/seller/items", "GET")
	if err != nil || decision.Allowed || decision.Role != "" {
		t.Fatalf("empty role must be denied without error: %+v %v", decision, err)
	}
	var nilSvc *Service
	if _, err := nilSvc.Check("vendor", "/seller/items", "GET"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil service should report ErrUnavailable, got %v", err)
	}
	if err := svc.GrantRolePolicy("vendor", "/x", " "); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("blank action should be ErrInvalidPolicy, got %v", err)
	}
}
