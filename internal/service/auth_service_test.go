package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"timesheet/config"
	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/pkg/jwt"
)

func setupTestAuthService(t *testing.T) (AuthService, *mockStore, *mockBlacklist, *jwt.Manager) {
	t.Helper()
	store := newMockStore()
	for _, e := range store.employees {
		hash, err := hashPassword("password123")
		if err != nil {
			t.Fatalf("hashPassword 失败: %v", err)
		}
		e.PasswordHash = hash
	}
	mgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-for-unit-tests",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
	bl := newMockBlacklist()
	return NewAuthService(store.repository(), mgr, bl, zap.NewNop()), store, bl, mgr
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _, mgr := setupTestAuthService(t)
	ctx := context.Background()

	// 用户名与邮箱均可登录
	for _, login := range []string{"ada", "ada@example.com"} {
		resp, err := svc.Login(ctx, &dto.LoginRequest{Login: login, Password: "password123"})
		if err != nil {
			t.Fatalf("Login(%s) 应成功: %v", login, err)
		}
		if resp.Employee.ID != "emp-1" {
			t.Errorf("返回员工不符: %s", resp.Employee.ID)
		}
		if resp.ExpiresIn != int((15 * time.Minute).Seconds()) {
			t.Errorf("ExpiresIn 不符: %d", resp.ExpiresIn)
		}
		claims, err := mgr.ParseToken(resp.AccessToken)
		if err != nil {
			t.Fatalf("AccessToken 应可解析: %v", err)
		}
		if claims.TokenType != jwt.TokenTypeAccess || len(claims.Capabilities) != 0 {
			t.Errorf("普通员工 Token 不应携带能力: %+v", claims)
		}
	}
}

func TestAuthService_Login_AdminCapability(t *testing.T) {
	svc, _, _, mgr := setupTestAuthService(t)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Login: "admin@admin.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	claims, _ := mgr.ParseToken(resp.AccessToken)
	id := access.FromClaims(claims.EmployeeID, claims.Capabilities)
	if !id.Has(access.CapAdmin) {
		t.Error("管理员 Token 应携带 admin 能力")
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _, _ := setupTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误应返回 ErrInvalidCredentials，实际 %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Login: "nobody", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在应返回 ErrInvalidCredentials，实际 %v", err)
	}
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	svc, store, bl, mgr := setupTestAuthService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "password123", RememberMe: true})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// 刷新前提升为管理员，新 Token 应反映最新能力
	store.employees["emp-1"].IsAdmin = true

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	claims, _ := mgr.ParseToken(refreshed.AccessToken)
	if !access.FromClaims(claims.EmployeeID, claims.Capabilities).Has(access.CapAdmin) {
		t.Error("刷新后的 Token 应按最新记录推导能力")
	}
	rc, _ := mgr.ParseToken(refreshed.RefreshToken)
	if !rc.RememberMe {
		t.Error("RememberMe 应随轮换保留")
	}
	if len(bl.revoked) != 1 {
		t.Errorf("旧 refresh token 应被吊销，实际 %d", len(bl.revoked))
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("重复使用旧 refresh token 应失败，实际 %v", err)
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	svc, _, _, _ := setupTestAuthService(t)
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "password123"})
	if _, err := svc.Refresh(ctx, login.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("AccessToken 不能用于刷新，实际 %v", err)
	}
	if _, err := svc.Refresh(ctx, "garbage"); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("非法 Token 应失败，实际 %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, bl, mgr := setupTestAuthService(t)
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "password123"})
	accessClaims, _ := mgr.ParseToken(login.AccessToken)
	refreshClaims, _ := mgr.ParseToken(login.RefreshToken)

	if err := svc.Logout(ctx, accessClaims, login.RefreshToken); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if _, ok := bl.revoked[accessClaims.ID]; !ok {
		t.Error("AccessToken 应被吊销")
	}
	if _, ok := bl.revoked[refreshClaims.ID]; !ok {
		t.Error("RefreshToken 应被吊销")
	}
}

func TestAuthService_Logout_IgnoresForeignRefreshToken(t *testing.T) {
	svc, _, bl, mgr := setupTestAuthService(t)
	ctx := context.Background()

	mine, _ := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "password123"})
	theirs, _ := svc.Login(ctx, &dto.LoginRequest{Login: "alan", Password: "password123"})
	accessClaims, _ := mgr.ParseToken(mine.AccessToken)
	foreign, _ := mgr.ParseToken(theirs.RefreshToken)

	if err := svc.Logout(ctx, accessClaims, theirs.RefreshToken); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if _, ok := bl.revoked[foreign.ID]; ok {
		t.Error("不应吊销他人的 refresh token")
	}
}

func TestAuthService_NilBlacklist(t *testing.T) {
	store := newMockStore()
	hash, _ := hashPassword("password123")
	store.employees["emp-1"].PasswordHash = hash
	mgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:              "test-secret-key-for-unit-tests",
		AccessTokenTTL:         time.Minute,
		RefreshTokenTTLDefault: time.Hour,
	})
	svc := NewAuthService(store.repository(), mgr, nil, zap.NewNop())
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); err != nil {
		t.Errorf("无黑名单时 Refresh 应成功: %v", err)
	}
	claims, _ := mgr.ParseToken(login.AccessToken)
	if err := svc.Logout(ctx, claims, login.RefreshToken); err != nil {
		t.Errorf("无黑名单时 Logout 应成功: %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	svc, store, _, _ := setupTestAuthService(t)
	dept := "dept-1"
	store.employees["emp-1"].DepartmentID = &dept

	resp, err := svc.Me(context.Background(), employeeID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if resp.Username != "ada" || resp.Department == nil || resp.Department.Name != "Engineering" {
		t.Errorf("返回内容不符: %+v", resp)
	}
	if _, err := svc.Me(context.Background(), access.Identity{EmployeeID: "ghost"}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际 %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _, _, _ := setupTestAuthService(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, employeeID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("旧密码错误应返回 ErrWrongPassword，实际 %v", err)
	}

	if err := svc.ChangePassword(ctx, employeeID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "newpassword1"}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Login: "ada", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码不应再可登录，实际 %v", err)
	}
}
