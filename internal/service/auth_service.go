package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/internal/model"
	"timesheet/internal/repository"
	pkgerrors "timesheet/pkg/errors"
	"timesheet/pkg/jwt"
)

// passwordHashCost 单元测试中可调低
var passwordHashCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// TokenBlacklist Token 吊销存储，Redis 不可用时为 nil
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Refresh 轮换 Token 对，旧 refresh token 立即吊销；能力按最新员工记录重新推导
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, id access.Identity) (*dto.EmployeeResponse, error)
	ChangePassword(ctx context.Context, id access.Identity, req *dto.ChangePasswordRequest) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例，blacklist 可为 nil
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	emp, err := s.repo.Employee.GetByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(emp, req.RememberMe)
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrTokenRevoked
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	emp, err := s.repo.Employee.GetByID(ctx, claims.EmployeeID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrTokenRevoked
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}

	s.revoke(ctx, claims)
	return s.issue(emp, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error {
	if accessClaims != nil {
		s.revoke(ctx, accessClaims)
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil
	}
	if accessClaims != nil && claims.EmployeeID != accessClaims.EmployeeID {
		return nil
	}
	s.revoke(ctx, claims)
	return nil
}

// revoke 未接入 Redis 时 Token 只能等待自然过期
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ExpiresAt == nil {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		s.logger.Warn("吊销 Token 失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

// ────────────────────── Me / ChangePassword ──────────────────────

func (s *authService) Me(ctx context.Context, id access.Identity) (*dto.EmployeeResponse, error) {
	emp, err := s.repo.Employee.GetByID(ctx, id.EmployeeID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, id access.Identity, req *dto.ChangePasswordRequest) error {
	emp, err := s.repo.Employee.GetByID(ctx, id.EmployeeID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	if err := s.repo.Employee.UpdatePassword(ctx, emp.EmployeeID, hash); err != nil {
		s.logger.Error("更新密码失败", zap.Error(err))
		return err
	}

	s.logger.Info("密码已修改", zap.String("employee_id", emp.EmployeeID))
	return nil
}

// ── 辅助函数 ──

func (s *authService) issue(emp *model.Employee, rememberMe bool) (*dto.TokenResponse, error) {
	identity := access.FromEmployee(emp)

	accessToken, err := s.jwtMgr.GenerateAccessToken(emp.EmployeeID, identity.Strings())
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(emp.EmployeeID, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Employee:     toEmployeeResponse(emp),
	}, nil
}
