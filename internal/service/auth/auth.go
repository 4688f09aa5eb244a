// Package auth 用户表 + JWT 鉴权 + Middleware
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"GridBridge/internal/conf"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// 角色
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

const issuer = "GridBridge"

// ErrInvalidToken 表示 JWT 无效、过期或解析失败。
var ErrInvalidToken = errors.New("invalid or expired token")

// Service 负责用户校验与令牌签发。
type Service struct {
	db  *sql.DB
	key []byte
	ttl time.Duration
}

// New 创建 Service。secret 不能为空，ttl 小于等于 0 时使用 24 小时。
func New(db *sql.DB, secret string, ttl time.Duration) (*Service, error) {
	if db == nil {
		return nil, errors.New("auth.Service 初始化失败: db 实例不能为 nil")
	}
	if secret == "" {
		return nil, errors.New("auth.Service 初始化失败: JWT 密钥不能为空")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{db: db, key: []byte(secret), ttl: ttl}, nil
}

/* ---------- 用户 ---------- */

// UserCount 返回用户表中的用户数量
func (s *Service) UserCount(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM _user`).Scan(&n); err != nil {
		slog.Error("[Auth] 统计用户数量失败", "error", err)
		return 0
	}
	return n
}

// CreateUser 以明文密码创建用户，返回新用户 ID。
func (s *Service) CreateUser(ctx context.Context, user, pass, role string) (int64, error) {
	if user == "" || pass == "" {
		return 0, errors.New("用户名或密码不能为空")
	}
	if !validRole(role) {
		return 0, fmt.Errorf("未知的角色: %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("生成密码哈希失败: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO _user(username, password_hash, role) VALUES (?, ?, ?)`, user, string(hash), role)
	if err != nil {
		return 0, fmt.Errorf("插入用户 '%s' 失败: %w", user, err)
	}
	return res.LastInsertId()
}

// SeedUsers 把配置文件中的用户 (已是 bcrypt 哈希) 写入用户表，同名用户被覆盖。
func (s *Service) SeedUsers(ctx context.Context, users []conf.UserConfig) error {
	var errs []error
	for _, u := range users {
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			errs = append(errs, fmt.Errorf("用户 '%s' 的 password_hash 不是有效的 bcrypt 哈希: %w", u.Name, err))
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO _user(username, password_hash, role) VALUES (?, ?, ?)
			ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash, role = excluded.role`,
			u.Name, u.PasswordHash, u.Role)
		if err != nil {
			errs = append(errs, fmt.Errorf("写入用户 '%s' 失败: %w", u.Name, err))
		}
	}
	if len(users) > 0 {
		slog.Info("[Auth] 已从配置文件同步用户", "count", len(users)-len(errs))
	}
	return errors.Join(errs...)
}

// CheckUser 校验用户名和密码，成功则返回用户 ID、角色和 true
func (s *Service) CheckUser(ctx context.Context, user, pass string) (id int64, role string, ok bool) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT id, password_hash, role FROM _user WHERE username = ?`, user).
		Scan(&id, &hash, &role)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("[Auth] 查询用户失败", "user", user, "error", err)
		}
		return 0, "", false
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) != nil {
		return 0, "", false
	}
	return id, role, true
}

// UserByID 返回用户名和角色
func (s *Service) UserByID(ctx context.Context, id int64) (username, role string, ok bool) {
	err := s.db.QueryRowContext(ctx, `SELECT username, role FROM _user WHERE id = ?`, id).Scan(&username, &role)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("[Auth] 按 ID 查询用户失败", "id", id, "error", err)
		}
		return "", "", false
	}
	return username, role, true
}

func validRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleViewer
}

/* ---------- JWT ---------- */

// Claim 定义 JWT 的载荷结构
type Claim struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CanWrite 报告角色是否可以编辑表格数据。
func (c *Claim) CanWrite() bool { return c.Role == RoleAdmin || c.Role == RoleEditor }

// GenToken 生成一个新的 JWT
func (s *Service) GenToken(uid int64, role string) (string, error) {
	now := time.Now()
	claims := Claim{
		ID:   uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("签名 JWT 失败: %w", err)
	}
	return signed, nil
}

// ParseToken 解析并验证 JWT 字符串
func (s *Service) ParseToken(tokenString string) (*Claim, error) {
	claims := &Claim{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名方法: %v", token.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, jwt.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w (detail: %v)", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

/* ---------- Context ---------- */

type ctxKey int

const claimKey ctxKey = 0

// ContextWithClaim 把 Claim 放入 context。
func ContextWithClaim(ctx context.Context, c *Claim) context.Context {
	return context.WithValue(ctx, claimKey, c)
}

// ClaimFrom 从 context 中取出 Claim，不存在时返回 nil。
func ClaimFrom(ctx context.Context) *Claim {
	c, _ := ctx.Value(claimKey).(*Claim)
	return c
}

/* ---------- Middleware ---------- */

// Middleware 校验 Bearer 令牌并把 Claim 放入请求 context。
// 令牌缺失或无效时不拦截请求，由后续的权限检查决定是否拒绝。
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if found && tokenString != "" {
			claims, err := s.ParseToken(tokenString)
			switch {
			case err != nil:
				slog.Info("[Auth] 令牌无效", "path", r.URL.Path, "ip", r.RemoteAddr, "error", err)
			default:
				if _, _, exists := s.UserByID(r.Context(), claims.ID); exists {
					r = r.WithContext(ContextWithClaim(r.Context(), claims))
				} else {
					slog.Warn("[Auth] 令牌中的用户不存在", "user_id", claims.ID, "path", r.URL.Path, "ip", r.RemoteAddr)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
