package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"mindflow/internal/httpx"
)

const bcryptCost = 12

type Handler struct {
	DB     *sql.DB
	Secret []byte
}

func NewHandler(db *sql.DB, secret []byte) *Handler {
	return &Handler{DB: db, Secret: secret}
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionData struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		httpx.Fail(w, http.StatusBadRequest, "所有字段都不能为空")
		return
	}
	if req.Password != req.ConfirmPassword {
		httpx.Fail(w, http.StatusBadRequest, "两次输入的密码不一致")
		return
	}

	exists, err := EmailExists(h.DB, req.Email)
	if err != nil {
		log.Printf("auth register lookup error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	if exists {
		httpx.Fail(w, http.StatusBadRequest, "该邮箱已被注册")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Printf("auth register hash error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	user, err := InsertUser(h.DB, req.Email, req.Name, string(hash))
	if err != nil {
		log.Printf("auth register insert error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	token, err := GenerateToken(h.Secret, user.ID, user.Email)
	if err != nil {
		log.Printf("auth register token error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	httpx.OK(w, sessionData{User: user, Token: token}, "注册成功")
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.Fail(w, http.StatusBadRequest, "邮箱和密码不能为空")
		return
	}

	user, err := UserByEmail(h.DB, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		httpx.Fail(w, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}
	if err != nil {
		log.Printf("auth login lookup error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		httpx.Fail(w, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	token, err := GenerateToken(h.Secret, user.ID, user.Email)
	if err != nil {
		log.Printf("auth login token error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	httpx.OK(w, sessionData{User: user, Token: token}, "登录成功")
}

// Me handles GET /api/auth/me (behind the auth middleware).
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.MethodNotAllowed(w)
		return
	}

	identity, ok := RequireIdentity(w, r)
	if !ok {
		return
	}

	user, err := UserByID(h.DB, identity.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		httpx.Fail(w, http.StatusNotFound, "用户不存在")
		return
	}
	if err != nil {
		log.Printf("auth me lookup error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	httpx.OK(w, user, "")
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this
// only acknowledges; the client discards its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w)
		return
	}
	httpx.OK(w, nil, "已退出登录")
}
