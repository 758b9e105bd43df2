package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user/bookify/internal/config"
	"github.com/user/bookify/internal/middleware"
	"github.com/user/bookify/internal/model"
	"github.com/user/bookify/internal/repository"
	"github.com/user/bookify/internal/service"
	"github.com/user/bookify/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos       *repository.Repositories
	Config      *config.Config
	Catalog     *service.CatalogService
	Bestsellers *service.BestsellerService
	News        *service.NewsService
	GoogleAuth  *service.GoogleAuthService
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	return &Handler{
		Repos:       repos,
		Config:      cfg,
		Catalog:     service.NewCatalogService(cfg),
		Bestsellers: service.NewBestsellerService(cfg),
		News:        service.NewNewsService(cfg),
		GoogleAuth:  service.NewGoogleAuthService(cfg),
	}
}

// generateToken 生成 JWT
func (h *Handler) generateToken(user *model.User) (string, error) {
	return middleware.GenerateToken(user.ID, user.Email, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
}

// ==================== 认证 ====================

type signupReq struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Signup 注册
func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请检查用户名、邮箱和口令（口令至少 6 位）")
		return
	}

	// 检查邮箱是否已存在
	existing, _ := h.Repos.User.FindByEmail(req.Email)
	if existing != nil {
		utils.BadRequest(c, "该邮箱已被注册")
		return
	}

	user, err := h.Repos.User.Create(req.Name, req.Email, req.Password)
	if err != nil {
		// 并发注册同一邮箱时唯一索引兜底
		if err == repository.ErrDuplicateEmail {
			utils.BadRequest(c, "该邮箱已被注册")
			return
		}
		log.Printf("[Signup] 创建用户失败: %v", err)
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		log.Printf("[Signup] 生成 token 失败: %v", err)
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}

	utils.Created(c, gin.H{"user": user, "token": token})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 登录
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请输入邮箱和口令")
		return
	}

	user, err := h.Repos.User.FindByEmail(req.Email)
	if err != nil {
		log.Printf("[Login] 查询用户失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}
	if user == nil || !h.Repos.User.CheckPassword(user, req.Password) {
		utils.BadRequest(c, "邮箱或口令错误")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		log.Printf("[Login] 生成 token 失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	utils.Success(c, gin.H{"user": user, "token": token})
}

type googleLoginReq struct {
	Credential string `json:"credential" binding:"required"`
}

// GoogleLogin 前端 Google 组件登录（ID token 校验）
func (h *Handler) GoogleLogin(c *gin.Context) {
	var req googleLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "缺少 Google 凭证")
		return
	}

	gu, err := h.GoogleAuth.VerifyIDToken(req.Credential)
	if err != nil {
		log.Printf("[GoogleLogin] 凭证校验失败: %v", err)
		utils.BadRequest(c, "Google 登录校验失败")
		return
	}

	user, err := h.resolveGoogleUser(gu)
	if err != nil {
		log.Printf("[GoogleLogin] 账号解析失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		log.Printf("[GoogleLogin] 生成 token 失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	utils.Success(c, gin.H{"user": user, "token": token})
}

// resolveGoogleUser 按 googleId → 同邮箱 → 新建 的顺序解析账号。
// 同邮箱命中时把外部身份链接到已有账号（幂等）。
func (h *Handler) resolveGoogleUser(gu *service.GoogleUser) (*model.User, error) {
	user, err := h.Repos.User.FindByGoogleID(gu.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	if gu.Email != "" {
		user, err = h.Repos.User.FindByEmail(gu.Email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := h.Repos.User.LinkGoogleID(user.ID, gu.ID); err != nil {
				return nil, err
			}
			if user.Avatar == "" && gu.Picture != "" {
				_ = h.Repos.User.UpdateAvatar(user.ID, gu.Picture)
				user.Avatar = gu.Picture
			}
			user.GoogleID = gu.ID
			return user, nil
		}
	}

	return h.Repos.User.CreateWithGoogle(gu.Name, gu.Email, gu.ID, gu.Picture)
}

// GoogleAuthRedirect 服务端授权码流程入口：跳转到 Google
func (h *Handler) GoogleAuthRedirect(c *gin.Context) {
	state := uuid.NewString()
	// state 放短命 Cookie，回调时比对防 CSRF
	c.SetCookie("oauth_state", state, 300, "/", "", false, true)
	c.Redirect(http.StatusFound, h.GoogleAuth.AuthCodeURL(state))
}

// GoogleAuthCallback 授权码回调：换码、解析账号、签 JWT 后跳回前端
func (h *Handler) GoogleAuthCallback(c *gin.Context) {
	state, err := c.Cookie("oauth_state")
	if err != nil || state == "" || c.Query("state") != state {
		utils.BadRequest(c, "state 校验失败")
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		utils.BadRequest(c, "Google 授权被拒绝")
		return
	}

	gu, err := h.GoogleAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("[GoogleAuthCallback] 授权码交换失败: %v", err)
		utils.BadRequest(c, "Google 登录失败")
		return
	}

	user, err := h.resolveGoogleUser(gu)
	if err != nil {
		log.Printf("[GoogleAuthCallback] 账号解析失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		log.Printf("[GoogleAuthCallback] 生成 token 失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	c.Redirect(http.StatusFound, h.Config.FrontendURL+"/oauth-success?token="+token)
}

// Me 返回当前登录用户
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.Repos.User.FindByID(userID)
	if err != nil {
		log.Printf("[Me] 查询用户失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	// 账号已不存在时对调用方一律按未登录处理
	if user == nil {
		utils.Unauthorized(c, "")
		return
	}

	utils.Success(c, gin.H{"user": user})
}

// Logout 登出。服务端无吊销表，只清 Cookie，
// 已签发的 token 到期自然失效。
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	utils.Success(c, nil)
}
