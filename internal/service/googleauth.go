package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/user/bookify/internal/config"
	"github.com/user/bookify/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GoogleUser Google 侧的用户身份
type GoogleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAuthService Google 登录。
// 支持两条路径：前端送来 ID token（tokeninfo 校验），
// 以及服务端发起的授权码流程（跳转 Google 再回调换码）。
type GoogleAuthService struct {
	cfg    *config.Config
	oauth  *oauth2.Config
	client *utils.HTTPClient

	// 测试时可替换
	tokenInfoURL string
	userInfoURL  string
}

func NewGoogleAuthService(cfg *config.Config) *GoogleAuthService {
	return &GoogleAuthService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoints.Google,
		},
		client:       utils.NewHTTPClient(10 * time.Second),
		tokenInfoURL: "https://oauth2.googleapis.com/tokeninfo",
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

// AuthCodeURL 生成跳转到 Google 的授权地址，state 用于防 CSRF
func (s *GoogleAuthService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// tokenInfoResponse tokeninfo 接口响应
type tokenInfoResponse struct {
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Exp     string `json:"exp"`
}

// VerifyIDToken 校验前端 Google 登录组件送来的 ID token
func (s *GoogleAuthService) VerifyIDToken(credential string) (*GoogleUser, error) {
	reqURL := fmt.Sprintf("%s?id_token=%s", s.tokenInfoURL, url.QueryEscape(credential))

	var info tokenInfoResponse
	if err := s.client.GetJSON(reqURL, &info); err != nil {
		return nil, fmt.Errorf("tokeninfo 校验失败: %w", err)
	}

	// audience 必须是本应用的 client id
	if info.Aud != s.cfg.GoogleClientID {
		return nil, fmt.Errorf("token audience 不匹配")
	}
	if exp, err := strconv.ParseInt(info.Exp, 10, 64); err != nil || time.Now().Unix() >= exp {
		return nil, fmt.Errorf("token 已过期")
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("tokeninfo 响应缺少 sub")
	}

	return &GoogleUser{
		ID:      info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// Exchange 授权码换取用户身份（回调路径）
func (s *GoogleAuthService) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("授权码交换失败: %w", err)
	}

	resp, err := s.oauth.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("获取用户信息失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("获取用户信息失败，状态码: %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("解析用户信息失败: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("用户信息缺少 id")
	}
	return &user, nil
}
