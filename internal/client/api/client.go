package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/user/bookify/internal/model"
)

// 服务端错误的归类。客户端收藏缓存按类别决定回滚还是收敛。
var (
	// ErrUnauthenticated token 缺失/过期/无效
	ErrUnauthenticated = errors.New("未登录或登录已过期")
	// ErrRejected 服务端 4xx 拒绝（参数问题或已在收藏夹）
	ErrRejected = errors.New("请求被服务端拒绝")
	// ErrServer 服务端 5xx
	ErrServer = errors.New("服务端内部错误")
)

// Client Bookify API 客户端
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetToken 设置 bearer token（登录成功或本地会话恢复后）
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token 当前 token，空串表示未登录
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope 服务端统一响应结构
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

// do 发请求并剥掉响应封套。target 为 nil 时丢弃 data。
func (c *Client) do(method, path string, body interface{}, target interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, env.Message)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrServer, env.Message)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return nil
}

// authData 认证接口的响应数据
type authData struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Signup 注册，成功后自动持有 token
func (c *Client) Signup(name, email, password string) (*model.User, error) {
	var data authData
	err := c.do("POST", "/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return nil, err
	}
	c.SetToken(data.Token)
	return data.User, nil
}

// Login 登录，成功后自动持有 token
func (c *Client) Login(email, password string) (*model.User, error) {
	var data authData
	err := c.do("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return nil, err
	}
	c.SetToken(data.Token)
	return data.User, nil
}

// GoogleLogin 用 Google ID token 登录
func (c *Client) GoogleLogin(credential string) (*model.User, error) {
	var data authData
	err := c.do("POST", "/auth/google-login", map[string]string{
		"credential": credential,
	}, &data)
	if err != nil {
		return nil, err
	}
	c.SetToken(data.Token)
	return data.User, nil
}

// Me 用当前 token 取回账号（本地会话恢复后的对账）
func (c *Client) Me() (*model.User, error) {
	var data struct {
		User *model.User `json:"user"`
	}
	if err := c.do("GET", "/api/user/me", nil, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

// favoritesData 收藏接口的响应数据
type favoritesData struct {
	Favorites []model.Favorite `json:"favorites"`
}

// Favorites 拉取权威收藏列表
func (c *Client) Favorites() ([]model.Favorite, error) {
	var data favoritesData
	if err := c.do("GET", "/api/favorites", nil, &data); err != nil {
		return nil, err
	}
	return data.Favorites, nil
}

// AddFavorite 添加收藏，返回服务端的新列表
func (c *Client) AddFavorite(entry model.Favorite) ([]model.Favorite, error) {
	var data favoritesData
	if err := c.do("POST", "/api/favorites", entry, &data); err != nil {
		return nil, err
	}
	return data.Favorites, nil
}

// RemoveFavorite 取消收藏（服务端幂等），返回新列表
func (c *Client) RemoveFavorite(bookID string) ([]model.Favorite, error) {
	var data favoritesData
	if err := c.do("DELETE", "/api/favorites/"+url.PathEscape(bookID), nil, &data); err != nil {
		return nil, err
	}
	return data.Favorites, nil
}

// SyncFavorites 上送本地快照，换回合并后的权威列表
func (c *Client) SyncFavorites(entries []model.Favorite) ([]model.Favorite, error) {
	var data favoritesData
	err := c.do("POST", "/api/favorites/sync", map[string]interface{}{
		"favorites": entries,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Favorites, nil
}

// SearchBooks 目录搜索
func (c *Client) SearchBooks(keyword string) ([]model.Book, error) {
	var data struct {
		Books []model.Book `json:"books"`
	}
	if err := c.do("GET", "/api/books/search?q="+url.QueryEscape(keyword), nil, &data); err != nil {
		return nil, err
	}
	return data.Books, nil
}

// Bestsellers 畅销榜
func (c *Client) Bestsellers() ([]model.Book, error) {
	var data struct {
		Books []model.Book `json:"books"`
	}
	if err := c.do("GET", "/api/books/bestsellers", nil, &data); err != nil {
		return nil, err
	}
	return data.Books, nil
}

// Featured 精选轮播
func (c *Client) Featured() ([]model.FeaturedBook, error) {
	var books []model.FeaturedBook
	if err := c.do("GET", "/api/featured", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}
