package utils

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 服务账号授权范围：读写表格，外加按名称查找表格所需的Drive权限
const googleTokenScopes = "https://www.googleapis.com/auth/spreadsheets https://www.googleapis.com/auth/drive"

// 默认令牌端点，凭据JSON里没有token_uri时使用
const defaultGoogleTokenURL = "https://oauth2.googleapis.com/token"

// ServiceAccount 服务账号凭据里本服务用到的字段
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// GoogleTokenSource 服务账号访问令牌源
// 用RS256签名的JWT-bearer断言向令牌端点换取访问令牌，
// 令牌在进程内缓存，临近过期时自动换发
type GoogleTokenSource struct {
	account  ServiceAccount
	key      *rsa.PrivateKey
	tokenURL string
	client   *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewGoogleTokenSource 解析服务账号JSON并构建令牌源
// tokenURL为空时使用凭据里的token_uri；client为nil时用带超时的默认客户端
func NewGoogleTokenSource(credentialsJSON string, tokenURL string, client *http.Client) (*GoogleTokenSource, error) {
	var account ServiceAccount
	if err := json.Unmarshal([]byte(credentialsJSON), &account); err != nil {
		return nil, fmt.Errorf("解析服务账号JSON失败: %w", err)
	}
	if account.ClientEmail == "" || account.PrivateKey == "" {
		return nil, errors.New("服务账号JSON缺少client_email或private_key")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("解析服务账号私钥失败: %w", err)
	}

	if tokenURL == "" {
		tokenURL = account.TokenURI
	}
	if tokenURL == "" {
		tokenURL = defaultGoogleTokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &GoogleTokenSource{
		account:  account,
		key:      key,
		tokenURL: tokenURL,
		client:   client,
	}, nil
}

// Email 服务账号邮箱
func (s *GoogleTokenSource) Email() string {
	return s.account.ClientEmail
}

// Token 返回可用的访问令牌，必要时换发
func (s *GoogleTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 提前一分钟视为过期，避免边界上的请求失败
	if s.token != "" && time.Now().Before(s.expiry.Add(-time.Minute)) {
		return s.token, nil
	}

	assertion, err := s.signAssertion()
	if err != nil {
		return "", fmt.Errorf("签发JWT断言失败: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求令牌端点失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("令牌端点返回 %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("解析令牌响应失败: %w", err)
	}
	if result.AccessToken == "" {
		return "", errors.New("令牌响应缺少access_token")
	}

	s.token = result.AccessToken
	s.expiry = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return s.token, nil
}

// signAssertion 构造并签名JWT-bearer断言
// aud必须是令牌端点本身，有效期一小时
func (s *GoogleTokenSource) signAssertion() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.account.ClientEmail,
		"scope": googleTokenScopes,
		"aud":   s.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.key)
}
