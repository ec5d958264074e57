package utils

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServiceAccount 生成一个带真实RSA私钥的服务账号JSON
func testServiceAccount(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	sa := map[string]string{
		"type":         "service_account",
		"client_email": "tracker@test-project.iam.gserviceaccount.com",
		"private_key":  string(pemBytes),
	}
	data, err := json.Marshal(sa)
	require.NoError(t, err)

	return string(data), key
}

// TestGoogleTokenSource 测试服务账号令牌换发
func TestGoogleTokenSource(t *testing.T) {
	saJSON, key := testServiceAccount(t)

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))

		// 校验断言是用服务账号私钥签的RS256 JWT
		assertion := r.PostForm.Get("assertion")
		require.NotEmpty(t, assertion)
		parsed, err := jwt.Parse(assertion, func(token *jwt.Token) (interface{}, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		require.NoError(t, err)

		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, "tracker@test-project.iam.gserviceaccount.com", claims["iss"])
		assert.Contains(t, claims["scope"], "spreadsheets")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"ya29.token-%d","token_type":"Bearer","expires_in":3600}`, hits)
	}))
	defer server.Close()

	source, err := NewGoogleTokenSource(saJSON, server.URL, server.Client())
	require.NoError(t, err)
	assert.Equal(t, "tracker@test-project.iam.gserviceaccount.com", source.Email())

	t.Run("首次换发令牌", func(t *testing.T) {
		token, err := source.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ya29.token-1", token)
		assert.Equal(t, 1, hits)
	})

	t.Run("未过期时走缓存", func(t *testing.T) {
		token, err := source.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ya29.token-1", token)
		assert.Equal(t, 1, hits) // 没有发起新请求
	})
}

// TestGoogleTokenSourceRefresh 测试临近过期时重新换发
func TestGoogleTokenSourceRefresh(t *testing.T) {
	saJSON, _ := testServiceAccount(t)

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		// expires_in很短，减去一分钟安全边界后立即视为过期
		fmt.Fprintf(w, `{"access_token":"short-%d","token_type":"Bearer","expires_in":5}`, hits)
	}))
	defer server.Close()

	source, err := NewGoogleTokenSource(saJSON, server.URL, server.Client())
	require.NoError(t, err)

	_, err = source.Token(context.Background())
	require.NoError(t, err)
	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "short-2", token)
	assert.Equal(t, 2, hits)
}

// TestGoogleTokenSourceErrors 测试各种失败场景
func TestGoogleTokenSourceErrors(t *testing.T) {
	t.Run("非法JSON", func(t *testing.T) {
		_, err := NewGoogleTokenSource("not-json", "", nil)
		assert.Error(t, err)
	})

	t.Run("缺少必需字段", func(t *testing.T) {
		_, err := NewGoogleTokenSource(`{"client_email":"a@b.c"}`, "", nil)
		assert.Error(t, err)
	})

	t.Run("私钥不是合法PEM", func(t *testing.T) {
		_, err := NewGoogleTokenSource(`{"client_email":"a@b.c","private_key":"garbage"}`, "", nil)
		assert.Error(t, err)
	})

	t.Run("令牌端点报错", func(t *testing.T) {
		saJSON, _ := testServiceAccount(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		}))
		defer server.Close()

		source, err := NewGoogleTokenSource(saJSON, server.URL, server.Client())
		require.NoError(t, err)

		_, err = source.Token(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})
}

// TestGenerateRandomString 测试随机字符串生成
func TestGenerateRandomString(t *testing.T) {
	s1, err := GenerateRandomString(32)
	require.NoError(t, err)
	assert.Len(t, s1, 32)

	s2, err := GenerateRandomString(32)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}
