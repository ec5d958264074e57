package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomString 生成随机字符串（用于编辑密钥等）
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}
