package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	nicknamePattern = regexp.MustCompile(`^[a-z][a-z0-9._]*$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// HashPassword 使用 bcrypt 对密码进行哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword 验证密码
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidateName 验证姓名（仅字母与空格）
func ValidateName(name string) bool {
	return name != "" && namePattern.MatchString(name)
}

// ValidateNickname 验证昵称：5-30 位，字母开头，仅小写字母、数字、下划线和点，
// 不允许连续点或以点结尾
func ValidateNickname(nickname string) bool {
	if len(nickname) < 5 || len(nickname) > 30 {
		return false
	}
	if !nicknamePattern.MatchString(nickname) {
		return false
	}
	if strings.Contains(nickname, "..") || strings.HasSuffix(nickname, ".") {
		return false
	}
	return true
}

// NormalizeNickname 昵称统一小写去空白
func NormalizeNickname(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}

// NormalizeEmail 邮箱统一小写去空白
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail 验证邮箱格式
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword 验证密码强度（至少8个字符）
func ValidatePassword(password string) bool {
	return len(password) >= 8
}

// CapitalizeName 姓名首字母大写（逐词）
func CapitalizeName(name string) string {
	words := strings.Fields(strings.TrimSpace(name))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// GenerateResetToken 生成密码重置 token。
// 返回原始 token（进入邮件）与其 sha256 哈希（入库）。
func GenerateResetToken() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

// HashToken 计算 token 的 sha256 哈希（hex）
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
