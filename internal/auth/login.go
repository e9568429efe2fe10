package auth

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"AutoHoldem/internal/utils"
)

const signPrefix = "Sign this message to authenticate with AutoHoldem. Nonce: "

type LoginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Nonce     string `json:"nonce" binding:"required"`
}

type Handler struct {
	nonces NonceStore
	secret []byte
	ttl    time.Duration
}

// 工厂方法：创建 handler
func NewHandler(nonces NonceStore, secret []byte, ttl time.Duration) *Handler {
	return &Handler{nonces: nonces, secret: secret, ttl: ttl}
}

// SignMessage 前端 personal_sign 的原文
func SignMessage(nonce string) string {
	return signPrefix + nonce
}

// messageHash 与 MetaMask personal_sign 完全一致的消息哈希
func messageHash(msg string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256Hash([]byte(prefixed)).Bytes()
}

// recoverAddress 从签名恢复地址（checksum 格式）
func recoverAddress(nonce, signature string) (string, error) {
	sig := strings.TrimPrefix(signature, "0x")
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(sigBytes) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sigBytes))
	}
	// 修正 V 值
	if sigBytes[crypto.RecoveryIDOffset] >= 27 {
		sigBytes[crypto.RecoveryIDOffset] -= 27
	}
	pubKey, err := crypto.SigToPub(messageHash(SignMessage(nonce)), sigBytes)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}

// IssueToken 签发 HS256 JWT，sub 为钱包地址
func IssueToken(secret []byte, address string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": address,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	// 检查 nonce 是否有效，只允许一次
	ok, err := h.nonces.Consume(c.Request.Context(), req.Nonce)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "nonce store unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid nonce"})
		return
	}

	recovered, err := recoverAddress(req.Nonce, req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verify failed"})
		return
	}
	if !strings.EqualFold(recovered, req.Address) {
		utils.Log.Warn("login signature mismatch", "claimed", req.Address, "recovered", recovered)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "signature mismatch"})
		return
	}

	jwtStr, err := IssueToken(h.secret, recovered, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jwt": jwtStr, "address": recovered})
}

// GET|POST /auth/nonce
func (h *Handler) Nonce(c *gin.Context) {
	nonce, err := h.nonces.Issue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate nonce"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce, "message": SignMessage(nonce)})
}

func (h *Handler) RegisterRoutes(g gin.IRoutes) {
	g.GET("/nonce", h.Nonce)
	g.POST("/nonce", h.Nonce)
	g.POST("/login", h.Login)
}
