package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware assigns every request a uuid, reusing the inbound one
// when the caller supplies it
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// loggerMiddleware logs one line per request with latency and status
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("requestID", c.GetString("requestID")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()))
	}
}

// recoveryMiddleware converts panics into 500 responses
func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error(nil,
			zap.Any("panic", recovered),
			zap.String("requestID", c.GetString("requestID")),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// corsMiddleware allows cross-origin reads
func corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-API-Key", requestIDHeader}
	cfg.AllowMethods = []string{"GET", "OPTIONS"}
	return cors.New(cfg)
}

// authMiddleware accepts either a configured API key or a bearer token signed
// by the configured key. With neither configured the API is open, which is
// the expected mode for internal deployments behind a gateway.
func authMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.JWTPublicKey == "" && len(cfg.APIKeys) == 0 {
			c.Next()
			return
		}

		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			for _, key := range cfg.APIKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					c.Next()
					return
				}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}

		if cfg.JWTPublicKey != "" {
			authHeader := c.GetHeader("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if found {
				if validateJWT(tokenString, cfg.JWTPublicKey) {
					c.Next()
					return
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
	}
}

func validateJWT(tokenString, publicKeyPEM string) bool {
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		logger.Error(err)
		return false
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return publicKey, nil
	}, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	if err != nil {
		return false
	}
	return token.Valid
}
