package middleware

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
)

// RequestLogger logs every HTTP request once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		clientInfo := GetClientInfoFromContext(c.Request.Context())
		status := c.Writer.Status()
		logLevel := "INFO"
		if status >= 500 {
			logLevel = "ERROR"
		}
		log.Printf("[%s] %s %s %d completed in %v (user: %s, ip: %s)",
			logLevel, c.Request.Method, c.FullPath(), status, time.Since(start),
			clientInfo.UserEmail, clientInfo.IPAddress)
		for _, err := range c.Errors {
			log.Printf("[ERROR] %s %s error: %v", c.Request.Method, c.FullPath(), err.Err)
		}
	}
}

// UnaryLogger logs incoming gRPC requests on the ops server.
func UnaryLogger(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	clientInfo := GetClientInfoFromContext(ctx)
	resp, err := handler(ctx, req)
	duration := time.Since(start)
	logLevel := "INFO"
	if err != nil {
		logLevel = "ERROR"
	}
	log.Printf("[%s] %s completed in %v (ip: %s)", logLevel, info.FullMethod, duration, clientInfo.IPAddress)
	if err != nil {
		log.Printf("[ERROR] %s error: %v", info.FullMethod, err)
	}
	return resp, err
}

// SecureHeaders sets browser hardening headers on every response. HSTS is
// only sent when hsts is true, which the router ties to secure cookies.
func SecureHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
