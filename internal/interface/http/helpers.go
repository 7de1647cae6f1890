package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) setRefreshCookie(c *gin.Context, token string, expiry time.Time) {
	host, _, _ := strings.Cut(c.Request.Host, ":")
	isLocal := host == "localhost" || host == "127.0.0.1"

	c.SetCookie(
		refreshCookieName,
		token,
		int(time.Until(expiry).Seconds()),
		"/",
		"",
		!isLocal, // Secure: only if not local
		true,     // HttpOnly
	)
}

func parseBearer(h string) string {
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// currentOwner 回傳 token 中的 email，即規則與關注清單的擁有者。
func currentOwner(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func parseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
