package httpapi

import (
	"net/http"
	"strings"
	"time"

	"stock-alert/internal/application/auth"
	authDomain "stock-alert/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest 非瀏覽器客戶端可改由 body 帶 refresh token。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}

	res, err := s.loginUC.Execute(c.Request.Context(), auth.LoginInput{
		Email:     body.Email,
		Password:  body.Password,
		UserAgent: c.GetHeader("User-Agent"),
		IP:        c.ClientIP(),
	})
	if err != nil {
		s.log.Warnw("login rejected", "email", strings.ToLower(strings.TrimSpace(body.Email)), "error", err)
		writeError(c, http.StatusUnauthorized, errCodeInvalidCredentials, "invalid email or password")
		return
	}

	s.setRefreshCookie(c, res.Token.RefreshToken, res.Token.RefreshExpiry)
	resp := tokenBody(res.Token)
	resp["user"] = gin.H{
		"id":    res.User.ID,
		"email": res.User.Email,
		"name":  res.User.Name,
		"role":  res.User.Role,
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRefresh(c *gin.Context) {
	token := refreshTokenFrom(c)
	if token == "" {
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, "refresh token missing")
		return
	}

	pair, err := s.refreshUC.Execute(c.Request.Context(), token)
	if err != nil {
		s.log.Infow("refresh rejected", "error", err)
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, "invalid refresh token")
		return
	}

	s.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiry)
	c.JSON(http.StatusOK, tokenBody(pair))
}

// handleLogout 作廢 refresh token 並清除 cookie；沒有 token 也回成功。
func (s *Server) handleLogout(c *gin.Context) {
	if token := refreshTokenFrom(c); token != "" {
		if err := s.logoutUC.Execute(c.Request.Context(), token); err != nil {
			s.log.Warnw("revoke refresh token failed", "error", err)
		}
	}
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// refreshTokenFrom 先讀 cookie，再讀 JSON body。
func refreshTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(refreshCookieName); err == nil && v != "" {
		return v
	}
	var body refreshRequest
	if c.Request.ContentLength != 0 && c.ShouldBindJSON(&body) == nil {
		return strings.TrimSpace(body.RefreshToken)
	}
	return ""
}

// tokenBody 回應中只放 access token；refresh token 走 HttpOnly cookie。
func tokenBody(pair authDomain.TokenPair) gin.H {
	return gin.H{
		"success":      true,
		"access_token": pair.AccessToken,
		"token_type":   "Bearer",
		"expiry":       pair.AccessExpiry.Format(time.RFC3339),
	}
}
