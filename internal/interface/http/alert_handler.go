package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	alertapp "stock-alert/internal/application/alert"
	alertDomain "stock-alert/internal/domain/alert"

	"github.com/gin-gonic/gin"
)

// 手動檢查不受請求取消影響，但仍有上限
const manualCheckTimeout = 2 * time.Minute

func (s *Server) handleListAlerts(c *gin.Context) {
	onlyActive := parseBoolDefault(c.Query("active"), false)
	rules, err := s.alerts.ListRules(c.Request.Context(), currentOwner(c), onlyActive)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	now := time.Now()
	out := make([]ruleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRuleResponse(r, now))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alerts": out})
}

func (s *Server) handleCreateAlert(c *gin.Context) {
	var body createAlertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	if body.Threshold == nil {
		writeError(c, http.StatusBadRequest, errCodeValidation, "value is required")
		return
	}

	rule, err := s.alerts.CreateRule(c.Request.Context(), currentOwner(c), alertapp.CreateRuleInput{
		Ticker:     body.Ticker,
		StockName:  body.StockName,
		Kind:       body.Kind,
		Comparator: body.Comparator,
		Threshold:  *body.Threshold,
		Channel:    body.Channel,
	})
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	s.log.Infow("alert rule created", "owner", rule.Owner, "rule_id", rule.ID, "ticker", rule.Ticker, "kind", rule.Kind)
	c.JSON(http.StatusCreated, gin.H{"success": true, "alert": toRuleResponse(rule, time.Now())})
}

func (s *Server) handleDeleteAlert(c *gin.Context) {
	if err := s.alerts.DeleteRule(c.Request.Context(), currentOwner(c), c.Param("id")); err != nil {
		s.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSetAlertActive(c *gin.Context) {
	var body setActiveRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Active == nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "active is required")
		return
	}
	if err := s.alerts.SetActive(c.Request.Context(), currentOwner(c), c.Param("id"), *body.Active); err != nil {
		s.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "active": *body.Active})
}

func (s *Server) handleAlertStats(c *gin.Context) {
	st, err := s.alerts.Stats(c.Request.Context(), currentOwner(c))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"total_alerts":    st.Total,
		"active_alerts":   st.Active,
		"total_triggered": st.TotalTriggered,
		"today_triggered": st.TriggeredToday,
	})
}

// handleCheckAlerts 立即執行一輪評估；已有評估在跑時回 409。
func (s *Server) handleCheckAlerts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), manualCheckTimeout)
	defer cancel()

	s.log.Infow("manual alert check requested", "user_id", currentUserID(c))
	report, err := s.worker.RunNow(ctx)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cycle": toCycleResponse(report)})
}

func (s *Server) handleAlertStatus(c *gin.Context) {
	last, lastErr, runs := s.worker.Status()
	resp := gin.H{
		"success": true,
		"runs":    runs,
	}
	if runs > 0 {
		resp["last_cycle"] = toCycleResponse(last)
	}
	if lastErr != nil {
		resp["last_error"] = lastErr.Error()
		resp["store_unavailable"] = errors.Is(lastErr, alertDomain.ErrStoreUnavailable)
	}
	c.JSON(http.StatusOK, resp)
}
