package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListWatchlist(c *gin.Context) {
	entries, err := s.watchlist.List(c.Request.Context(), currentOwner(c))
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	out := make([]watchlistResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toWatchlistResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "interests": out})
}

func (s *Server) handleAddWatchlist(c *gin.Context) {
	var body addWatchlistRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	entry, err := s.watchlist.Add(c.Request.Context(), currentOwner(c), body.Ticker, body.DisplayName)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "interest": toWatchlistResponse(entry)})
}

func (s *Server) handleRemoveWatchlist(c *gin.Context) {
	if err := s.watchlist.Remove(c.Request.Context(), currentOwner(c), c.Param("ticker")); err != nil {
		s.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
