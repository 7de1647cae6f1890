package httpapi

import (
	"net/http"
	"testing"
)

func TestWatchlistHandlers(t *testing.T) {
	s := newTestServer(t)
	token := loginToken(t, s, "user@example.com")

	w := doJSON(t, s, "POST", "/api/watchlist", token, map[string]string{"ticker": "000660"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added struct {
		Interest watchlistResponse `json:"interest"`
	}
	decodeBody(t, w, &added)
	if added.Interest.DisplayName != "SK하이닉스" {
		t.Fatalf("expected name from quote table, got %q", added.Interest.DisplayName)
	}

	w = doJSON(t, s, "POST", "/api/watchlist", token, map[string]string{"ticker": "000660"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", w.Code)
	}

	w = doJSON(t, s, "GET", "/api/watchlist", token, nil)
	var list struct {
		Interests []watchlistResponse `json:"interests"`
	}
	decodeBody(t, w, &list)
	if len(list.Interests) != 1 || list.Interests[0].Ticker != "000660" {
		t.Fatalf("unexpected watchlist: %+v", list.Interests)
	}

	if w := doJSON(t, s, "DELETE", "/api/watchlist/000660", token, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := doJSON(t, s, "DELETE", "/api/watchlist/000660", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = doJSON(t, s, "POST", "/api/watchlist", token, map[string]string{"ticker": " "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
