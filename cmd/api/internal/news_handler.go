package internal

import (
	"errors"
	"log"
	"net/http"

	newsscraping "github.com/fazecat/tokensentry/Internal/news_scraping"
)

func (api *API) HandleGetHeadlines(w http.ResponseWriter, r *http.Request) {
	if api.News == nil {
		WriteError(w, http.StatusServiceUnavailable, "Headlines not configured")
		return
	}

	digest, err := api.News.Headlines(r.Context(), r.URL.Query().Get("symbol"))
	if errors.Is(err, newsscraping.ErrInvalidSymbol) {
		WriteError(w, http.StatusBadRequest, "Invalid symbol")
		return
	}
	if err != nil {
		log.Printf("Error fetching headlines: %v", err)
		WriteError(w, http.StatusBadGateway, "Failed to fetch headlines")
		return
	}

	WriteJSON(w, http.StatusOK, digest)
}
