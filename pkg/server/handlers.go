package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "creatorjoy/pkg/errors"
	"creatorjoy/pkg/models"
	"creatorjoy/pkg/youtube"
)

// Error codes of failed Instagram scrapes.
const (
	CodeInvalidInput       = "invalid_input"
	CodeResolutionFailed   = "resolution_failed"
	CodeSessionUnavailable = "session_unavailable"
	CodeInternal           = "internal"
)

const (
	sessionUnavailableMessage = "Could not obtain valid Instagram session"
	refreshFailedMessage      = "Failed to refresh session"
	backendMissingSuffix      = " (SELENIUM_REMOTE_URL not configured)"

	// youtubeDefaultMaxVideos is the per-handle default of a batch item.
	youtubeDefaultMaxVideos = 30
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON document with numbers kept as json.Number. A
// missing body returns (nil, nil).
func decodeBody(r *http.Request) (interface{}, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON document")
	}
	return v, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "social-scraper",
	})
}

func (s *Server) handleInstagramHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"service":       "instagram-scraper",
		"session_valid": s.sessions.Valid(),
	})
}

func (s *Server) handleYouTubeHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "youtube-scraper",
	})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Status(time.Now()))
}

func (s *Server) handleRefreshSession(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Refresh(r.Context(), "api"); err != nil {
		msg := refreshFailedMessage
		if errs.IsType(err, errs.ErrorTypeConfiguration) {
			msg += backendMissingSuffix
		}
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   msg,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session refreshed successfully",
	})
}

func (s *Server) writeScrapeError(w http.ResponseWriter, err error) {
	code, msg := CodeInternal, err.Error()

	var typed *errs.Error
	switch {
	case errs.IsType(err, errs.ErrorTypeValidation):
		code = CodeInvalidInput
		if errors.As(err, &typed) {
			msg = typed.Message
		}
	case errs.IsType(err, errs.ErrorTypeResolution):
		code = CodeResolutionFailed
		if errors.As(err, &typed) {
			msg = typed.Message
		}
	case errs.IsType(err, errs.ErrorTypeSession):
		code, msg = CodeSessionUnavailable, sessionUnavailableMessage
	}

	writeJSON(w, errs.HTTPStatus(err), map[string]interface{}{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

func (s *Server) handleInstagramScrape(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.writeScrapeError(w, errs.NewValidationError(fmt.Sprintf("Invalid JSON: %v", err)))
		return
	}
	fields, ok := body.(map[string]interface{})
	if !ok {
		s.writeScrapeError(w, errs.NewValidationError("Body must be a JSON object"))
		return
	}

	handle, _ := fields["target_username"].(string)
	if handle == "" {
		s.writeScrapeError(w, errs.NewValidationError("target_username is required"))
		return
	}
	days, err := intField(fields, "days", s.crawl.DefaultDays)
	if err != nil {
		s.writeScrapeError(w, errs.NewValidationError(err.Error()))
		return
	}
	maxReels, err := intField(fields, "max_reels", s.crawl.DefaultMaxReels)
	if err != nil {
		s.writeScrapeError(w, errs.NewValidationError(err.Error()))
		return
	}

	s.logger.WithContext(r.Context()).InfoWithFields("Instagram scrape request", map[string]interface{}{
		"target_username": handle,
		"days":            days,
		"max_reels":       maxReels,
	})

	result, err := s.reels.Scrape(r.Context(), handle, days, maxReels)
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleYouTubeScrape(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid JSON",
			"details": err.Error(),
		})
		return
	}
	if body == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Missing JSON body"})
		return
	}
	items, ok := body.([]interface{})
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Body must be a JSON array"})
		return
	}

	results := make([]interface{}, 0, len(items))
	for _, item := range items {
		results = append(results, s.crawlBatchItem(r, item))
	}
	writeJSON(w, http.StatusOK, results)
}

// crawlBatchItem returns a channel result or an error entry. Items are
// independent: one failure never affects the others.
func (s *Server) crawlBatchItem(r *http.Request, item interface{}) interface{} {
	fields, ok := item.(map[string]interface{})
	if !ok {
		return map[string]interface{}{
			"error": "Each array item must be an object",
			"raw":   item,
		}
	}

	handle, _ := fields["handle"].(string)
	maxVideos, err := intField(fields, "max_reels", youtubeDefaultMaxVideos)
	if err != nil {
		return models.ChannelError{Handle: handle, Error: "max_reels and days must be integers"}
	}
	days, err := intField(fields, "days", s.crawl.DefaultDays)
	if err != nil {
		return models.ChannelError{Handle: handle, Error: "max_reels and days must be integers"}
	}
	if handle == "" {
		return models.ChannelError{Handle: handle, Error: "Missing handle"}
	}

	result, err := s.channels.CrawlHandle(r.Context(), handle, maxVideos, days)
	if err != nil {
		return models.ChannelError{
			Handle:     handle,
			ChannelURL: youtube.ChannelURL(handle),
			Error:      "Failed to fetch channel data",
		}
	}
	return result
}
