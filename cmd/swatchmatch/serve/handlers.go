package serve

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	_ "embed"

	"github.com/ajg/form"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/kennyp/swatchmatch/analysis"
	"github.com/kennyp/swatchmatch/repository"
)

func init() {
	// Extend render.Decode to support multipart/form-data, used by
	// handleAnalyze's image upload.
	originalDecode := render.Decode
	render.Decode = func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				return err
			}
			decoder := form.NewDecoder(nil)
			return decoder.DecodeValues(v, r.Form)
		}
		return originalDecode(r, v)
	}
}

//go:embed templates/index.html
var indexHTML string

//go:embed templates/favicon.svg
var faviconSVG []byte

// ErrResponse represents an error response.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errResponse(w http.ResponseWriter, r *http.Request, status int, text string, err error) {
	render.Render(w, r, &ErrResponse{HTTPStatusCode: status, StatusText: text, ErrorText: err.Error()})
}

// handleIndex serves the main HTML page.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(indexHTML))
}

// handleFavicon serves the favicon.
func handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.WriteHeader(http.StatusOK)
	w.Write(faviconSVG)
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

func (h *HealthResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, &HealthResponse{Status: "ok"})
}

// api bundles the repository instance the route handlers operate over.
type api struct {
	repo *repository.Repository
}

func modeFromQuery(v string) repository.Mode {
	if v == "expert" {
		return repository.ModeExpert
	}
	return repository.ModeNormal
}

// handleListBooks lists the catalog.
func (a *api) handleListBooks(w http.ResponseWriter, r *http.Request) {
	mode := modeFromQuery(r.URL.Query().Get("mode"))
	summaries, err := a.repo.ListBooks(mode)
	if err != nil {
		errResponse(w, r, http.StatusInternalServerError, "Server error", err)
		return
	}
	render.JSON(w, r, summaries)
}

// handleBookDetails returns one book's full color list.
func (a *api) handleBookDetails(w http.ResponseWriter, r *http.Request) {
	mode := modeFromQuery(r.URL.Query().Get("mode"))
	details, err := a.repo.GetBookDetails(chi.URLParam(r, "id"), mode)
	if err != nil {
		errResponse(w, r, http.StatusNotFound, "Not found", err)
		return
	}
	render.JSON(w, r, details)
}

// handleSearchText runs a text search over one book's colors.
func (a *api) handleSearchText(w http.ResponseWriter, r *http.Request) {
	mode := modeFromQuery(r.URL.Query().Get("mode"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := a.repo.SearchBookText(chi.URLParam(r, "id"), r.URL.Query().Get("q"), offset, limit, mode)
	if err != nil {
		errResponse(w, r, http.StatusNotFound, "Not found", err)
		return
	}
	render.JSON(w, r, result)
}

// handleSearchHex finds the nearest swatch(es) to a color, across one book
// or the whole catalog.
func (a *api) handleSearchHex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		errResponse(w, r, http.StatusBadRequest, "Invalid request", fmt.Errorf("q parameter is required"))
		return
	}
	mode := modeFromQuery(r.URL.Query().Get("mode"))
	thresholdWhite := floatQuery(r.URL.Query().Get("threshold_white"), 2.0)
	thresholdBlack := floatQuery(r.URL.Query().Get("threshold_black"), 2.0)

	result, err := a.repo.SearchByHex(query, r.URL.Query().Get("book"), mode, thresholdWhite, thresholdBlack)
	if err != nil {
		errResponse(w, r, http.StatusBadRequest, "Invalid request", err)
		return
	}
	render.JSON(w, r, result)
}

func floatQuery(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// AnalyzeFormRequest is the multipart form accompanying an image upload.
type AnalyzeFormRequest struct {
	BookID           string `form:"book_id"`
	Mode             string `form:"mode"`
	Noise            int    `form:"noise"`
	IgnoreBackground bool   `form:"ignore_background"`
	MaxColors        int    `form:"max_colors"`
}

// Bind implements render.Binder.
func (c *AnalyzeFormRequest) Bind(r *http.Request) error {
	if c.BookID == "" {
		return fmt.Errorf("book_id is required")
	}
	if c.Noise == 0 {
		c.Noise = 50
	}
	return nil
}

// handleAnalyze decodes an uploaded raster image, extracts its dominant
// colors, and maps each to the nearest swatch in the requested book.
func (a *api) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	data := &AnalyzeFormRequest{}
	if err := render.Bind(r, data); err != nil {
		errResponse(w, r, http.StatusBadRequest, "Invalid request", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errResponse(w, r, http.StatusBadRequest, "Invalid request", fmt.Errorf("failed to get file: %w", err))
		return
	}
	defer file.Close()

	ext := ".png"
	if i := strings.LastIndex(header.Filename, "."); i >= 0 {
		ext = header.Filename[i:]
	}

	tempInput, err := os.CreateTemp("", "swatchmatch-analyze-*"+ext)
	if err != nil {
		errResponse(w, r, http.StatusInternalServerError, "Server error", err)
		return
	}
	defer os.Remove(tempInput.Name())
	defer tempInput.Close()

	if _, err := io.Copy(tempInput, file); err != nil {
		errResponse(w, r, http.StatusInternalServerError, "Server error", err)
		return
	}
	tempInput.Close()

	mode := modeFromQuery(data.Mode)
	producer := analysis.SingleImageProducer{Path: tempInput.Name()}
	result, err := analysis.Analyze(a.repo, producer, data.BookID, mode, data.Noise, data.IgnoreBackground, data.MaxColors)
	if err != nil {
		errResponse(w, r, http.StatusBadRequest, "Analysis failed", err)
		return
	}

	render.JSON(w, r, result)
}
