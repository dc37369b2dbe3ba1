package pill

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/pill-detect/internal/analysis"
)

// maxUploadSize caps catalog image uploads (10 MiB, matching the client-side
// ceiling for analysis images)
const maxUploadSize = int64(10 << 20)

// analyzeRequest is the JSON body of POST /api/analyze
type analyzeRequest struct {
	Image string `json:"image"`
	Hint  string `json:"hint,omitempty"`
}

// analyzeResponse is the envelope every analyze reply uses
type analyzeResponse struct {
	Success bool                `json:"success"`
	Result  *analysis.Detection `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleAnalyze runs one pill image through the identification pipeline
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, analyzeResponse{Success: false, Error: "Invalid request body"})
		return
	}

	result, err := s.service.Analyze(req.Image, req.Hint)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoImage):
			writeJSON(w, http.StatusBadRequest, analyzeResponse{Success: false, Error: "No image provided"})
		case errors.Is(err, ErrBadImage):
			writeJSON(w, http.StatusBadRequest, analyzeResponse{Success: false, Error: "Invalid image payload"})
		case errors.Is(err, analysis.ErrNotConfigured):
			writeJSON(w, http.StatusInternalServerError, analyzeResponse{Success: false, Error: "AI service not configured"})
		default:
			slog.Error("Error analyzing image", "error", err)
			writeJSON(w, http.StatusInternalServerError, analyzeResponse{Success: false, Error: "Analysis failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Success: true, Result: result.Result})
}

// handleListHistory returns all detection history entries
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListHistory()
	if err != nil {
		slog.Error("Error listing history", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if entries == nil {
		entries = []*HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleDeleteHistory deletes a history entry
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "History ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteHistory(id); err != nil {
		corsError(w, "History entry not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListPills returns all catalog entries
func (s *Server) handleListPills(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListPills()
	if err != nil {
		slog.Error("Error listing catalog", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if entries == nil {
		entries = []*CatalogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetPill returns a single catalog entry
func (s *Server) handleGetPill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Pill ID required", http.StatusBadRequest)
		return
	}
	entry, err := s.service.GetPill(id)
	if err != nil {
		corsError(w, "Pill not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleGetPillImage returns the reference image for a catalog entry
func (s *Server) handleGetPillImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Pill ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetPillImage(id)
	if err != nil {
		corsError(w, "Image not found", http.StatusNotFound)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleCreatePill handles the manual catalog entry form
func (s *Server) handleCreatePill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error parsing form",
		})
		return
	}

	entry := &CatalogEntry{
		Name:        r.FormValue("name"),
		DrugClass:   r.FormValue("drug_class"),
		Color:       r.FormValue("color"),
		Size:        r.FormValue("size"),
		Shape:       r.FormValue("shape"),
		Dosage:      r.FormValue("dosage"),
		Uses:        r.FormValue("uses"),
		Description: r.FormValue("description"),
		Warnings:    r.FormValue("warnings"),
	}

	var imageData []byte
	var imageFilename, contentType string
	if f, header, err := r.FormFile("image"); err == nil {
		defer f.Close()

		if header.Size > maxUploadSize {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Image is too large. Maximum size is 10MB.",
			})
			return
		}

		imageData, err = io.ReadAll(f)
		if err != nil {
			slog.Error("Error reading catalog image", "error", err, "filename", header.Filename)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Error reading image. Please try again.",
			})
			return
		}

		imageFilename = header.Filename
		contentType = header.Header.Get("Content-Type")
		if contentType == "" {
			switch strings.ToLower(filepath.Ext(header.Filename)) {
			case ".jpg", ".jpeg":
				contentType = "image/jpeg"
			case ".png":
				contentType = "image/png"
			case ".heic":
				contentType = "image/heic"
			default:
				contentType = "application/octet-stream"
			}
		}
	}

	created, err := s.service.CreatePill(entry, imageFilename, imageData, contentType)
	if err != nil {
		slog.Error("Error creating catalog entry", "name", entry.Name, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}
