package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/ingestion"
	"github.com/mobiusengine/leads-engine/internal/models"
	"github.com/mobiusengine/leads-engine/internal/parser"
	"github.com/mobiusengine/leads-engine/pkg/checksum"
)

const maxUploadBytes = 32 << 20

// LeadService serves the lead listing, stats and enrichment endpoints.
type LeadService struct {
	Store         database.LeadStore
	LeadsPageSize int
}

func NewLeadService(store database.LeadStore, leadsPageSize int) *LeadService {
	return &LeadService{Store: store, LeadsPageSize: leadsPageSize}
}

type leadsPage struct {
	Leads      []models.Lead `json:"leads"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total"`
}

func (h *LeadService) ListLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid 'page' parameter", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	total, err := h.Store.CountLeads()
	if err != nil {
		http.Error(w, "Failed to count leads", http.StatusInternalServerError)
		return
	}

	leads, err := h.Store.ListLeads(h.LeadsPageSize, (page-1)*h.LeadsPageSize)
	if err != nil {
		http.Error(w, "Failed to list leads", http.StatusInternalServerError)
		return
	}

	totalPages := (total + h.LeadsPageSize - 1) / h.LeadsPageSize

	writeJSON(w, leadsPage{Leads: leads, Page: page, TotalPages: totalPages, Total: total})
}

type hookUpdateRequest struct {
	Hook string `json:"hook"`
}

// UpdateHook handles PUT /leads/{id}/hook, the write path for the external
// enrichment collaborator's generated text.
func (h *LeadService) UpdateHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/leads/")
	idStr, ok := strings.CutSuffix(rest, "/hook")
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid lead id", http.StatusBadRequest)
		return
	}

	var req hookUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Hook) == "" {
		http.Error(w, "Hook text is required", http.StatusBadRequest)
		return
	}

	if err := h.Store.UpdateLeadHook(id, req.Hook); err != nil {
		http.Error(w, fmt.Sprintf("Failed to update hook: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *LeadService) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.Store.GetStats()
	if err != nil {
		http.Error(w, "Failed to retrieve stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats)
}

// UploadService serves batch ingestion, the upload ledger and the on-demand
// dedupe trigger.
type UploadService struct {
	Store              database.LeadStore
	Service            *ingestion.Service
	Deduper            ingestion.DedupeRunner
	RecentUploadsLimit int
}

func NewUploadService(store database.LeadStore, service *ingestion.Service, deduper ingestion.DedupeRunner, recentUploadsLimit int) *UploadService {
	return &UploadService{
		Store:              store,
		Service:            service,
		Deduper:            deduper,
		RecentUploadsLimit: recentUploadsLimit,
	}
}

type uploadResult struct {
	Filename string               `json:"filename"`
	Success  bool                 `json:"success"`
	Summary  *models.UploadRecord `json:"summary,omitempty"`
	Dedupe   *models.DedupeResult `json:"dedupe,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Upload accepts one or more CSV files as multipart form data under the
// "files" field and ingests each one as its own batch.
func (h *UploadService) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "No files provided", http.StatusBadRequest)
		return
	}

	var results []uploadResult
	for _, fileHeader := range files {
		results = append(results, h.ingestUploadedFile(fileHeader.Filename, fileHeader))
	}

	writeJSON(w, results)
}

func (h *UploadService) ingestUploadedFile(filename string, fileHeader *multipart.FileHeader) uploadResult {
	file, err := fileHeader.Open()
	if err != nil {
		return uploadResult{Filename: filename, Error: fmt.Sprintf("failed to open upload: %v", err)}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return uploadResult{Filename: filename, Error: fmt.Sprintf("failed to read upload: %v", err)}
	}

	rows, err := parser.ParseCSV(bytes.NewReader(content))
	if err != nil {
		return uploadResult{Filename: filename, Error: fmt.Sprintf("failed to parse CSV: %v", err)}
	}

	summary, dedupeResult, err := h.Service.Ingest(filename, checksum.CalculateHash(content), rows)
	if err != nil {
		return uploadResult{Filename: filename, Error: err.Error()}
	}

	return uploadResult{Filename: filename, Success: true, Summary: summary, Dedupe: dedupeResult}
}

func (h *UploadService) ListUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := h.RecentUploadsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	uploads, err := h.Store.ListRecentUploads(limit)
	if err != nil {
		http.Error(w, "Failed to list uploads", http.StatusInternalServerError)
		return
	}

	writeJSON(w, uploads)
}

func (h *UploadService) TriggerDedupe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.Deduper.Run()
	if err != nil {
		http.Error(w, "Dedupe pass failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
