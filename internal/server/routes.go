package server

import (
	"net/http"
)

func SetupRoutes(leadService *LeadService, uploadService *UploadService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/leads", leadService.ListLeads)
	mux.HandleFunc("/leads/", leadService.UpdateHook)
	mux.HandleFunc("/upload", uploadService.Upload)
	mux.HandleFunc("/uploads", uploadService.ListUploads)
	mux.HandleFunc("/dedupe", uploadService.TriggerDedupe)
	mux.HandleFunc("/api/stats", leadService.GetStats)

	return mux
}
