package handler

import (
	"net/http"

	"user-service/internal/config"
)

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": config.ServiceName,
		"version": config.Version,
	})
}
