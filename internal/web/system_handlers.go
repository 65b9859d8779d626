// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package web

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/samber/oops"

	"github.com/thryve/thryve/internal/auth"
)

type healthResponse struct {
	OK          bool   `json:"ok"`
	Version     string `json:"version"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
}

type memoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heapInuse"`
	NumGC      uint32 `json:"numGC"`
}

type statusResponse struct {
	Status     string      `json:"status"`
	Uptime     float64     `json:"uptime"`
	Goroutines int         `json:"goroutines"`
	Memory     memoryStats `json:"memory"`
	PID        int         `json:"pid"`
	Platform   string      `json:"platform"`
	GoVersion  string      `json:"goVersion"`
	Timestamp  string      `json:"timestamp"`
}

type dashboardResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

const healthPingTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "health check: database unreachable", "error", err)
			database = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		OK:          true,
		Version:     s.opts.Version,
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		Environment: s.opts.Environment,
		Database:    database,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := s.now()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:     "healthy",
		Uptime:     now.Sub(s.started).Seconds(),
		Goroutines: runtime.NumGoroutine(),
		Memory: memoryStats{
			Alloc:      mem.Alloc,
			TotalAlloc: mem.TotalAlloc,
			Sys:        mem.Sys,
			HeapInuse:  mem.HeapInuse,
			NumGC:      mem.NumGC,
		},
		PID:       os.Getpid(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, dashboardResponse{Message: MsgProtectedOK, UserID: userID})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) error {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return oops.Code(auth.CodeMissingToken).Errorf("no authenticated user on request")
	}

	prefs, err := s.deps.Auth.Preferences(r.Context(), userID)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, preferencesResponse{Preferences: newPreferencesBody(prefs)})
	return nil
}
