// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"sync"

	. "github.com/onsi/gomega" //nolint:revive // gomega convention

	"github.com/thryve/thryve/internal/notify"
)

// captureMailer keeps every message in memory.
type captureMailer struct {
	mu   sync.Mutex
	sent map[string][]string // recipient → bodies
}

func (m *captureMailer) Send(_ context.Context, to, _, body string) (notify.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = make(map[string][]string)
	}
	m.sent[to] = append(m.sent[to], body)
	return notify.Receipt{MessageID: "<integration@thryve.local>", Transport: "capture"}, nil
}

var resetLink = regexp.MustCompile(`/reset-password/([0-9a-f]{64})`)

// lastResetToken extracts the token from the newest mail sent to email.
func (m *captureMailer) lastResetToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	bodies := m.sent[email]
	ExpectWithOffset(1, bodies).NotTo(BeEmpty())
	match := resetLink.FindStringSubmatch(bodies[len(bodies)-1])
	ExpectWithOffset(1, match).To(HaveLen(2))
	return match[1]
}

type response struct {
	Status int
	Body   map[string]any
}

func call(method, path string, body any, token string) response {
	var buf bytes.Buffer
	if body != nil {
		ExpectWithOffset(1, json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req, err := http.NewRequest(method, api.URL+path, &buf)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := api.Client().Do(req)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	out := response{Status: resp.StatusCode}
	ExpectWithOffset(1, json.NewDecoder(resp.Body).Decode(&out.Body)).To(Succeed())
	return out
}

func post(path string, body any) response {
	return call(http.MethodPost, path, body, "")
}
