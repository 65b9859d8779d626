// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

//go:build integration

package integration

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/thryve/thryve/internal/auth"
	"github.com/thryve/thryve/internal/web"
)

var _ = Describe("Auth flow", func() {
	Describe("registration and login", func() {
		It("logs in with the registered credentials", func() {
			reg := post("/api/auth/register", map[string]any{
				"name": "A", "email": "a@x.com", "password": "password1",
			})
			Expect(reg.Status).To(Equal(http.StatusCreated))
			Expect(reg.Body).To(HaveKey("token"))
			user := reg.Body["user"].(map[string]any)
			Expect(user).NotTo(HaveKey("password"))

			login := post("/api/auth/login", map[string]any{"email": "a@x.com", "password": "password1"})
			Expect(login.Status).To(Equal(http.StatusOK))

			claims, err := tokens.Verify(login.Body["token"].(string))
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(user["id"]))
		})

		It("rejects a second registration with the same email", func() {
			body := map[string]any{"name": "Dup", "email": "dup@x.com", "password": "password1"}
			Expect(post("/api/auth/register", body).Status).To(Equal(http.StatusCreated))

			again := post("/api/auth/register", body)
			Expect(again.Status).To(Equal(http.StatusBadRequest))
			Expect(again.Body["error"]).To(Equal(auth.MsgDuplicateEmail))
		})

		It("gives unknown email and wrong password the same answer", func() {
			Expect(post("/api/auth/register", map[string]any{
				"name": "E", "email": "enum@x.com", "password": "password1",
			}).Status).To(Equal(http.StatusCreated))

			wrong := post("/api/auth/login", map[string]any{"email": "enum@x.com", "password": "password2"})
			unknown := post("/api/auth/login", map[string]any{"email": "ghost@x.com", "password": "password1"})

			Expect(wrong.Status).To(Equal(http.StatusUnauthorized))
			Expect(unknown).To(Equal(wrong))
		})
	})

	Describe("session", func() {
		It("returns the caller from /me and their default preferences", func() {
			reg := post("/api/auth/register", map[string]any{
				"name": "Me", "email": "me@x.com", "password": "password1", "age": 30, "height": 180,
			})
			Expect(reg.Status).To(Equal(http.StatusCreated))
			token := reg.Body["token"].(string)

			me := call(http.MethodGet, "/api/auth/me", nil, token)
			Expect(me.Status).To(Equal(http.StatusOK))
			user := me.Body["user"].(map[string]any)
			Expect(user["email"]).To(Equal("me@x.com"))
			Expect(user["age"]).To(BeNumerically("==", 30))
			Expect(user).NotTo(HaveKey("password"))

			prefs := call(http.MethodGet, "/api/preferences", nil, token)
			Expect(prefs.Status).To(Equal(http.StatusOK))
			Expect(prefs.Body["preferences"]).To(HaveKeyWithValue("units", auth.DefaultUnits))
		})

		It("rejects requests without a token", func() {
			Expect(call(http.MethodGet, "/api/auth/me", nil, "").Status).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("password reset", func() {
		const email = "reset@x.com"

		BeforeEach(func() {
			reg := post("/api/auth/register", map[string]any{"name": "U", "email": email, "password": "oldpass123"})
			Expect(reg.Status).To(BeElementOf(http.StatusCreated, http.StatusBadRequest))
			// Restore the known password when an earlier spec changed it.
			if reg.Status == http.StatusBadRequest {
				Expect(post("/api/auth/forgot-password", map[string]any{"email": email}).Status).To(Equal(http.StatusOK))
				token := mailbox.lastResetToken(email)
				Expect(post("/api/auth/reset-password/"+token, map[string]any{"password": "oldpass123"}).Status).
					To(Equal(http.StatusOK))
			}
		})

		It("replaces the password exactly once", func() {
			forgot := post("/api/auth/forgot-password", map[string]any{"email": email})
			Expect(forgot.Status).To(Equal(http.StatusOK))
			Expect(forgot.Body["message"]).To(Equal(web.MsgResetSent))
			token := mailbox.lastResetToken(email)

			Expect(post("/api/auth/reset-password/"+token, map[string]any{"password": "newpass123"}).Status).
				To(Equal(http.StatusOK))

			Expect(post("/api/auth/login", map[string]any{"email": email, "password": "newpass123"}).Status).
				To(Equal(http.StatusOK))
			Expect(post("/api/auth/login", map[string]any{"email": email, "password": "oldpass123"}).Status).
				To(Equal(http.StatusUnauthorized))

			replay := post("/api/auth/reset-password/"+token, map[string]any{"password": "another123"})
			Expect(replay.Status).To(Equal(http.StatusBadRequest))
			Expect(replay.Body["error"]).To(Equal(auth.MsgInvalidResetToken))
		})

		It("invalidates an older token when a new one is issued", func() {
			Expect(post("/api/auth/forgot-password", map[string]any{"email": email}).Status).To(Equal(http.StatusOK))
			first := mailbox.lastResetToken(email)
			Expect(post("/api/auth/forgot-password", map[string]any{"email": email}).Status).To(Equal(http.StatusOK))
			second := mailbox.lastResetToken(email)
			Expect(second).NotTo(Equal(first))

			Expect(post("/api/auth/reset-password/"+first, map[string]any{"password": "newpass123"}).Status).
				To(Equal(http.StatusBadRequest))
			Expect(post("/api/auth/reset-password/"+second, map[string]any{"password": "newpass123"}).Status).
				To(Equal(http.StatusOK))
		})

		It("does not find an unknown email", func() {
			Expect(post("/api/auth/forgot-password", map[string]any{"email": "unknown@x.com"}).Status).
				To(Equal(http.StatusNotFound))
		})
	})

	It("reports the database as connected", func() {
		health := call(http.MethodGet, "/api/health", nil, "")
		Expect(health.Status).To(Equal(http.StatusOK))
		Expect(health.Body["database"]).To(Equal("connected"))
	})
})
