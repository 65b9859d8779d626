// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/thryve/thryve/internal/auth"
	"github.com/thryve/thryve/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(pgURL)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(migrator.Close)

		// Top-level containers are shuffled; start from an empty schema either way.
		Expect(migrator.Down()).To(Succeed())
	})

	It("starts at version 0 with everything pending", func() {
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(BeZero())
		Expect(status.Pending).To(Equal([]uint{1, 2}))
	})

	It("applies, rolls back one step and reapplies", func() {
		Expect(migrator.Up()).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Up()).To(Succeed())
	})
})

var _ = Describe("Open against PostgreSQL", Ordered, func() {
	var (
		ctx     context.Context
		backend *store.Backend
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		backend, err = store.Open(ctx, store.Options{URL: pgURL, AutoMigrate: true}, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(backend.Close(ctx)).To(Succeed()) })
	})

	It("is reachable", func() {
		Expect(backend.Driver).To(Equal(store.DriverPostgres))
		Expect(backend.Ping(ctx)).To(Succeed())
	})

	It("round-trips a user and rejects duplicate emails", func() {
		user, err := auth.NewUser("Ada", "ada@example.com", "hash", auth.Profile{})
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Users.Create(ctx, user)).To(Succeed())
		Expect(backend.Preferences.Create(ctx, auth.DefaultPreferences(user.ID))).To(Succeed())

		got, err := backend.Users.GetByEmail(ctx, "ada@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(user.ID))

		_, err = backend.Users.GetByEmail(ctx, "ADA@example.com")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue(), "email match is case-sensitive")

		prefs, err := backend.Preferences.GetByUser(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(prefs.Units).To(Equal("metric"))

		dup, err := auth.NewUser("Ada", "ada@example.com", "hash", auth.Profile{})
		Expect(err).NotTo(HaveOccurred())
		err = backend.Users.Create(ctx, dup)
		Expect(errors.Is(err, auth.ErrDuplicateEmail)).To(BeTrue())
	})

	It("lets exactly one concurrent reset consume a token", func() {
		user, err := auth.NewUser("Grace", "grace@example.com", "old", auth.Profile{})
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Users.Create(ctx, user)).To(Succeed())

		now := time.Now().UTC()
		user.SetResetToken("hash-of-token", now.Add(time.Hour))
		Expect(backend.Users.Update(ctx, user)).To(Succeed())

		const racers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				_, err := backend.Users.ConsumeResetToken(ctx, "hash-of-token", "new", now)
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
					return
				}
				Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
			}()
		}
		wg.Wait()
		Expect(successes).To(Equal(1))

		stored, err := backend.Users.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.PasswordHash).To(Equal("new"))
		Expect(stored.ResetTokenHash).To(BeNil())
	})

	It("rejects a token at its expiry instant", func() {
		user, err := auth.NewUser("Linus", "linus@example.com", "old", auth.Profile{})
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Users.Create(ctx, user)).To(Succeed())

		expires := time.Now().UTC().Truncate(time.Microsecond).Add(time.Hour)
		user.SetResetToken("expiring", expires)
		Expect(backend.Users.Update(ctx, user)).To(Succeed())

		_, err = backend.Users.ConsumeResetToken(ctx, "expiring", "new", expires)
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})
})
