package mollie

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

var _ = Describe("MemoryMethodsCache", func() {
	var (
		cache   *MemoryMethodsCache
		ctx     context.Context
		current time.Time
		methods []mollietypes.Method
	)

	BeforeEach(func() {
		ctx = context.Background()
		current = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		cache = NewMemoryMethodsCache(time.Hour)
		cache.now = func() time.Time { return current }

		methods = []mollietypes.Method{
			{ID: "ideal", Description: "iDEAL"},
			{ID: "creditcard", Description: "Credit card"},
		}
	})

	It("misses before anything is stored", func() {
		_, ok := cache.Get(ctx, "test", "pfl_1")
		Expect(ok).To(BeFalse())
	})

	It("serves stored methods within the TTL", func() {
		Expect(cache.Set(ctx, "test", "pfl_1", methods)).To(Succeed())

		current = current.Add(59 * time.Minute)
		got, ok := cache.Get(ctx, "test", "pfl_1")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(methods))
	})

	It("expires entries after the TTL", func() {
		Expect(cache.Set(ctx, "test", "pfl_1", methods)).To(Succeed())

		current = current.Add(61 * time.Minute)
		_, ok := cache.Get(ctx, "test", "pfl_1")
		Expect(ok).To(BeFalse())
	})

	It("keys entries by mode and profile", func() {
		Expect(cache.Set(ctx, "test", "pfl_1", methods)).To(Succeed())

		_, ok := cache.Get(ctx, "live", "pfl_1")
		Expect(ok).To(BeFalse())

		_, ok = cache.Get(ctx, "test", "pfl_2")
		Expect(ok).To(BeFalse())

		got, ok := cache.Get(ctx, "test", "pfl_1")
		Expect(ok).To(BeTrue())
		Expect(got).To(HaveLen(2))
	})

	It("overwrites an existing entry and restarts its TTL", func() {
		Expect(cache.Set(ctx, "test", "pfl_1", methods)).To(Succeed())

		current = current.Add(50 * time.Minute)
		Expect(cache.Set(ctx, "test", "pfl_1", methods[:1])).To(Succeed())

		current = current.Add(50 * time.Minute)
		got, ok := cache.Get(ctx, "test", "pfl_1")
		Expect(ok).To(BeTrue())
		Expect(got).To(HaveLen(1))
	})
})
