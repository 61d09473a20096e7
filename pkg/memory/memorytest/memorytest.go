// Package memorytest holds behaviour shared by every memory.Driver test suite.
package memorytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/memory"
)

// DriverBehaviour registers specs against drivers produced by newDriver.
// Call it inside a Describe container.
func DriverBehaviour(newDriver func() memory.Driver) {
	var (
		driver memory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	It("starts empty", func() {
		n, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))

		recs, err := driver.List(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(BeEmpty())
	})

	It("assigns IDs and timestamps on append", func() {
		before := time.Now().Add(-time.Second)
		rec, err := driver.Append(ctx, memory.NewRecord("hello", "Hi there"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.ID).To(BeNumerically(">", 0))
		Expect(rec.Question).To(Equal("hello"))
		Expect(rec.Answer).To(Equal("Hi there"))
		Expect(rec.CreatedAt).To(BeTemporally(">", before))
	})

	It("keeps the created_at it was given", func() {
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		rec := memory.NewRecord("q", "a")
		rec.CreatedAt = at

		_, err := driver.Append(ctx, rec)
		Expect(err).NotTo(HaveOccurred())

		recs, err := driver.List(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].CreatedAt.Equal(at)).To(BeTrue())
	})

	It("lists newest first and honours the limit", func() {
		for i := range 5 {
			_, err := driver.Append(ctx, memory.NewRecord(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
			Expect(err).NotTo(HaveOccurred())
		}

		recs, err := driver.List(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(2))
		Expect(recs[0].Question).To(Equal("q4"))
		Expect(recs[1].Question).To(Equal("q3"))

		all, err := driver.List(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(5))
		Expect(all[4].Question).To(Equal("q0"))
	})

	It("allows duplicate records", func() {
		for range 2 {
			_, err := driver.Append(ctx, memory.NewRecord("same", "same"))
			Expect(err).NotTo(HaveOccurred())
		}

		n, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("stores text verbatim", func() {
		q := "  search Myanmar\n"
		a := "မြန်မာ 'quoted' \"double\""
		_, err := driver.Append(ctx, memory.NewRecord(q, a))
		Expect(err).NotTo(HaveOccurred())

		recs, err := driver.List(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs[0].Question).To(Equal(q))
		Expect(recs[0].Answer).To(Equal(a))
	})

	It("is safe for concurrent appends", func() {
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				_, err := driver.Append(ctx, memory.NewRecord(fmt.Sprintf("q%d", i), "a"))
				Expect(err).NotTo(HaveOccurred())
			}(i)
		}
		wg.Wait()

		n, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(20))
	})
}
