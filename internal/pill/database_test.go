package pill

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("history bucket", func() {
		var entry *HistoryEntry

		BeforeEach(func() {
			entry = &HistoryEntry{
				ID:         "hist-1",
				PillName:   "Ibuprofen (Advil)",
				Confidence: 0.92,
				Color:      "Brown",
				Shape:      "Round",
				Imprint:    "I-2",
				Warnings:   []string{"May cause stomach upset"},
				CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			}
		})

		It("should round-trip an entry", func() {
			Expect(db.SaveHistory(entry)).To(Succeed())

			got, err := db.GetHistory("hist-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PillName).To(Equal("Ibuprofen (Advil)"))
			Expect(got.Confidence).To(Equal(0.92))
			Expect(got.Warnings).To(ConsistOf("May cause stomach upset"))
			Expect(got.CreatedAt.Equal(entry.CreatedAt)).To(BeTrue())
		})

		It("should return an error for a missing entry", func() {
			_, err := db.GetHistory("nope")
			Expect(err).To(HaveOccurred())
		})

		It("should list all entries", func() {
			Expect(db.SaveHistory(entry)).To(Succeed())
			second := *entry
			second.ID = "hist-2"
			Expect(db.SaveHistory(&second)).To(Succeed())

			entries, err := db.ListHistory()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("should return an empty slice when no entries exist", func() {
			entries, err := db.ListHistory()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).NotTo(BeNil())
			Expect(entries).To(BeEmpty())
		})

		It("should delete an entry", func() {
			Expect(db.SaveHistory(entry)).To(Succeed())
			Expect(db.DeleteHistory("hist-1")).To(Succeed())

			_, err := db.GetHistory("hist-1")
			Expect(err).To(HaveOccurred())
		})

		It("should fail to delete a missing entry", func() {
			Expect(db.DeleteHistory("nope")).NotTo(Succeed())
		})

		It("should keep duplicate scans as separate rows", func() {
			Expect(db.SaveHistory(entry)).To(Succeed())
			dup := *entry
			dup.ID = "hist-2"
			Expect(db.SaveHistory(&dup)).To(Succeed())

			entries, err := db.ListHistory()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})
	})

	Describe("catalog bucket", func() {
		var entry *CatalogEntry

		BeforeEach(func() {
			entry = &CatalogEntry{
				ID:        "pill-1",
				Name:      "Aspirin",
				DrugClass: "Salicylate",
				Color:     "White",
				Shape:     "Round",
				Dosage:    "81mg",
				CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			}
		})

		It("should round-trip an entry", func() {
			Expect(db.SavePill(entry)).To(Succeed())

			got, err := db.GetPill("pill-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Aspirin"))
			Expect(got.Dosage).To(Equal("81mg"))
		})

		It("should return an error for a missing entry", func() {
			_, err := db.GetPill("nope")
			Expect(err).To(HaveOccurred())
		})

		It("should list all entries", func() {
			Expect(db.SavePill(entry)).To(Succeed())

			entries, err := db.ListPills()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})

	Describe("NewBoltDB", func() {
		It("should fail for an unwritable path", func() {
			_, err := NewBoltDB("/nonexistent-dir/test.db")
			Expect(err).To(HaveOccurred())
		})
	})
})
