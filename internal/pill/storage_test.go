package pill

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		basePath string
		storage  *LocalStorage
	)

	BeforeEach(func() {
		basePath = filepath.Join(GinkgoT().TempDir(), "images")
		var err error
		storage, err = NewLocalStorage(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the base directory", func() {
		info, err := os.Stat(basePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("Save and Get", func() {
		It("should round-trip a file", func() {
			saved, err := storage.Save("pill.jpg", []byte("image-bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(Equal("pill.jpg"))

			data, err := storage.Get("pill.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image-bytes")))
		})

		It("should return an error for a missing file", func() {
			_, err := storage.Get("missing.jpg")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should remove a stored file", func() {
			_, err := storage.Save("pill.jpg", []byte("image-bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("pill.jpg")).To(Succeed())

			_, err = storage.Get("pill.jpg")
			Expect(err).To(HaveOccurred())
		})

		It("should return an error for a missing file", func() {
			Expect(storage.Delete("missing.jpg")).NotTo(Succeed())
		})
	})
})
