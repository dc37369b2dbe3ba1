package analysis

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecodeDataURL", func() {
	var (
		input    string
		data     []byte
		mimeType string
		err      error
	)

	JustBeforeEach(func() {
		data, mimeType, err = DecodeDataURL(input)
	})

	When("decoding a PNG data URL", func() {
		BeforeEach(func() {
			input = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the raw bytes", func() {
			Expect(data).To(Equal([]byte("png-bytes")))
		})

		It("should return the MIME type from the header", func() {
			Expect(mimeType).To(Equal("image/png"))
		})
	})

	When("decoding bare base64 without a data: prefix", func() {
		BeforeEach(func() {
			input = base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should default the MIME type to JPEG", func() {
			Expect(mimeType).To(Equal("image/jpeg"))
		})
	})

	When("decoding a data URL without a comma", func() {
		BeforeEach(func() {
			input = "data:image/png;base64"
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("decoding invalid base64", func() {
		BeforeEach(func() {
			input = "data:image/png;base64,@@not-base64@@"
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("decoding an empty payload", func() {
		BeforeEach(func() {
			input = "data:image/png;base64,"
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("prepareImageData", func() {
	// A tiny real image so the decoders have something to chew on
	makeImage := func(encode func(*bytes.Buffer, image.Image) error) []byte {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		img.Set(0, 0, color.RGBA{R: 255, A: 255})
		var buf bytes.Buffer
		Expect(encode(&buf, img)).To(Succeed())
		return buf.Bytes()
	}

	When("the input is already PNG", func() {
		It("should return it unchanged", func() {
			pngData := makeImage(func(buf *bytes.Buffer, img image.Image) error {
				return png.Encode(buf, img)
			})
			out, mimeType, err := prepareImageData(pngData, "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(pngData))
			Expect(mimeType).To(Equal("image/png"))
		})
	})

	When("the input is JPEG", func() {
		It("should convert it to PNG", func() {
			jpegData := makeImage(func(buf *bytes.Buffer, img image.Image) error {
				return jpeg.Encode(buf, img, nil)
			})
			out, mimeType, err := prepareImageData(jpegData, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal("image/png"))

			_, format, err := image.Decode(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
		})
	})

	When("the input is not an image", func() {
		It("should return an error", func() {
			_, _, err := prepareImageData([]byte("definitely not an image"), "image/jpeg")
			Expect(err).To(HaveOccurred())
		})
	})
})
