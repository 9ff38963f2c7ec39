package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPreprocess(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Preprocess Suite")
}

// syntheticReceipt draws dark text-like bars on a light background, roughly
// what a photographed receipt reduces to.
func syntheticReceipt(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{238, 236, 230, 255})
		}
	}
	for line := 0; line < 4; line++ {
		y0 := h/6 + line*h/6
		for y := y0; y < y0+3 && y < h; y++ {
			for x := w / 8; x < w-w/8; x++ {
				img.Set(x, y, color.RGBA{25, 25, 25, 255})
			}
		}
	}
	return img
}

var _ = Describe("Normalize", func() {
	When("given a valid JPEG", func() {
		var out []byte
		var err error

		BeforeEach(func() {
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, syntheticReceipt(120, 160), nil)).To(Succeed())
			out, err = Normalize(buf.Bytes())
		})

		It("should succeed", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should produce a decodable JPEG", func() {
			_, format, decErr := image.Decode(bytes.NewReader(out))
			Expect(decErr).NotTo(HaveOccurred())
			Expect(format).To(Equal("jpeg"))
		})

		It("should resize to the target width preserving aspect", func() {
			cfg, _, decErr := image.DecodeConfig(bytes.NewReader(out))
			Expect(decErr).NotTo(HaveOccurred())
			Expect(cfg.Width).To(Equal(1200))
			Expect(cfg.Height).To(Equal(1600))
		})
	})

	When("given a valid PNG", func() {
		It("should accept it and still emit JPEG", func() {
			var buf bytes.Buffer
			Expect(png.Encode(&buf, syntheticReceipt(100, 100))).To(Succeed())
			out, err := Normalize(buf.Bytes())
			Expect(err).NotTo(HaveOccurred())
			_, format, decErr := image.Decode(bytes.NewReader(out))
			Expect(decErr).NotTo(HaveOccurred())
			Expect(format).To(Equal("jpeg"))
		})
	})

	When("given an image wider than the target", func() {
		It("should downscale to the target width", func() {
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, syntheticReceipt(2400, 1800), nil)).To(Succeed())
			out, err := Normalize(buf.Bytes())
			Expect(err).NotTo(HaveOccurred())
			cfg, _, decErr := image.DecodeConfig(bytes.NewReader(out))
			Expect(decErr).NotTo(HaveOccurred())
			Expect(cfg.Width).To(Equal(1200))
			Expect(cfg.Height).To(Equal(900))
		})
	})

	When("given undecodable bytes", func() {
		It("should return a DecodeError", func() {
			_, err := Normalize([]byte("definitely not an image"))
			Expect(err).To(HaveOccurred())
			var decodeErr *DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
		})
	})

	When("given empty input", func() {
		It("should return a DecodeError", func() {
			_, err := Normalize(nil)
			var decodeErr *DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
		})
	})

	When("given a uniform image", func() {
		It("should survive the contrast stretch", func() {
			img := image.NewRGBA(image.Rect(0, 0, 64, 64))
			for y := 0; y < 64; y++ {
				for x := 0; x < 64; x++ {
					img.Set(x, y, color.RGBA{128, 128, 128, 255})
				}
			}
			var buf bytes.Buffer
			Expect(jpeg.Encode(&buf, img, nil)).To(Succeed())
			_, err := Normalize(buf.Bytes())
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
