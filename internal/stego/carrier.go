package stego

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	_ "golang.org/x/image/bmp" // registers the BMP decoder for carriers
)

var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = errors.New("image too large")
)

// Limits bound the work a single carrier can cause.
type Limits struct {
	MaxEncodedBytes int
	MaxPixels       int
}

// DecodeCarrier checks the encoded size and the declared dimensions against limits before
// decoding, then returns the image as NRGBA so its samples can be read and written exactly.
func DecodeCarrier(data []byte, limits Limits) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if limits.MaxEncodedBytes > 0 && len(data) > limits.MaxEncodedBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrImageTooLarge, len(data), limits.MaxEncodedBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if pixels := cfg.Width * cfg.Height; limits.MaxPixels > 0 && pixels > limits.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d %s exceeds limit of %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, format, limits.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA copies img into a fresh NRGBA anchored at the origin. NRGBA sources are copied
// row by row so that semi-transparent pixels keep their exact samples.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.NRGBA); ok {
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[srcOff:srcOff+rowLen])
		}
		return dst
	}

	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Samples returns the R, G and B samples of every pixel in row-major order.
// Alpha is excluded and never carries payload bits.
func Samples(img *image.NRGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			out = append(out, row[x], row[x+1], row[x+2])
		}
	}
	return out
}

// WithSamples returns a copy of img whose RGB samples are replaced by samples, which must
// come from Samples on an image of the same size.
func WithSamples(img *image.NRGBA, samples []byte) (*image.NRGBA, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if len(samples) != w*h*3 {
		return nil, fmt.Errorf("sample count %d does not match %dx%d image", len(samples), w, h)
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	i := 0
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < len(src); x += 4 {
			dst[x], dst[x+1], dst[x+2] = samples[i], samples[i+1], samples[i+2]
			dst[x+3] = src[x+3]
			i += 3
		}
	}
	return out, nil
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("error encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
