package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
)

// Decode decodes PNG, JPEG, BMP or TGA data. TGA has no signature and is
// tried last.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if len(data) >= 3 && (data[2] == TGATypeUncompressed || data[2] == TGATypeRLE) {
		if tga, tgaErr := DecodeTGA(data); tgaErr == nil {
			return tga, nil
		}
	}
	return nil, fmt.Errorf("decode image: %w", err)
}

// DecodeFile reads and decodes an image file.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// ImageToRGBA converts any image to *image.RGBA. An *image.RGBA is copied.
func ImageToRGBA(img image.Image) *image.RGBA {
	return clone.AsRGBA(img)
}

// PrepareUpload returns the pixels in OpenGL row order: the bottom row
// first, so that v = 1 samples the top of the image.
func PrepareUpload(img image.Image) *image.RGBA {
	return transform.FlipV(img)
}
