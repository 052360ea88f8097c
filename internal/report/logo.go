package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"

	"github.com/xuri/excelize/v2"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	logoMaxWidth  = 160
	logoMaxHeight = 48
)

// LoadLogo reads a png, jpeg or webp image and scales it to fit the header
// stamp area. The result is PNG encoded.
func LoadLogo(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	return ScaleLogo(raw, logoMaxWidth, logoMaxHeight)
}

func ScaleLogo(raw []byte, maxWidth, maxHeight int) ([]byte, error) {
	switch http.DetectContentType(raw) {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return nil, errors.New("logo must be png, jpeg, or webp")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, errors.New("unable to decode logo")
		}
		img = decoded
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid logo dimensions")
	}
	scale := min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height), 1)
	targetW := max(1, int(float64(width)*scale))
	targetH := max(1, int(float64(height)*scale))

	resized := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, resized); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return out.Bytes(), nil
}

func (s *sheet) stampLogo(logo []byte) error {
	cell := s.layout.Header.LogoCell
	if len(logo) == 0 || cell == "" {
		return nil
	}
	return s.f.AddPictureFromBytes(s.name, cell, &excelize.Picture{
		Extension: ".png",
		File:      logo,
		Format: &excelize.GraphicOptions{
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
}
