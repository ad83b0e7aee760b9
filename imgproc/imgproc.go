// Package imgproc resamples, crops and encodes photos.
package imgproc

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Decode reads any registered image format (jpeg, png, gif, webp).
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("invalid image: %w", err)
	}
	return img, format, nil
}

// ResizeToWidth scales img to the given width keeping its aspect ratio.
// Smaller images are scaled up.
func ResizeToWidth(img image.Image, width int) image.Image {
	return resize.Resize(uint(width), 0, img, resize.Lanczos3)
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampInt(quality, 1, 100)}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode writes img as "jpg", "png" or "webp".
func Encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpg", "jpeg":
		return EncodeJPEG(img, quality)
	case "png":
		err = png.Encode(&buf, img)
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(clampInt(quality, 0, 100))})
	default:
		return nil, fmt.Errorf("unsupported image format: image/%s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func MimeType(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "image/" + format
	}
}

// ParseAspectRatio parses "16:9" into 16/9.
func ParseAspectRatio(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid ratio")
	}
	w, err1 := strconv.ParseFloat(parts[0], 64)
	h, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, fmt.Errorf("invalid ratio")
	}
	return w / h, nil
}

// EncodeRatioForPath renders a ratio for use in a file name.
func EncodeRatioForPath(r float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(r, 'f', 4, 64), ".", "p")
}

// CropWithFocus crops or resizes img.
//   - mode: "cover" crops around the focus point, "contain" fits inside the box
//   - aspectRatio: target width / height, used when one edge is missing
//   - focusX/focusY: normalized crop center [0.0-1.0]
//   - width / height: target pixel dimensions, 0 = not specified
func CropWithFocus(
	img image.Image,
	mode string,
	aspectRatio float64,
	focusX, focusY float64,
	width, height int,
) image.Image {
	srcBounds := img.Bounds()
	srcW := srcBounds.Dx()
	srcH := srcBounds.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}
	srcRatio := float64(srcW) / float64(srcH)

	focusX = clamp01(focusX)
	focusY = clamp01(focusY)

	var targetW, targetH int
	switch {
	case width > 0 && height > 0:
		targetW = width
		targetH = height
	case width > 0 && aspectRatio > 0:
		targetW = width
		targetH = int(float64(width) / aspectRatio)
	case height > 0 && aspectRatio > 0:
		targetH = height
		targetW = int(float64(height) * aspectRatio)
	case aspectRatio > 0:
		targetH = srcH
		targetW = int(float64(targetH) * aspectRatio)
	case width > 0:
		return imaging.Resize(img, width, 0, imaging.Lanczos)
	case height > 0:
		return imaging.Resize(img, 0, height, imaging.Lanczos)
	default:
		return img
	}
	if targetW <= 0 || targetH <= 0 {
		return img
	}
	targetRatio := float64(targetW) / float64(targetH)

	if mode == "contain" {
		var newW, newH int
		if srcRatio > targetRatio {
			newW = targetW
			newH = int(float64(newW) / srcRatio)
		} else {
			newH = targetH
			newW = int(float64(newH) * srcRatio)
		}
		return imaging.Resize(img, newW, newH, imaging.Lanczos)
	}

	var cropW, cropH int
	if srcRatio > targetRatio {
		cropH = srcH
		cropW = int(float64(cropH) * targetRatio)
	} else {
		cropW = srcW
		cropH = int(float64(cropW) / targetRatio)
	}

	x0 := int(float64(srcW-cropW) * focusX)
	y0 := int(float64(srcH-cropH) * focusY)
	x0 = clampInt(x0, 0, srcW-cropW)
	y0 = clampInt(y0, 0, srcH-cropH)

	rect := image.Rect(x0, y0, x0+cropW, y0+cropH).Add(srcBounds.Min)
	cropped := imaging.Crop(img, rect)

	return imaging.Resize(cropped, targetW, targetH, imaging.Lanczos)
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
