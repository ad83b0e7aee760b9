package imgproc

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestResizeToWidthKeepsAspect(t *testing.T) {
	tests := []struct {
		w, h  int
		wantH int
	}{
		{1600, 1200, 600},
		{400, 300, 600},
		{1024, 1024, 800},
	}
	for _, tt := range tests {
		out := ResizeToWidth(testImage(tt.w, tt.h), 800)
		b := out.Bounds()
		if b.Dx() != 800 {
			t.Errorf("%dx%d: expected width 800, got %d", tt.w, tt.h, b.Dx())
		}
		if b.Dy() != tt.wantH {
			t.Errorf("%dx%d: expected height %d, got %d", tt.w, tt.h, tt.wantH, b.Dy())
		}
	}
}

func TestEncodeJPEGDecodes(t *testing.T) {
	data, err := EncodeJPEG(testImage(64, 32), 90)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	img, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg, got %s", format)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestEncodeFormats(t *testing.T) {
	img := testImage(16, 16)
	for _, format := range []string{"jpg", "png", "webp"} {
		data, err := Encode(img, format, 80)
		if err != nil {
			t.Errorf("Encode(%s) failed: %v", format, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("Encode(%s) returned no bytes", format)
		}
	}
	if _, err := Encode(img, "bmp", 80); err == nil {
		t.Error("expected error for bmp")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode([]byte("definitely not an image")); err == nil {
		t.Error("expected decode error")
	}
}

func TestParseAspectRatio(t *testing.T) {
	r, err := ParseAspectRatio("16:9")
	if err != nil {
		t.Fatalf("ParseAspectRatio failed: %v", err)
	}
	if math.Abs(r-16.0/9.0) > 1e-9 {
		t.Errorf("unexpected ratio %f", r)
	}
	for _, bad := range []string{"", "16", "16:0", "a:b", "1:2:3", "-1:2"} {
		if _, err := ParseAspectRatio(bad); err == nil {
			t.Errorf("ParseAspectRatio(%q) expected error", bad)
		}
	}
}

func TestCropWithFocus(t *testing.T) {
	src := testImage(400, 200)

	cover := CropWithFocus(src, "cover", 0, 0.5, 0.5, 100, 100)
	if cover.Bounds().Dx() != 100 || cover.Bounds().Dy() != 100 {
		t.Errorf("cover: unexpected bounds %v", cover.Bounds())
	}

	contain := CropWithFocus(src, "contain", 0, 0.5, 0.5, 100, 100)
	if contain.Bounds().Dx() != 100 || contain.Bounds().Dy() != 50 {
		t.Errorf("contain: unexpected bounds %v", contain.Bounds())
	}

	ratio := CropWithFocus(src, "cover", 1.0, 0, 0, 50, 0)
	if ratio.Bounds().Dx() != 50 || ratio.Bounds().Dy() != 50 {
		t.Errorf("ratio: unexpected bounds %v", ratio.Bounds())
	}

	widthOnly := CropWithFocus(src, "", 0, 0.5, 0.5, 200, 0)
	if widthOnly.Bounds().Dx() != 200 || widthOnly.Bounds().Dy() != 100 {
		t.Errorf("width only: unexpected bounds %v", widthOnly.Bounds())
	}

	same := CropWithFocus(src, "", 0, 0.5, 0.5, 0, 0)
	if same != src {
		t.Error("expected image to be returned unchanged")
	}
}

func TestExifWithoutTags(t *testing.T) {
	data, err := EncodeJPEG(testImage(8, 8), 90)
	if err != nil {
		t.Fatal(err)
	}
	if m := Exif(data); m != nil {
		t.Errorf("expected no exif, got %v", m)
	}
}
