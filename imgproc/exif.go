package imgproc

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

type exifWalker struct {
	m map[string]string
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w.m[string(name)] = tag.String()
	return nil
}

// Exif returns the EXIF tags of data, or nil when it carries none.
func Exif(data []byte) map[string]string {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	m := make(map[string]string)
	if err := x.Walk(&exifWalker{m: m}); err != nil {
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
