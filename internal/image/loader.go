// Package image reads the header of a plot image: dimensions, format and,
// for TIFF scans, the resolution. Pixel data stays with whatever renders it.
package image

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadInfo decodes the image header at path.
func LoadInfo(path string) (document.ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return document.ImageInfo{}, errors.Wrap(errors.ErrCodeLoadFailed, err, "cannot open image %s", path)
	}
	defer file.Close()

	info, err := DecodeInfo(file)
	if err != nil {
		return document.ImageInfo{}, errors.Wrap(errors.ErrCodeLoadFailed, err, "cannot decode image %s", path)
	}
	info.Path = path
	return info, nil
}

// DecodeInfo reads dimensions and format from r.
func DecodeInfo(r io.ReadSeeker) (document.ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return document.ImageInfo{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return document.ImageInfo{}, fmt.Errorf("image is %dx%d", cfg.Width, cfg.Height)
	}

	info := document.ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}
	if format == "tiff" {
		if _, err := r.Seek(0, io.SeekStart); err == nil {
			if dpi, err := tiffDPI(r); err == nil {
				info.DPI = dpi
			}
		}
	}
	return info, nil
}

// TIFF tags and field types used for resolution.
const (
	tagXResolution    = 282
	tagYResolution    = 283
	tagResolutionUnit = 296

	typeShort    = 3
	typeRational = 5

	unitCentimeter = 3
)

// tiffDPI extracts the resolution from the first IFD of a TIFF stream.
func tiffDPI(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	if _, err := r.Seek(int64(order.Uint32(header[4:8])), io.SeekStart); err != nil {
		return 0, err
	}
	var count uint16
	if err := binary.Read(r, order, &count); err != nil {
		return 0, err
	}
	entries := make([]byte, 12*int(count))
	if _, err := io.ReadFull(r, entries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	unit := uint16(2) // inches
	for i := 0; i < int(count); i++ {
		entry := entries[i*12 : (i+1)*12]
		tag := order.Uint16(entry[0:2])
		fieldType := order.Uint16(entry[2:4])
		value := order.Uint32(entry[8:12])

		switch {
		case tag == tagXResolution && fieldType == typeRational:
			xRes = readRational(r, int64(value), order)
		case tag == tagYResolution && fieldType == typeRational:
			yRes = readRational(r, int64(value), order)
		case tag == tagResolutionUnit && fieldType == typeShort:
			unit = order.Uint16(entry[8:10])
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if unit == unitCentimeter {
		dpi *= 2.54
	}
	return dpi, nil
}

func readRational(r io.ReadSeeker, offset int64, order binary.ByteOrder) float64 {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0
	}
	var v [2]uint32
	if err := binary.Read(r, order, &v); err != nil || v[1] == 0 {
		return 0
	}
	return float64(v[0]) / float64(v[1])
}

// SupportedFormats returns the image file extensions that can be imported.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

// IsSupportedFormat checks the extension of path.
func IsSupportedFormat(path string) bool {
	return slices.Contains(SupportedFormats(), strings.ToLower(filepath.Ext(path)))
}
