package helper

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

type WebPOptions struct {
	MaxSide int     // longest edge after resize; 0 keeps the original size
	Quality float32 // lossy quality 1..100
}

var DefaultWebPOptions = WebPOptions{MaxSide: 1200, Quality: 80}

/* =======================================================================
   Decode (jpeg/png/webp) → resize → encode webp
======================================================================= */

func decodeImage(all []byte, filename string) (image.Image, error) {
	if len(all) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(filename))

	if strings.Contains(ct, "webp") || ext == ".webp" {
		return webp.Decode(bytes.NewReader(all))
	}
	img, _, err := image.Decode(bytes.NewReader(all))
	if err != nil {
		return nil, fmt.Errorf("unsupported image %s / %s: %w", ct, ext, err)
	}
	return img, nil
}

// ConvertToWebP keeps the aspect ratio; only ever shrinks.
func ConvertToWebP(data []byte, filename string, opt WebPOptions) ([]byte, error) {
	img, err := decodeImage(data, filename)
	if err != nil {
		return nil, err
	}
	if opt.MaxSide > 0 {
		b := img.Bounds()
		if b.Dx() > opt.MaxSide || b.Dy() > opt.MaxSide {
			img = imaging.Fit(img, opt.MaxSide, opt.MaxSide, imaging.Lanczos)
		}
	}
	q := opt.Quality
	if q <= 0 || q > 100 {
		q = 80
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: q}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveUpload writes data under dir/folder and returns the path relative to dir.
func SaveUpload(dir, folder, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	rel := filepath.ToSlash(filepath.Join(folder, name))
	full := filepath.Join(dir, folder)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(full, name), data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// RemoveUpload deletes a file previously returned by SaveUpload. Missing files are ignored.
func RemoveUpload(dir, rel string) error {
	if rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(dir, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
