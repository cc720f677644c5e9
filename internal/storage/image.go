package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // registers the webp decoder used by imaging.Decode

	"chirpfeed/internal/model"
)

// Variant describes how an upload is normalized before it is stored.
type Variant struct {
	Folder string
	Width  int
	Height int
	// Crop fills Width x Height exactly; otherwise the image is scaled down to fit.
	Crop bool
}

var (
	PostImage = Variant{
		Folder: model.PostImageFolder,
		Width:  model.PostImageMaxDimension,
		Height: model.PostImageMaxDimension,
	}
	ProfileImage = Variant{
		Folder: model.ProfileImageFolder,
		Width:  model.ProfileImageSize,
		Height: model.ProfileImageSize,
		Crop:   true,
	}
	CoverImage = Variant{
		Folder: model.CoverImageFolder,
		Width:  model.CoverImageWidth,
		Height: model.CoverImageHeight,
		Crop:   true,
	}
)

const jpegQuality = 85

// Uploader validates, re-encodes and stores images.
type Uploader struct {
	store     ObjectStore
	publicURL string
}

func NewUploader(store ObjectStore, publicURL string) *Uploader {
	return &Uploader{store: store, publicURL: publicURL}
}

// StoreImage normalizes the upload to a JPEG for variant v and stores it
// under a fresh key.
func (u *Uploader) StoreImage(ctx context.Context, v Variant, upload *model.ImageUpload) (*model.StoredImage, error) {
	data, err := readAndValidateImage(upload, model.MaxImageSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := resizeToJPEG(data, v, jpegQuality)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", v.Folder, uuid.NewString(), model.ImageExt)
	if err := u.store.PutObject(ctx, key, jpegBytes, model.ContentTypeJPEG, model.ImageCacheControl); err != nil {
		return nil, err
	}

	return &model.StoredImage{URL: publicURL(u.publicURL, key), Key: key}, nil
}

// DeleteImage removes a stored image. An empty key is a no-op.
func (u *Uploader) DeleteImage(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return u.store.DeleteObject(ctx, key)
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(upload *model.ImageUpload, maxSize int64) ([]byte, error) {
	if upload.Size > maxSize {
		return nil, model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, model.ErrFileTooLarge
	}

	contentType := upload.ContentType
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}

	return data, nil
}

func resizeToJPEG(data []byte, v Variant, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, model.ErrInvalidImageType
	}

	if v.Crop {
		img = imaging.Fill(img, v.Width, v.Height, imaging.Center, imaging.Lanczos)
	} else {
		img = imaging.Fit(img, v.Width, v.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
