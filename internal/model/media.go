package model

import "io"

const (
	MaxImageSizeBytes = 10 * 1024 * 1024 // 10MB
	ImageExt          = ".jpg"
	ImageCacheControl = "public, max-age=31536000" // 1 year

	PostImageMaxDimension = 1080
	ProfileImageSize      = 400
	CoverImageWidth       = 1500
	CoverImageHeight      = 500

	ProfileImageFolder = "profile"
	CoverImageFolder   = "cover"
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeWebP: {},
}

// Domain errors for media operations
var (
	ErrFileTooLarge     = newError(ErrValidation, "Image exceeds 10MB limit")
	ErrInvalidImageType = newError(ErrValidation, "Unsupported image type. Allowed: jpeg, png, webp")
)

// ImageUpload is an image part received from a client.
type ImageUpload struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// StoredImage is the location of an uploaded object.
// Key is the object key inside the bucket, kept for deletes.
type StoredImage struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
