package bip

import "errors"

// Failure taxonomy. Components wrap these with context; the responder maps
// every one of them to "request not serviceable".
var (
	ErrUnknownHandle         = errors.New("unknown image handle")
	ErrMalformedDescriptor   = errors.New("malformed image descriptor")
	ErrInvalidVersion        = errors.New("invalid image descriptor version")
	ErrInvalidPixelSpec      = errors.New("invalid pixel specification")
	ErrInvalidTransformation = errors.New("invalid transformation")
	ErrUnsupportedEncoding   = errors.New("unsupported encoding")
	ErrStorageUnavailable    = errors.New("scratch storage unavailable")
	ErrRenderFailure         = errors.New("render failure")
	ErrSizeExceeded          = errors.New("image exceeds requested maxsize")
	ErrIOFailure             = errors.New("scratch i/o failure")
	ErrAssetNotFound         = errors.New("asset not found")
	ErrHandleCollision       = errors.New("image handle collision")
	ErrHandleSpaceExhausted  = errors.New("no free image handle")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUnknownHandle, "UnknownHandle"},
	{ErrMalformedDescriptor, "MalformedDescriptor"},
	{ErrInvalidVersion, "InvalidVersion"},
	{ErrInvalidPixelSpec, "InvalidPixelSpec"},
	{ErrInvalidTransformation, "InvalidTransformation"},
	{ErrUnsupportedEncoding, "UnsupportedEncoding"},
	{ErrStorageUnavailable, "StorageUnavailable"},
	{ErrRenderFailure, "RenderFailure"},
	{ErrSizeExceeded, "SizeExceeded"},
	{ErrIOFailure, "IOFailure"},
	{ErrAssetNotFound, "AssetNotFound"},
	{ErrHandleCollision, "HandleCollision"},
	{ErrHandleSpaceExhausted, "HandleSpaceExhausted"},
}

// Kind names the taxonomy entry err belongs to, or "" for nil and
// "Internal" for errors outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
