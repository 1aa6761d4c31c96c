package domain

// NormalizedImage is the output of auto-crop normalization for one uploaded
// image. Bytes always holds a usable image: the crop when one was worth
// making, otherwise the untouched input. Immutable after creation and never
// persisted beyond the submission it belongs to.
type NormalizedImage struct {
	Bytes        []byte
	MimeType     string
	FileName     string
	OriginalName string
	WasCropped   bool
}
