package domain

// MediaAsset is a user-selected file in transport-ready form. Data holds the
// raw bytes; base64 encoding happens at the wire boundary. PreviewID is a
// revocable handle usable for immediate on-screen rendering and is released
// when the asset is superseded or its operation completes.
type MediaAsset struct {
	Data      []byte
	MimeType  string
	PreviewID string
}

// GenerationOutcome is the immutable result of exactly one generation
// operation. A remote reply may carry an inline image, a video reference,
// text, or none of them (a textual-only model reply is a valid outcome).
type GenerationOutcome struct {
	ImageData []byte
	ImageMime string
	VideoURI  string
	Text      string
}

// HasMedia reports whether the outcome carries any renderable media.
func (o *GenerationOutcome) HasMedia() bool {
	return len(o.ImageData) > 0 || o.VideoURI != ""
}
