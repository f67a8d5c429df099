package media

import (
	"encoding/base64"
	"fmt"
	"strings"

	"mimino/internal/domain"
)

// Encoder converts user-selected files into transport-ready MediaAssets.
// Validation happens before anything is stored: a rejected file leaves no
// preview handle behind.
type Encoder struct {
	prefix   string
	previews *PreviewStore
}

func NewEncoder(acceptPrefix string, previews *PreviewStore) *Encoder {
	if acceptPrefix == "" {
		acceptPrefix = "image/"
	}
	return &Encoder{prefix: acceptPrefix, previews: previews}
}

// Encode validates the declared content type and produces a MediaAsset with a
// registered preview handle.
func (e *Encoder) Encode(data []byte, mimeType string) (domain.MediaAsset, error) {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if !strings.HasPrefix(mimeType, e.prefix) {
		return domain.MediaAsset{}, fmt.Errorf("%w: %q must start with %q", domain.ErrUnsupportedMediaType, mimeType, e.prefix)
	}
	if len(data) == 0 {
		return domain.MediaAsset{}, fmt.Errorf("%w: empty payload", domain.ErrUnsupportedMediaType)
	}

	payload := make([]byte, len(data))
	copy(payload, data)

	asset := domain.MediaAsset{
		Data:     payload,
		MimeType: mimeType,
	}
	if e.previews != nil {
		asset.PreviewID = e.previews.Put(payload, mimeType)
	}
	return asset, nil
}

// EncodeBase64 accepts a base64 payload, optionally in data-URL form
// ("data:image/png;base64,...."). The data-URL media type, when present,
// overrides the declared one, matching how browser FileReader output arrives.
func (e *Encoder) EncodeBase64(encoded, declaredMime string) (domain.MediaAsset, error) {
	if strings.HasPrefix(encoded, "data:") {
		rest := strings.TrimPrefix(encoded, "data:")
		meta, payload, ok := strings.Cut(rest, ",")
		if !ok {
			return domain.MediaAsset{}, fmt.Errorf("%w: malformed data url", domain.ErrUnsupportedMediaType)
		}
		if mime := strings.TrimSuffix(meta, ";base64"); mime != "" {
			declaredMime = mime
		}
		encoded = payload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("decode payload: %w", err)
	}
	return e.Encode(data, declaredMime)
}

// Release revokes the asset's preview handle, if any.
func (e *Encoder) Release(asset domain.MediaAsset) {
	if e.previews != nil && asset.PreviewID != "" {
		e.previews.Revoke(asset.PreviewID)
	}
}

// DataURL renders inline media bytes as a browser-displayable data URL.
func DataURL(mimeType string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
