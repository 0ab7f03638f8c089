package ledger

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedMetadata is returned when a token URI does not carry decodable
// JSON metadata
var ErrMalformedMetadata = errors.New("malformed token metadata")

const (
	dataURIPrefix = "data:"
	base64Marker  = ";base64,"
)

// TokenMetadata is the JSON document embedded in a collectible's token URI
type TokenMetadata struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
}

// DecodeTokenURI extracts metadata from a data URI of the form
// "data:application/json;base64,<payload>". A data URI without the base64
// marker is read as (percent-encoded) JSON after the first comma.
func DecodeTokenURI(uri string) (TokenMetadata, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return TokenMetadata{}, fmt.Errorf("%w: not a data URI", ErrMalformedMetadata)
	}

	var raw []byte
	if idx := strings.Index(uri, base64Marker); idx >= 0 {
		payload := uri[idx+len(base64Marker):]
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return TokenMetadata{}, fmt.Errorf("%w: invalid base64: %v", ErrMalformedMetadata, err)
			}
		}
		raw = decoded
	} else {
		comma := strings.IndexByte(uri, ',')
		if comma < 0 {
			return TokenMetadata{}, fmt.Errorf("%w: missing payload", ErrMalformedMetadata)
		}
		unescaped, err := url.PathUnescape(uri[comma+1:])
		if err != nil {
			return TokenMetadata{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
		}
		raw = []byte(unescaped)
	}

	var meta TokenMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return TokenMetadata{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	return meta, nil
}

// EncodeTokenURI builds the base64 data URI for meta
func EncodeTokenURI(meta TokenMetadata) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(raw), nil
}
