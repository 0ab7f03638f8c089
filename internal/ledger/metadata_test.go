package ledger_test

import (
	"encoding/base64"
	"testing"

	"github.com/comicverse/txgate/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokenURI(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString([]byte(`{"name":"hero_one","image":"ipfs://abc","description":"brave"}`))
	raw := base64.RawStdEncoding.EncodeToString([]byte(`{"name":"x","image":"y"}`))

	tests := []struct {
		name    string
		uri     string
		want    ledger.TokenMetadata
		wantErr bool
	}{
		{
			name: "base64 json",
			uri:  "data:application/json;base64," + b64,
			want: ledger.TokenMetadata{Name: "hero_one", Image: "ipfs://abc", Description: "brave"},
		},
		{
			name: "unpadded base64",
			uri:  "data:application/json;base64," + raw,
			want: ledger.TokenMetadata{Name: "x", Image: "y"},
		},
		{
			name: "plain json data uri",
			uri:  `data:application/json,{"name":"a%20b","image":"c"}`,
			want: ledger.TokenMetadata{Name: "a b", Image: "c"},
		},
		{name: "http uri", uri: "https://example.com/1.json", wantErr: true},
		{name: "bad base64", uri: "data:application/json;base64,@@@", wantErr: true},
		{name: "not json", uri: "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte("hello")), wantErr: true},
		{name: "no payload", uri: "data:application/json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.DecodeTokenURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ledger.ErrMalformedMetadata)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeTokenURI_RoundTrip(t *testing.T) {
	meta := ledger.TokenMetadata{Name: "héro", Image: "ipfs://ü"}
	uri, err := ledger.EncodeTokenURI(meta)
	require.NoError(t, err)

	got, err := ledger.DecodeTokenURI(uri)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}
