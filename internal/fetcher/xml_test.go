package fetcher

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textElem struct {
	Value string `xml:",chardata"`
}

func TestNewXMLDecoder_Latin1(t *testing.T) {
	doc := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><name>Soci`), 0xE9, 't', 0xE9)
	doc = append(doc, []byte(`</name>`)...)

	var v textElem
	require.NoError(t, NewXMLDecoder(bytes.NewReader(doc)).Decode(&v))
	assert.Equal(t, "Société", v.Value)
}

func TestNewXMLDecoder_UTF8(t *testing.T) {
	var v textElem
	require.NoError(t, NewXMLDecoder(strings.NewReader(`<name>Apple Inc.</name>`)).Decode(&v))
	assert.Equal(t, "Apple Inc.", v.Value)
}

func TestNewXMLDecoder_UnknownCharset(t *testing.T) {
	doc := `<?xml version="1.0" encoding="x-made-up"?><name>a</name>`
	var v textElem
	assert.Error(t, NewXMLDecoder(strings.NewReader(doc)).Decode(&v))
}
