package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/xbrl-fetch/internal/config"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		parts  []string
		want   string
	}{
		{"prefix and parts", "xbrl", []string{"aapl-20220924", "aapl-20220924_htm.xml"}, "xbrl/aapl-20220924/aapl-20220924_htm.xml"},
		{"no prefix", "", []string{"folder", "file.xsd"}, "folder/file.xsd"},
		{"trims slashes", "/xbrl/", []string{"/folder/", "file.xml"}, "xbrl/folder/file.xml"},
		{"backslashes", "xbrl", []string{`0000320193\aapl`, "f.xml"}, "xbrl/0000320193/aapl/f.xml"},
		{"empty parts skipped", "xbrl", []string{"", "f.xml"}, "xbrl/f.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.parts...))
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/xml", ContentType("aapl_htm.xml"))
	assert.Equal(t, "application/xml", ContentType("aapl.XSD"))
	assert.Equal(t, "text/html", ContentType("index.htm"))
	assert.Equal(t, "application/octet-stream", ContentType("blob"))
}

func TestNewMinioSink_RequiresSettings(t *testing.T) {
	_, err := NewMinioSink(config.StorageConfig{})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = NewMinioSink(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "b"})
	assert.ErrorContains(t, err, "credentials are required")

	_, err = NewMinioSink(config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")
}

func TestNewMinioSink(t *testing.T) {
	sink, err := NewMinioSink(config.StorageConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "filings",
		Prefix:    "xbrl",
	})
	require.NoError(t, err)
	assert.Equal(t, "filings", sink.bucket)
	assert.Equal(t, "xbrl", sink.prefix)
}
