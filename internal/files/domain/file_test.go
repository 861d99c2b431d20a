package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowedMIMEType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"text/plain", true},
		{"application/pdf", true},
		{"IMAGE/PNG", true},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true},
		{"video/mp4", true},
		{"application/x-msdownload", false},
		{"text/html", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedMIMEType(tt.mimeType))
		})
	}
}

func TestShareLink_IsExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	assert.False(t, (&ShareLink{}).IsExpired(now))
	assert.False(t, (&ShareLink{ExpiresAt: &future}).IsExpired(now))
	assert.True(t, (&ShareLink{ExpiresAt: &past}).IsExpired(now))
	assert.True(t, (&ShareLink{ExpiresAt: &now}).IsExpired(now))
}

func TestFile_ExpectedCiphertextSize(t *testing.T) {
	assert.Equal(t, int64(16), (&File{Size: 0}).ExpectedCiphertextSize())
	assert.Equal(t, int64(1040), (&File{Size: 1024}).ExpectedCiphertextSize())
}
