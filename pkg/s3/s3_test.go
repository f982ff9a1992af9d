package s3

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"http://minio:9000/media-bucket/media/u1/a.png",
		objectURL("http://minio:9000", "us-east-1", true, "media-bucket", "media/u1/a.png"))

	assert.Equal(t,
		"https://media-bucket.s3.eu-west-1.amazonaws.com/media/u1/a.png",
		objectURL("", "eu-west-1", false, "media-bucket", "media/u1/a.png"))

	assert.Equal(t,
		"https://media-bucket.s3.us-east-1.amazonaws.com/k",
		objectURL("", "", false, "media-bucket", "k"))
}

func TestMediaKey(t *testing.T) {
	key := MediaKey("user-1", "Photo.JPG")

	assert.True(t, strings.HasPrefix(key, "media/user-1/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, MediaKey("user-1", "Photo.JPG"))
}

func TestMediaKeyFromURL(t *testing.T) {
	key, ok := MediaKeyFromURL(objectURL("http://minio:9000", "", true, "media-bucket", "media/u1/a.png"))
	assert.True(t, ok)
	assert.Equal(t, "media/u1/a.png", key)

	key, ok = MediaKeyFromURL(objectURL("", "eu-west-1", false, "media-bucket", "media/u1/b.jpg"))
	assert.True(t, ok)
	assert.Equal(t, "media/u1/b.jpg", key)

	_, ok = MediaKeyFromURL("https://cdn.example.com/img.png")
	assert.False(t, ok)

	_, ok = MediaKeyFromURL("://bad")
	assert.False(t, ok)
}
