package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"http://localhost:9000/content/social/x/deriv_1.txt",
		objectURL("http://localhost:9000", true, "", "content", "social/x/deriv_1.txt"))

	assert.Equal(t,
		"https://minio.internal/content/a.txt",
		objectURL("https://minio.internal", false, "", "content", "a.txt"))

	assert.Equal(t,
		"https://content.s3.eu-west-1.amazonaws.com/a.txt",
		objectURL("", false, "eu-west-1", "content", "a.txt"))

	assert.Equal(t,
		"https://content.s3.us-east-1.amazonaws.com/a.txt",
		objectURL("", false, "", "content", "a.txt"))
}
