package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventPriority(t *testing.T) {
	failed := Event{Type: EventDerivativeFailed}
	published := Event{Type: EventDerivativePublished}

	assert.Greater(t, failed.priority(), published.priority())
	assert.LessOrEqual(t, failed.priority(), uint8(10))
}
