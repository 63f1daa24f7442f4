package mocks

import (
	"fmt"
	"strings"

	"github.com/mcoot/matchmaker/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// IDResults is a queue of results to return from NewID
	IDResults []string
	idIndex   int

	// SecretResults is a queue of results to return from Secret
	SecretResults []string
	secretIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// NewID returns the next queued id, or a sequential id if none remaining
func (r *MockRandom) NewID() string {
	if r.idIndex >= len(r.IDResults) {
		r.idIndex++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", r.idIndex)
	}
	result := r.IDResults[r.idIndex]
	r.idIndex++
	return result
}

// Secret returns the next queued secret, or a fixed-length filler if none remaining
func (r *MockRandom) Secret(n int) string {
	if r.secretIndex >= len(r.SecretResults) {
		return strings.Repeat("s", n)
	}
	result := r.SecretResults[r.secretIndex]
	r.secretIndex++
	return result
}

// QueueID adds values to the NewID result queue
func (r *MockRandom) QueueID(values ...string) {
	r.IDResults = append(r.IDResults, values...)
}

// QueueSecret adds values to the Secret result queue
func (r *MockRandom) QueueSecret(values ...string) {
	r.SecretResults = append(r.SecretResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.IDResults = nil
	r.idIndex = 0
	r.SecretResults = nil
	r.secretIndex = 0
}
