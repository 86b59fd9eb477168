package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_ID(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{name: "int64", doc: Document{"id": int64(42)}, want: "42"},
		{name: "int", doc: Document{"id": 7}, want: "7"},
		{name: "string", doc: Document{"id": "abc"}, want: "abc"},
		{name: "json number", doc: Document{"id": float64(12)}, want: "12"},
		{name: "missing", doc: Document{"name": "x"}, want: ""},
		{name: "unsupported", doc: Document{"id": []int{1}}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.ID())
		})
	}
}

func TestIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "20", "300"}, IDs([]int64{1, 20, 300}))
	assert.Empty(t, IDs(nil))
}
