package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckImageRef(t *testing.T) {
	cases := []struct {
		ref string
		ok  bool
	}{
		{"https://cdn.example.com/a.jpg", true},
		{"https://cdn.example.com/a.JPEG?sig=abc", true},
		{"https://cdn.example.com/a.webp", true},
		{"https://cdn.example.com/a.gif", true},
		{"opaque-handle-1234", true},
		{"https://cdn.example.com/a.pdf", false},
		{"a.txt", false},
		{"", false},
		{"   ", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, checkImageRef(c.ref), "checkImageRef(%q)", c.ref)
	}
}
