package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Devworks Bootcamp", "devworks-bootcamp"},
		{"ModernTech Bootcamp", "moderntech-bootcamp"},
		{"Café Coders", "cafe-coders"},
		{"  Rocket -- Academy!  ", "rocket-academy"},
		{"UI/UX Masters", "uiux-masters"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}
