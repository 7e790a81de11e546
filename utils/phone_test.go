package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "919000000001", NormalizePhone("+91 90000-00001"))
	assert.Equal(t, "9000000001", NormalizePhone("(900) 000 0001"))
	assert.Equal(t, "", NormalizePhone("abc"))
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9000000001", true},
		{"+91 90000 00001", true},
		{"123456789", false},
		{"1234567890123456", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPhone(tt.phone))
		})
	}
}
