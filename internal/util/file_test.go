package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetURL(t *testing.T) {
	base := "http://assets.local:5000/"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"absolute http", "http://cdn/x.png", "http://cdn/x.png"},
		{"absolute https", "https://cdn/x.png", "https://cdn/x.png"},
		{"static without slash", "static/ejercicios_ayuda/ej_6.jpg", "http://assets.local:5000/static/ejercicios_ayuda/ej_6.jpg"},
		{"static with slash", "/static/ej_6.jpg", "http://assets.local:5000/static/ej_6.jpg"},
		{"bare folder", "ejercicios_ayuda/ej_6.jpg", "http://assets.local:5000/static/ejercicios_ayuda/ej_6.jpg"},
		{"rooted folder", "/ejercicios_ayuda/ej_6.jpg", "http://assets.local:5000/static/ejercicios_ayuda/ej_6.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetURL(base, tt.in))
		})
	}
}

func TestParseLimit(t *testing.T) {
	n, err := ParseLimit("", 5, 50)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = ParseLimit("12", 5, 50)
	assert.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, bad := range []string{"0", "-1", "51", "abc"} {
		_, err := ParseLimit(bad, 5, 50)
		assert.ErrorIs(t, err, ErrInvalidArgument, bad)
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("student_id", "42")
	assert.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "x", "-3"} {
		_, err := ParseID("student_id", bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, bad)
	}

	id, err = ParseOptionalID("competency_id", "")
	assert.NoError(t, err)
	assert.Zero(t, id)
}
