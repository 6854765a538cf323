package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadingTimeFor(t *testing.T) {
	assert.Equal(t, 0, ReadingTimeFor(""))
	assert.Equal(t, 0, ReadingTimeFor("   \n\t "))

	assert.Equal(t, 1, ReadingTimeFor("one short sentence"))
	assert.Equal(t, 1, ReadingTimeFor(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadingTimeFor(strings.Repeat("word ", 201)))
	assert.Equal(t, 5, ReadingTimeFor(strings.Repeat("word ", 1000)))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
	assert.False(t, (&User{}).IsAdmin())
}
