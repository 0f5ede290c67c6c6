package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"/A.app/Info.plist", "/B.app/Info.plist", "/A.app//Info.plist"})
	assert.Equal(t, []string{"/A.app/Info.plist", "/B.app/Info.plist"}, got)
}
