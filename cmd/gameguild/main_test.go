package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gameguild-gg/gameguild-sub001/internal/app"
	_ "github.com/gameguild-gg/gameguild-sub001/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
