package terminal

import (
	"os"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidthWithoutTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	assert.False(t, IsTerminal(w))
	assert.Equal(t, FallbackWidth, Width(w))
	assert.False(t, IsTerminal(nil))
	assert.Equal(t, FallbackWidth, Width(nil))
}

func TestWidthOnPTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = tty.Close()
		_ = ptmx.Close()
	})
	require.NoError(t, pty.Setsize(ptmx, &pty.Winsize{Rows: 40, Cols: 132}))

	assert.True(t, IsTerminal(tty))
	assert.Equal(t, 132, Width(tty))
}

func TestBannerWidth(t *testing.T) {
	assert.Equal(t, 48, BannerWidth(80))
	assert.Equal(t, 100, BannerWidth(132))
	assert.Equal(t, 20, BannerWidth(40))
	assert.Equal(t, 20, BannerWidth(0))
}

func TestRule(t *testing.T) {
	assert.Equal(t, "-----", Rule(5))
	assert.Equal(t, "", Rule(0))
}
