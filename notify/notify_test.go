package notify_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := notify.NewRecorder()

	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(notify.Success("Saved", ""))
	r.Notify(notify.Error("Not Found", "Resource not found."))

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
	assert.Equal(t, "Not Found", last.Title)

	assert.Len(t, r.Notifications(), 2)
	drained := r.Drain()
	assert.Len(t, drained, 2)
	assert.Empty(t, r.Notifications())
}

func TestMulti(t *testing.T) {
	a, b := notify.NewRecorder(), notify.NewRecorder()
	n := notify.Multi(a, nil, b)

	n.Notify(notify.Success("Hello", "world"))

	assert.Len(t, a.Notifications(), 1)
	assert.Len(t, b.Notifications(), 1)
}

func TestOrDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.OrDiscard(nil).Notify(notify.Error("x", ""))
	})
	r := notify.NewRecorder()
	notify.OrDiscard(r).Notify(notify.Error("x", ""))
	assert.Len(t, r.Notifications(), 1)
}

func TestTerminalNotifier(t *testing.T) {
	var buf bytes.Buffer
	tn := notify.NewTerminalNotifier(&buf)

	tn.Notify(notify.Error("Access Denied", "Please login to access this page"))

	out := buf.String()
	assert.Contains(t, out, "Access Denied")
	assert.Contains(t, out, "Please login to access this page")
}
