package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		verbose   bool
		wantInfo  bool
		wantDebug bool
	}{
		{"default shows warnings only", false, false, false, false},
		{"verbose shows info", false, true, true, false},
		{"debug shows everything", true, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := WithLogger(context.Background(), New(&buf, tt.debug, tt.verbose))

			Info(ctx, "info message")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info message")))

			Debug(ctx, "debug message")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))

			Warn(ctx, "warn message")
			assert.Contains(t, buf.String(), "warn message")
		})
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, false, true))
	ctx = With(ctx, "repo", "x/y")

	Error(ctx, "step failed", errors.New("boom"), "step", "issue_drafts")

	out := buf.String()
	assert.Contains(t, out, "step failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "x/y")
	assert.Contains(t, out, "issue_drafts")
}

func TestFromContext_Fallbacks(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil))

	ctx := context.Background()
	assert.Equal(t, ctx, WithLogger(ctx, nil))
}
