package relay

import (
	"context"
	"testing"

	"github.com/cupogo/andvari/utils/zlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStreamLogsThroughInstalledLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := zlog.Get()
	zlog.Set(zap.New(core).Sugar())
	defer zlog.Set(prev)

	r, _ := newRelay(&fakeProvider{chunks: []string{"ok"}})
	require.NoError(t, r.Stream(context.Background(), Request{UserID: "u", Message: "hi"}, &recorder{}))

	entries := logs.FilterMessage("chat stream").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "u", entries[0].ContextMap()["uid"])
	assert.Equal(t, "fake", entries[0].ContextMap()["provider"])
	assert.Equal(t, 1, logs.FilterMessage("stream done").Len())
}
