package syncstore_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

func TestSyncError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("api: %w", &syncstore.SyncError{Kind: syncstore.KindTransient, Op: "refresh", Err: cause})

	assert.ErrorIs(t, err, syncstore.ErrTransient)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, syncstore.ErrProtocol)
	assert.True(t, syncstore.IsRetryable(err))
	assert.Equal(t, "api: refresh: transient: connection refused", err.Error())

	kind, ok := syncstore.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, syncstore.KindTransient, kind)

	_, ok = syncstore.KindOf(cause)
	assert.False(t, ok)
	assert.False(t, syncstore.IsRetryable(cause))

	torn := &syncstore.SyncError{Kind: syncstore.KindStoreTornDown, Op: "refresh"}
	assert.ErrorIs(t, torn, syncstore.ErrStoreTornDown)
	assert.Equal(t, "refresh: store torn down", torn.Error())
}
