package transport_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/csschain/go/internal/transport"
	"github.com/mcdev12/csschain/go/internal/transport/transporttest"
)

func TestScope_AcquireRelease(t *testing.T) {
	fake := transporttest.NewFake("me")
	var got []string
	scope := transport.Acquire(fake, map[string]transport.Handler{
		"a": func(json.RawMessage) { got = append(got, "a") },
		"b": func(json.RawMessage) { got = append(got, "b") },
	})

	assert.ElementsMatch(t, []string{"a", "b"}, scope.Names())
	require.True(t, fake.Push("a", 1))
	require.True(t, fake.Push("b", 2))
	assert.Equal(t, []string{"a", "b"}, got)

	scope.Release()
	assert.Empty(t, fake.Handlers())
	assert.False(t, fake.Push("a", 1))

	scope.Release()
	var nilScope *transport.Scope
	nilScope.Release()
}

func TestScope_ReleaseLeavesOtherHandlers(t *testing.T) {
	fake := transporttest.NewFake("me")
	fake.On("other", func(json.RawMessage) {})
	scope := transport.Acquire(fake, map[string]transport.Handler{"mine": func(json.RawMessage) {}})

	scope.Release()
	assert.Equal(t, []string{"other"}, fake.Handlers())
}

func TestDecodeAck(t *testing.T) {
	raw := json.RawMessage(`{"success":false,"message":"nope","extra":1}`)
	ack, err := transport.DecodeAck(raw)
	require.NoError(t, err)
	assert.False(t, ack.Success)
	assert.Equal(t, "nope", ack.Message)
	assert.JSONEq(t, string(raw), string(ack.Raw))

	_, err = transport.DecodeAck(json.RawMessage(`[`))
	assert.Error(t, err)
}

func TestOKAndFail(t *testing.T) {
	ok := transport.OK(map[string]int{"n": 1})
	assert.True(t, ok.Success)
	assert.JSONEq(t, `{"n":1}`, string(ok.Data))

	fail := transport.Fail("bad")
	assert.False(t, fail.Success)
	assert.JSONEq(t, `{"success":false,"message":"bad"}`, string(fail.Raw))
}
