package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Provider: p.name}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeProvider{name: "openai"}))

	p, err := r.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("ghost")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestRegistry_Register_Invalid(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&fakeProvider{name: ""}))
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_Register_Replaces(t *testing.T) {
	r := NewRegistry()
	first := &fakeProvider{name: "openai"}
	second := &fakeProvider{name: "openai"}

	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	p, err := r.Get("openai")
	require.NoError(t, err)
	assert.Same(t, second, p)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeProvider{name: "openai"}))
	require.NoError(t, r.Register(&fakeProvider{name: "anthropic"}))

	assert.ElementsMatch(t, []string{"openai", "anthropic"}, r.List())
	assert.Equal(t, 2, r.Count())
}

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{429, "rate_limit"},
		{401, "authentication_error"},
		{403, "authentication_error"},
		{402, "quota_exceeded"},
		{404, "model_unavailable"},
		{503, "model_unavailable"},
		{408, "timeout"},
		{504, "timeout"},
		{500, "unknown_error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(KindFromStatus(tt.status)))
	}
}
