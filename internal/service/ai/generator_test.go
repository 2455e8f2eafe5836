package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
)

type fakeChatModel struct {
	reply string
	err   error
	calls int
	got   []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported by fake")
}

func (f *fakeChatModel) BindTools([]*schema.ToolInfo) error {
	return nil
}

func TestServiceGenerateTrimsReply(t *testing.T) {
	fake := &fakeChatModel{reply: "\n  - Exercise 1: easy onset\n\n"}
	svc, err := NewServiceWithModel(context.Background(), fake)
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "plan for {block: 1}")
	require.NoError(t, err)

	assert.Equal(t, "- Exercise 1: easy onset", out)
	assert.Equal(t, 1, fake.calls)
	require.Len(t, fake.got, 1)
	assert.Equal(t, schema.User, fake.got[0].Role)
	assert.Equal(t, "plan for {block: 1}", fake.got[0].Content)
}

func TestServiceGenerateEmptyReply(t *testing.T) {
	svc, err := NewServiceWithModel(context.Background(), &fakeChatModel{reply: "   \n"})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestServiceGenerateModelError(t *testing.T) {
	svc, err := NewServiceWithModel(context.Background(), &fakeChatModel{err: errors.New("quota exceeded")})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestServiceWithoutCredentialFailsFast(t *testing.T) {
	svc, err := NewService(context.Background(), config.AIConfig{Provider: config.ProviderArk})
	require.NoError(t, err)
	assert.False(t, svc.Configured())

	_, err = svc.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "ARK_API_KEY")
}

func openAIServer(t *testing.T, hits *int32, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGeneratorWithoutCredentialMakesNoCall(t *testing.T) {
	var hits int32
	srv := openAIServer(t, &hits, `{}`)

	gen, err := NewGenerator(context.Background(), config.AIConfig{
		Provider:      config.ProviderOpenAI,
		OpenAIBaseURL: srv.URL,
	})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	var hits int32
	srv := openAIServer(t, &hits, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "  - Breathe before speaking  "}, "finish_reason": "stop"}]
	}`)

	gen := NewOpenAIGenerator(config.AIConfig{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL})

	out, err := gen.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "- Breathe before speaking", out)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestOpenAIGeneratorNoChoices(t *testing.T) {
	var hits int32
	srv := openAIServer(t, &hits, `{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`)

	gen := NewOpenAIGenerator(config.AIConfig{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL})

	_, err := gen.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewGeneratorDefaultsToArk(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.AIConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Service{}, gen)
}
