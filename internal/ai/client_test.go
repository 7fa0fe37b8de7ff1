package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&captured)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestGenerateProjectTitle(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"\n«Лендинг для кофейни»\nещё строка"}}]}`)

	client := NewClient(srv.URL+"/v1", "secret", "test-model", time.Second)
	title, err := client.GenerateProjectTitle(context.Background(), "Нужен одностраничный сайт для кофейни")

	require.NoError(t, err)
	assert.Equal(t, "Лендинг для кофейни", title)
	assert.Equal(t, "test-model", (*captured)["model"])
}

func TestSummarizeProject_TruncatesLongAnswer(t *testing.T) {
	long := strings.Repeat("а", maxSummaryRunes+50)
	srv, _ := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"content":"`+long+`"}}]}`)

	client := NewClient(srv.URL+"/v1/", "secret", "", time.Second)
	summary, err := client.SummarizeProject(context.Background(), "t", "d")

	require.NoError(t, err)
	assert.Equal(t, maxSummaryRunes, len([]rune(summary)))
}

func TestChatCompletion_ErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`)

	client := NewClient(srv.URL+"/v1", "secret", "", time.Second)
	_, err := client.GenerateProjectTitle(context.Background(), "описание")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestChatCompletion_EmptyChoices(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"choices":[]}`)

	client := NewClient(srv.URL+"/v1", "secret", "", time.Second)
	_, err := client.SummarizeProject(context.Background(), "t", "d")

	assert.ErrorContains(t, err, "пустой ответ")
}

func TestClient_Disabled(t *testing.T) {
	client := NewClient("", "", "", 0)
	assert.False(t, client.Enabled())

	_, err := client.GenerateProjectTitle(context.Background(), "описание")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCleanLine(t *testing.T) {
	assert.Equal(t, "Заголовок", cleanLine("  \n \"Заголовок\" \n"))
	assert.Equal(t, "", cleanLine("\n\n"))
}
