package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ErrDisabled возвращается, когда базовый адрес сервиса не задан.
var ErrDisabled = errors.New("ai: baseURL не задан")

const (
	maxTitleRunes   = 150
	maxSummaryRunes = 1000
)

// Client реализует простого AI помощника через OpenAI-совместимый API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента. Таймаут ограничивает каждый запрос,
// вызывающий может сократить его контекстом.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled сообщает, настроен ли клиент.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// GenerateProjectTitle придумывает короткий заголовок по описанию проекта.
func (c *Client) GenerateProjectTitle(ctx context.Context, description string) (string, error) {
	messages := []map[string]string{
		{"role": "system", "content": "Ты помогаешь заказчикам на фриланс-бирже. Отвечай одной строкой без кавычек."},
		{"role": "user", "content": "Придумай короткий заголовок (до 10 слов) для проекта:\n\n" + description},
	}

	text, err := c.chatCompletion(ctx, messages, 64, 0.4)
	if err != nil {
		return "", err
	}

	title := cleanLine(text)
	if title == "" {
		return "", fmt.Errorf("ai: пустой заголовок")
	}
	return truncateRunes(title, maxTitleRunes), nil
}

// SummarizeProject составляет краткое описание проекта для исполнителей.
func (c *Client) SummarizeProject(ctx context.Context, title, description string) (string, error) {
	messages := []map[string]string{
		{"role": "system", "content": "Ты помогаешь исполнителям быстро понять суть проекта."},
		{"role": "user", "content": fmt.Sprintf("Кратко (2-3 предложения) перескажи проект.\nЗаголовок: %s\nОписание: %s", title, description)},
	}

	text, err := c.chatCompletion(ctx, messages, 256, 0.5)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		return "", fmt.Errorf("ai: пустое описание")
	}
	return truncateRunes(summary, maxSummaryRunes), nil
}

// chatCompletion выполняет запрос к OpenAI-совместимому API и возвращает
// текст первого варианта ответа.
func (c *Client) chatCompletion(ctx context.Context, messages []map[string]string, maxTokens int, temperature float64) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := c.baseURL
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	url += "chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(raw, "error.message").String()
		return "", fmt.Errorf("ai: код ответа %d: %s", resp.StatusCode, msg)
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("ai: пустой ответ")
	}

	return content.String(), nil
}

// cleanLine берёт первую непустую строку ответа и снимает обрамляющие кавычки.
func cleanLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'«»*# ")
		if line != "" {
			return line
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
