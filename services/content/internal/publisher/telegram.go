package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// MaxMessageChars keeps each chunk, prefix included, below the chat API's
// 4096-character limit.
const MaxMessageChars = 4000

// ChunkMessage splits text into pieces of at most max characters along line
// breaks. A single line longer than max is cut by characters. Every chunk
// after the first is prefixed with a "(part i/n)" marker. A max too small to
// hold the marker leaves continuation chunks without that reserve; a max
// below 1 means MaxMessageChars.
func ChunkMessage(text string, max int) []string {
	if max < 1 {
		max = MaxMessageChars
	}
	if len([]rune(text)) <= max {
		return []string{text}
	}

	// reserve room for the continuation marker
	budget := max - len("(part 999/999)\n\n")
	if budget < 1 {
		budget = max
	}
	var chunks []string
	var current []string
	size := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
			size = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > budget {
			flush()
			chunks = append(chunks, string(runes[:budget]))
			runes = runes[budget:]
		}
		line = string(runes)

		n := len(runes)
		if len(current) > 0 {
			n++
		}
		if size+n > budget {
			flush()
			n = len(runes)
		}
		current = append(current, line)
		size += n
	}
	flush()

	if len(chunks) > 1 {
		for i := 1; i < len(chunks); i++ {
			chunks[i] = fmt.Sprintf("(part %d/%d)\n\n%s", i+1, len(chunks), chunks[i])
		}
	}
	return chunks
}

// TelegramSender posts messages through the Bot API, pacing consecutive sends.
type TelegramSender struct {
	apiURL  string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func NewTelegramSender(apiURL, token string, interval time.Duration) *TelegramSender {
	return &TelegramSender{
		apiURL:  strings.TrimRight(apiURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (s *TelegramSender) Configured() bool {
	return s.token != ""
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

// Send delivers text to chatID, chunked, and returns the id of the first message.
func (s *TelegramSender) Send(ctx context.Context, chatID, text string) (int64, error) {
	if !s.Configured() {
		return 0, errors.New("telegram bot token not configured")
	}
	if chatID == "" {
		return 0, errors.New("no chat id")
	}

	var first int64
	for i, chunk := range ChunkMessage(text, MaxMessageChars) {
		if err := s.limiter.Wait(ctx); err != nil {
			return first, err
		}
		msg, err := s.sendOne(ctx, chatID, chunk)
		if err != nil {
			return first, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		if i == 0 {
			first = msg.MessageID
		}
	}
	return first, nil
}

func (s *TelegramSender) sendOne(ctx context.Context, chatID, text string) (*sentMessage, error) {
	body, _ := json.Marshal(map[string]string{"chat_id": chatID, "text": text})
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		OK          bool        `json:"ok"`
		Description string      `json:"description"`
		Result      sentMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("telegram returned %d", resp.StatusCode)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram error %d: %s", resp.StatusCode, out.Description)
	}
	return &out.Result, nil
}

// ChatPublisher publishes announcements to the client's chat.
type ChatPublisher struct {
	sender *TelegramSender
}

func NewChatPublisher(sender *TelegramSender) *ChatPublisher {
	return &ChatPublisher{sender: sender}
}

func (p *ChatPublisher) Publish(ctx context.Context, target Target) Result {
	if target.Client == nil || target.Client.ChatID == "" {
		return Failure("no chat configured for client")
	}

	chatID := target.Client.ChatID
	id, err := p.sender.Send(ctx, chatID, target.Derivative.Content)
	if err != nil {
		return Failure("telegram send failed: %v", err)
	}

	var url string
	if strings.HasPrefix(chatID, "@") && id > 0 {
		url = fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(chatID, "@"), id)
	}
	return Result{Success: true, PublishedURL: url, Message: "announcement sent"}
}
