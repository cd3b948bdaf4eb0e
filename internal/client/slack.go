// 보안 이벤트를 Slack 채널로 전송하는 클라이언트
//
// 환경변수:
//   - SLACK_BOT_TOKEN: Slack Bot Token (xoxb-...)
//   - SLACK_CHANNEL_ID: Slack 채널 ID (C...)
//
// 둘 중 하나라도 비어 있으면 알림은 비활성화된다.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/config"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// SlackNotifier(보안 알림 전송) 구조체 정의
type SlackNotifier struct {
	botToken   string
	channelID  string
	endpoint   string
	httpClient *http.Client
}

// SlackMessage(메시지 내용) 구조체 정의
type SlackMessage struct {
	Channel     string            `json:"channel"`
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment(메시지 포맷) 구조체 정의
type SlackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Footer string       `json:"footer,omitempty"`
	Ts     int64        `json:"ts,omitempty"`
	Fields []SlackField `json:"fields,omitempty"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

func NewSlackNotifier(cfg config.NotifyConfig) *SlackNotifier {
	return &SlackNotifier{
		botToken:  cfg.SlackBotToken,
		channelID: cfg.SlackChannelID,
		endpoint:  slackPostMessageURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Bot Token과 Channel ID가 모두 설정되어 있는지 체크
func (c *SlackNotifier) IsConfigured() bool {
	return c != nil && c.botToken != "" && c.channelID != ""
}

// 폐기된 refresh token 재사용 감지 알림
func (c *SlackNotifier) NotifyTokenReuse(ctx context.Context, userID string, at time.Time) error {
	if !c.IsConfigured() {
		return nil
	}

	msg := SlackMessage{
		Channel: c.channelID,
		Attachments: []SlackAttachment{
			{
				Color: "#dc3545",
				Title: "Refresh token reuse detected",
				Text:  "A refresh token that is no longer current was presented. The request was rejected.",
				Fields: []SlackField{
					{Title: "User", Value: userID, Short: true},
					{Title: "Detected at", Value: at.UTC().Format(time.RFC3339), Short: true},
				},
				Footer: "vidtube session manager",
				Ts:     at.Unix(),
			},
		},
	}

	_, err := c.send(ctx, msg)
	return err
}

// Slack API 호출
func (c *SlackNotifier) send(ctx context.Context, msg SlackMessage) (*SlackResponse, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var slackResp SlackResponse
	if err := json.Unmarshal(body, &slackResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !slackResp.OK {
		return nil, fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return &slackResp, nil
}
