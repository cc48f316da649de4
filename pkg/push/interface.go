package push

import "context"

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
	SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) error
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error
}

type NotificationRequest struct {
	Token    string            `json:"token"`
	Tokens   []string          `json:"tokens,omitempty"`
	Topic    string            `json:"topic,omitempty"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Priority string            `json:"priority,omitempty"`
	IOS      *IOSConfig        `json:"ios,omitempty"`
	Android  *AndroidConfig    `json:"android,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

type IOSConfig struct {
	Sound            string            `json:"sound,omitempty"`
	Badge            int               `json:"badge,omitempty"`
	ContentAvailable bool              `json:"content_available,omitempty"`
	Category         string            `json:"category,omitempty"`
	CustomData       map[string]string `json:"custom_data,omitempty"`
}

type AndroidConfig struct {
	Priority    string            `json:"priority,omitempty"`
	Sound       string            `json:"sound,omitempty"`
	ChannelID   string            `json:"channel_id,omitempty"`
	ClickAction string            `json:"click_action,omitempty"`
	CustomData  map[string]string `json:"custom_data,omitempty"`
}
