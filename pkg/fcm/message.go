package fcm

import (
	"net/url"

	"firebase.google.com/go/v4/messaging"
)

// MaxMulticastTokens is the gateway limit for one multicast request
const MaxMulticastTokens = 500

// Appearance holds the presentation settings shared by every notification
type Appearance struct {
	Icon               string
	Badge              string
	Tag                string
	Color              string
	RequireInteraction bool
}

// Content is one notification's text, data map and click target
type Content struct {
	Title    string
	Body     string
	Data     map[string]string
	ClickURL string
}

// BuildMessage assembles a single-token message with web, Android and APNs
// blocks that carry the same content.
func BuildMessage(token string, content Content, look Appearance) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  content.Body,
		},
		Data:    withClickData(content),
		Webpush: webpushConfig(content, look),
		Android: androidConfig(content, look),
		APNS:    apnsConfig(),
	}
}

// BuildMulticast is BuildMessage for up to MaxMulticastTokens tokens
func BuildMulticast(tokens []string, content Content, look Appearance) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  content.Body,
		},
		Data:    withClickData(content),
		Webpush: webpushConfig(content, look),
		Android: androidConfig(content, look),
		APNS:    apnsConfig(),
	}
}

// withClickData copies the caller's data and fills url and click_action
// unless the caller already set them.
func withClickData(content Content) map[string]string {
	data := make(map[string]string, len(content.Data)+2)
	for k, v := range content.Data {
		data[k] = v
	}
	if content.ClickURL != "" {
		if data["url"] == "" {
			data["url"] = content.ClickURL
		}
		if data["click_action"] == "" {
			data["click_action"] = content.ClickURL
		}
	}
	return data
}

func webpushConfig(content Content, look Appearance) *messaging.WebpushConfig {
	cfg := &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title:              content.Title,
			Body:               content.Body,
			Icon:               look.Icon,
			Badge:              look.Badge,
			Tag:                look.Tag,
			RequireInteraction: look.RequireInteraction,
			Actions: []*messaging.WebpushNotificationAction{
				{Action: "open", Title: "Open App"},
				{Action: "close", Title: "Close"},
			},
		},
	}
	// The gateway only accepts absolute https links here.
	if isHTTPS(content.ClickURL) {
		cfg.FCMOptions = &messaging.WebpushFCMOptions{Link: content.ClickURL}
	}
	return cfg
}

func androidConfig(content Content, look Appearance) *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Icon:        look.Icon,
			Color:       look.Color,
			Tag:         look.Tag,
			ClickAction: content.ClickURL,
		},
	}
}

func apnsConfig() *messaging.APNSConfig {
	badge := 1
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound: "default",
				Badge: &badge,
			},
		},
	}
}

func isHTTPS(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == "https" && u.Host != ""
}
