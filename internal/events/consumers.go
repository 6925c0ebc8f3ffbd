package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// MissionForwarder pushes progress signals to the community's mission
// service. Failures are logged and forgotten.
type MissionForwarder struct {
	URL    string
	Client *http.Client
}

func NewMissionForwarder(url string) *MissionForwarder {
	return &MissionForwarder{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *MissionForwarder) Consume(ev Event) {
	if f.URL == "" {
		slog.Info("mission progress", "type", ev.Type, "user_id", ev.UserID)
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal mission event", "error", err)
		return
	}

	resp, err := f.Client.Post(f.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Warn("mission progress delivery failed", "type", ev.Type, "error", err)
		return
	}
	resp.Body.Close()
}

// DiscordAnnouncer posts match outcomes to a Discord webhook.
type DiscordAnnouncer struct {
	WebhookURL string
	Client     *http.Client
}

func NewDiscordAnnouncer(webhookURL string) *DiscordAnnouncer {
	return &DiscordAnnouncer{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (a *DiscordAnnouncer) Consume(ev Event) {
	if a.WebhookURL == "" || ev.Type != MatchWin {
		return
	}

	payload := map[string]string{
		"content": fmt.Sprintf("<@%s> just took a match win! GG.", ev.UserID),
	}
	body, _ := json.Marshal(payload)

	resp, err := a.Client.Post(a.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Warn("discord announcement failed", "error", err)
		return
	}
	resp.Body.Close()
}
