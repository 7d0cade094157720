package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/goodjobs/shiftbot/internal/alert"
)

// mockSession records embed sends.
type mockSession struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
	err      error
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channels = append(m.channels, channelID)
	m.embeds = append(m.embeds, embed)
	return &discordgo.Message{}, m.err
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(AdapterOpts{ChannelID: "123"}); err == nil {
		t.Error("New without token should fail")
	}
	if _, err := New(AdapterOpts{BotToken: "tok"}); err == nil {
		t.Error("New without channel should fail")
	}
	if _, err := New(AdapterOpts{Session: &mockSession{}, ChannelID: "123"}); err != nil {
		t.Errorf("New with injected session: %v", err)
	}
}

func TestSend(t *testing.T) {
	sess := &mockSession{}
	a, err := New(AdapterOpts{Session: sess, ChannelID: "123"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	evt := alert.Event{Title: "webhook event failed", Body: "detail", Severity: alert.SeverityError}
	if err := a.Send(context.Background(), evt); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sess.channels) != 1 || sess.channels[0] != "123" {
		t.Errorf("sent to %v, want [123]", sess.channels)
	}
	if sess.embeds[0].Title != "webhook event failed" {
		t.Errorf("embed title = %q", sess.embeds[0].Title)
	}
	if sess.embeds[0].Color != 0xe01e5a {
		t.Errorf("embed color = %#x, want error color", sess.embeds[0].Color)
	}
}

func TestSend_SurfacesAPIErrors(t *testing.T) {
	sess := &mockSession{err: errors.New("missing access")}
	a, err := New(AdapterOpts{Session: sess, ChannelID: "123"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Send(context.Background(), alert.Event{Title: "t"}); err == nil {
		t.Error("Send should surface the API error")
	}
}
