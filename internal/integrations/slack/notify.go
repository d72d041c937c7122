// Package slack posts digest summaries to the configured report channel.
package slack

import (
	"log"

	"github.com/slack-go/slack"
)

// Notifier wraps the Slack client for digest delivery.
type Notifier struct {
	api     *slack.Client
	channel string
}

// NewNotifier builds a notifier, or nil when Slack is not configured so
// callers can skip delivery with a nil check.
func NewNotifier(botToken, channelID string) *Notifier {
	if botToken == "" || channelID == "" {
		return nil
	}
	return &Notifier{api: slack.New(botToken), channel: channelID}
}

// PostDigest posts the digest markdown to the report channel.
func (n *Notifier) PostDigest(digest string) error {
	_, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(digest, false))
	if err != nil {
		log.Printf("slack post error: %v", err)
	}
	return err
}
