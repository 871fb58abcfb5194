package gmailclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// EmailInterval is the minimum gap between two sends, to respect Gmail API rate limits
const EmailInterval = 3 * time.Second

// SendEmail sends a plain-text email, waiting out the throttle interval first
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if err := c.waitForSlot(ctx); err != nil {
		return err
	}

	gmailMessage := &gmail.Message{
		Raw: encodeMessage(buildMessage(c.sender, to, subject, body)),
	}

	if _, err := c.service.Users.Messages.Send("me", gmailMessage).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	c.lastSendTime = time.Now()
	return nil
}

// waitForSlot blocks until the interval since the last send has passed or ctx is done
func (c *Client) waitForSlot(ctx context.Context) error {
	if c.lastSendTime.IsZero() {
		return nil
	}

	wait := c.interval - time.Since(c.lastSendTime)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildMessage renders an RFC 2822 message; the subject is MIME-encoded when it is not ASCII
func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

func encodeMessage(message string) string {
	return base64.URLEncoding.EncodeToString([]byte(message))
}
