package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender writes emails to disk instead of delivering them. Local
// development only.
type DevSender struct {
	dir string
}

// NewDevSender creates a Sender that drops each message into dir as an
// HTML body plus a JSON metadata sidecar.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	now := time.Now()
	name := msg.Tag
	if name == "" {
		name = msg.Subject
	}
	base := now.Format("2006_01_02_150405") + "_" + safeFilename(name)

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(msg.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	meta, err := json.MarshalIndent(map[string]string{
		"timestamp": now.Format(time.RFC3339),
		"to":        msg.To,
		"subject":   msg.Subject,
		"tag":       msg.Tag,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func safeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
