package notifiers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/kova98/yars/models"
)

const (
	digestItemLimit  = 10
	digestBodyLength = 300
)

//go:embed templates/new_posts.html
var emailTemplates embed.FS

var digestTemplates = template.Must(template.New("emails").ParseFS(emailTemplates, "templates/*.html"))

var ErrNoPosts = errors.New("no posts to send")

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	smtpHost string
	smtpPort string
	from     string
	password string
	sendMail sendMailFunc
}

func NewMailer(smtpHost, smtpPort, from, password string) *Mailer {
	return &Mailer{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		from:     from,
		password: password,
		sendMail: smtp.SendMail,
	}
}

// NewPostsDigestEmail lists the first posts of a watch run. Bodies are cut
// to 300 characters and the rest of the posts are only counted.
func (h *Mailer) NewPostsDigestEmail(email, target string, posts []models.DigestItem) (models.Email, error) {
	if len(posts) == 0 {
		return models.Email{}, ErrNoPosts
	}

	type digestItem struct {
		models.DigestItem
		Lines []string
	}

	items := make([]digestItem, 0, min(len(posts), digestItemLimit))
	for _, post := range posts[:min(len(posts), digestItemLimit)] {
		post.Title = strings.TrimSpace(post.Title)
		body := truncate(strings.TrimSpace(post.Body), digestBodyLength)

		var lines []string
		if body != "" {
			lines = strings.Split(body, "\n")
		}
		items = append(items, digestItem{DigestItem: post, Lines: lines})
	}

	var buf bytes.Buffer
	tmplData := struct {
		Target    string
		Items     []digestItem
		Total     int
		Remaining int
	}{
		Target:    target,
		Items:     items,
		Total:     len(posts),
		Remaining: len(posts) - len(items),
	}
	if err := digestTemplates.ExecuteTemplate(&buf, "new_posts.html", tmplData); err != nil {
		return models.Email{}, fmt.Errorf("render new posts template: %w", err)
	}

	return models.Email{
		To:      email,
		Subject: fmt.Sprintf("yars: %d new posts in %s", len(posts), target),
		Body:    buf.String(),
	}, nil
}

func (h *Mailer) Send(mail models.Email) error {
	message := fmt.Sprintf(`From: yars <%s>
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, h.from, mail.To, mail.Subject, mail.Body)

	auth := smtp.PlainAuth("", h.from, h.password, h.smtpHost)
	addr := fmt.Sprintf("%s:%s", h.smtpHost, h.smtpPort)
	err := h.sendMail(addr, auth, h.from, []string{mail.To}, []byte(message))
	if err != nil {
		slog.Error("Failed to send email", "error", err)
		return err
	}

	slog.Info("email sent", "recipient", mail.To, "subject", mail.Subject)
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
