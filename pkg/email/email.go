// Package email, pastane sahibine ve müşterilere giden e-postalar.
//
// Service'ler Sender interface'ine bağımlıdır. Production'da Resend API
// kullanılır; API anahtarı yoksa NewNopSender ile gönderim sadece loglanır.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/pkg/logger"
)

// Sender, uygulamanın gönderdiği e-posta türleri.
type Sender interface {
	// SendContactNotification, iletişim formundan gelen mesajı sahibine iletir.
	SendContactNotification(ctx context.Context, n ContactNotice) error
	// SendGiftEarned, müşteriye hediye kazandığını bildirir.
	SendGiftEarned(ctx context.Context, n GiftNotice) error
	// SendDailyDigest, ertesi günün iş yükü özetini sahibine gönderir.
	SendDailyDigest(ctx context.Context, d Digest) error
}

// ContactNotice, iletişim mesajı bildirimi.
type ContactNotice struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Body    string
}

// GiftNotice, hediye kazanım bildirimi.
type GiftNotice struct {
	ToEmail        string
	CustomerName   string
	AvailableGifts int
	GiftEvery      int
}

// DigestOrder, günlük özetteki tek sipariş satırı.
type DigestOrder struct {
	Number   string
	Customer string
	Category string
	Quantity int
	Status   string
	IsGift   bool
}

// Digest, bir günün iş yükü özeti.
type Digest struct {
	Date   string
	Score  int
	Tier   string
	Orders []DigestOrder
}

type resendSender struct {
	client   *resend.Client
	from     string
	notifyTo string
	appURL   string
}

// NewResendSender, Resend API ile gönderen Sender.
// notifyTo, sahibe giden bildirimlerin adresidir.
func NewResendSender(apiKey, from, notifyTo, appURL string) Sender {
	return &resendSender{
		client:   resend.NewClient(apiKey),
		from:     from,
		notifyTo: notifyTo,
		appURL:   appURL,
	}
}

func (s *resendSender) send(ctx context.Context, to, subject, html string) error {
	req := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Pastane <%s>", s.from),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("failed to send email %q: %w", subject, err)
	}
	return nil
}

func (s *resendSender) SendContactNotification(ctx context.Context, n ContactNotice) error {
	if s.notifyTo == "" {
		return nil
	}
	html, err := render(contactTmpl, n)
	if err != nil {
		return err
	}
	subject := "Yeni iletişim mesajı"
	if n.Subject != "" {
		subject += ": " + n.Subject
	}
	return s.send(ctx, s.notifyTo, subject, html)
}

func (s *resendSender) SendGiftEarned(ctx context.Context, n GiftNotice) error {
	if n.ToEmail == "" {
		return nil
	}
	html, err := render(giftTmpl, struct {
		GiftNotice
		LoyaltyURL string
	}{n, s.appURL + "/sadakat"})
	if err != nil {
		return err
	}
	return s.send(ctx, n.ToEmail, "Hediyeniz hazır!", html)
}

func (s *resendSender) SendDailyDigest(ctx context.Context, d Digest) error {
	if s.notifyTo == "" {
		return nil
	}
	html, err := render(digestTmpl, d)
	if err != nil {
		return err
	}
	return s.send(ctx, s.notifyTo, fmt.Sprintf("%s iş yükü: %d puan", d.Date, d.Score), html)
}

type nopSender struct {
	log *zap.Logger
}

// NewNopSender, hiçbir şey göndermeyen Sender. E-posta yapılandırılmamışsa kullanılır.
func NewNopSender() Sender {
	return &nopSender{log: logger.Named("email")}
}

func (s *nopSender) SendContactNotification(_ context.Context, n ContactNotice) error {
	s.log.Debug("email disabled, contact notification skipped", zap.String("from", n.Email))
	return nil
}

func (s *nopSender) SendGiftEarned(_ context.Context, n GiftNotice) error {
	s.log.Debug("email disabled, gift notification skipped", zap.String("customer", n.CustomerName))
	return nil
}

func (s *nopSender) SendDailyDigest(_ context.Context, d Digest) error {
	s.log.Debug("email disabled, daily digest skipped", zap.String("date", d.Date))
	return nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

const layoutStart = `<!DOCTYPE html><html><head><meta charset="utf-8"></head>
<body style="margin:0;padding:24px;background:#fdf6ec;font-family:Georgia,serif;color:#4a3428;">
<div style="max-width:520px;margin:0 auto;background:#fff;border-radius:8px;padding:32px;">`

const layoutEnd = `</div></body></html>`

var contactTmpl = template.Must(template.New("contact").Parse(layoutStart + `
<h2 style="margin-top:0;">Yeni iletişim mesajı</h2>
<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt;{{if .Phone}} · {{.Phone}}{{end}}</p>
{{if .Subject}}<p><em>{{.Subject}}</em></p>{{end}}
<p style="white-space:pre-wrap;">{{.Body}}</p>
` + layoutEnd))

var giftTmpl = template.Must(template.New("gift").Parse(layoutStart + `
<h2 style="margin-top:0;">Tebrikler {{.CustomerName}}!</h2>
<p>{{.GiftEvery}} siparişinizi tamamladınız ve bir hediye kazandınız.</p>
<p>Kullanılabilir hediye sayınız: <strong>{{.AvailableGifts}}</strong></p>
<p><a href="{{.LoyaltyURL}}" style="color:#b5651d;">Sadakat durumunuzu görüntüleyin</a></p>
` + layoutEnd))

var digestTmpl = template.Must(template.New("digest").Parse(layoutStart + `
<h2 style="margin-top:0;">{{.Date}} iş yükü</h2>
<p>Toplam puan: <strong>{{.Score}}</strong> ({{.Tier}})</p>
{{if .Orders}}<table width="100%" cellpadding="4" style="border-collapse:collapse;font-size:14px;">
<tr style="text-align:left;border-bottom:1px solid #e5d3b3;"><th>No</th><th>Müşteri</th><th>Kategori</th><th>Adet</th><th>Durum</th></tr>
{{range .Orders}}<tr><td>{{.Number}}</td><td>{{.Customer}}</td><td>{{.Category}}{{if .IsGift}} (hediye){{end}}</td><td>{{.Quantity}}</td><td>{{.Status}}</td></tr>
{{end}}</table>{{else}}<p>Sipariş yok.</p>{{end}}
` + layoutEnd))
