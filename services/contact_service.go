package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/email"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

// ContactService, vitrindeki iletişim formu ve panel mesaj kutusu.
type ContactService interface {
	// Submit, formu doğrular, temizler ve spam puanlar. Spam olmayan mesaj
	// sahibine e-postayla ve panele canlı olarak iletilir.
	Submit(ctx context.Context, req *models.CreateContactMessageRequest, ip string) (*models.ContactMessage, error)
	List(ctx context.Context, filter models.ContactFilter) (*models.ContactMessageList, error)
	// Get, mesajı döner ve okundu işaretler.
	Get(ctx context.Context, id string) (*models.ContactMessage, error)
	MarkRead(ctx context.Context, id string, read bool) error
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (int, error)
}

type contactService struct {
	contactRepo repository.ContactRepository
	limiter     *ratelimit.IPLimiter
	mailer      email.Sender
	hub         ws.EventPublisher
	log         *zap.Logger
}

// NewContactService, limiter nil ise IP sınırı uygulanmaz.
func NewContactService(
	contactRepo repository.ContactRepository,
	limiter *ratelimit.IPLimiter,
	mailer email.Sender,
	hub ws.EventPublisher,
) ContactService {
	return &contactService{
		contactRepo: contactRepo,
		limiter:     limiter,
		mailer:      mailer,
		hub:         hub,
		log:         logger.Named("contact"),
	}
}

func (s *contactService) Submit(ctx context.Context, req *models.CreateContactMessageRequest, ip string) (*models.ContactMessage, error) {
	if s.limiter != nil && !s.limiter.Allow(ip) {
		metrics.RateLimited("contact")
		return nil, fmt.Errorf("%w: please wait before sending another message", pkg.ErrTooManyRequests)
	}

	req.Name = sanitizeLine(req.Name)
	req.Subject = sanitizeLine(req.Subject)
	req.Body = sanitizeBody(req.Body)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	msg := &models.ContactMessage{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Body:      req.Body,
		IPAddress: ip,
		// Honeypot alanını sadece botlar doldurur
		IsSpam: req.Website != "" || isSpam(req.Subject, req.Body),
	}
	if err := s.contactRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	metrics.ContactMessage(msg.IsSpam)
	if msg.IsSpam {
		s.log.Info("contact message flagged as spam", zap.String("id", msg.ID), zap.String("ip", ip))
		return msg, nil
	}

	s.hub.BroadcastToAll(ws.Event{Op: ws.OpMessageCreate, Data: msg})
	s.notify(msg)
	return msg, nil
}

// notify, e-postayı istekten bağımsız gönderir.
func (s *contactService) notify(msg *models.ContactMessage) {
	notice := email.ContactNotice{
		Name:    msg.Name,
		Email:   msg.Email,
		Phone:   msg.Phone,
		Subject: msg.Subject,
		Body:    msg.Body,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.SendContactNotification(ctx, notice); err != nil {
			s.log.Warn("failed to send contact notification", zap.String("id", msg.ID), zap.Error(err))
		}
	}()
}

func (s *contactService) List(ctx context.Context, filter models.ContactFilter) (*models.ContactMessageList, error) {
	messages, total, err := s.contactRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.contactRepo.CountUnread(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ContactMessageList{Messages: messages, Total: total, Unread: unread}, nil
}

func (s *contactService) Get(ctx context.Context, id string) (*models.ContactMessage, error) {
	msg, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.IsRead {
		if err := s.MarkRead(ctx, id, true); err != nil {
			return nil, err
		}
		msg.IsRead = true
	}
	return msg, nil
}

func (s *contactService) MarkRead(ctx context.Context, id string, read bool) error {
	if err := s.contactRepo.SetRead(ctx, id, read); err != nil {
		return err
	}
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpMessageUpdate, Data: map[string]any{"id": id, "is_read": read}})
	return nil
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpMessageDelete, Data: ws.IDData{ID: id}})
	return nil
}

func (s *contactService) UnreadCount(ctx context.Context) (int, error) {
	return s.contactRepo.CountUnread(ctx)
}
