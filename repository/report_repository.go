package repository

import (
	"context"

	"github.com/akinalp/pastane/models"
)

// ReportRepository, raporlar ve vitrin sayaçları için salt okunur sorgular.
// Toplamalar decimal hassasiyetiyle service katmanında yapılır; burada
// sadece satırlar çekilir.
type ReportRepository interface {
	SalesLines(ctx context.Context, from, to string) ([]models.SalesLine, error)
	PublicStats(ctx context.Context) (*models.PublicStats, error)
}
