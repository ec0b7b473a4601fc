package services

import (
	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/models"
)

// Workload, günlük Puan toplamını doluluk seviyesine çevirir.
//
//	0              → Boş
//	1 .. Busy-1    → Uygun
//	Busy .. Full-1 → Yoğun
//	Full ve üstü   → Dolu
type Workload struct {
	Busy int
	Full int
}

// NewWorkload, config eşiklerinden Workload oluşturur.
func NewWorkload(cfg config.WorkloadConfig) Workload {
	return Workload{Busy: cfg.BusyThreshold, Full: cfg.FullThreshold}
}

// Tier, skorun seviyesi.
func (w Workload) Tier(score int) models.WorkloadTier {
	switch {
	case score <= 0:
		return models.TierEmpty
	case score < w.Busy:
		return models.TierAvailable
	case score < w.Full:
		return models.TierBusy
	default:
		return models.TierFull
	}
}

// Remaining, dolu eşiğine kalan Puan (en az 0).
func (w Workload) Remaining(score int) int {
	if r := w.Full - score; r > 0 {
		return r
	}
	return 0
}

// Fits, günün mevcut skoruna extra eklenince eşik aşılmıyor mu.
// Eşiğe tam ulaşmak kabul edilir.
func (w Workload) Fits(score, extra int) bool {
	return score+extra <= w.Full
}
