package models

// WorkloadTier, günün doluluk seviyesi.
type WorkloadTier string

const (
	TierEmpty     WorkloadTier = "bos"   // Boş
	TierAvailable WorkloadTier = "uygun" // Uygun
	TierBusy      WorkloadTier = "yogun" // Yoğun
	TierFull      WorkloadTier = "dolu"  // Dolu
)

// DailyLoad, repository'nin bir gün için topladığı ham iş yükü.
type DailyLoad struct {
	Date       string
	Score      int
	OrderCount int
}

// CalendarDay, takvimde tek bir gün.
type CalendarDay struct {
	Date       string       `json:"date"`
	Weekday    int          `json:"weekday"` // 0 = Pazar
	Score      int          `json:"score"`
	Tier       WorkloadTier `json:"tier"`
	OrderCount int          `json:"order_count"`
	Remaining  int          `json:"remaining"` // dolu eşiğine kalan Puan, en az 0
	IsPast     bool         `json:"is_past"`
}

// CalendarMonth, bir ayın tüm günleri.
type CalendarMonth struct {
	Month         string        `json:"month"`
	BusyThreshold int           `json:"busy_threshold"`
	FullThreshold int           `json:"full_threshold"`
	Days          []CalendarDay `json:"days"`
}

// CalendarDayDetail, admin gün görünümü: günün özeti ve siparişleri.
type CalendarDayDetail struct {
	CalendarDay
	Orders []Order `json:"orders"`
}
