package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "5321234567", want: "5321234567"},
		{in: "0532 123 45 67", want: "5321234567"},
		{in: "+90 (532) 123 45 67", want: "5321234567"},
		{in: "90-532-123-4567", want: "5321234567"},
		{in: "0212 555 00 11", want: "2125550011"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "532 123", wantErr: true},
		{in: "0032 123 45 67", wantErr: true},
		{in: "+1 555 123 45 67 8", wantErr: true},
		{in: "53212345٧", wantErr: true},
		{in: "٥٣٢١٢٣٤٥٦٧", wantErr: true},
		{in: "５３２１２３４５６７", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaskName(t *testing.T) {
	assert.Equal(t, "A*** Y*****", MaskName("Ayşe Yılmaz"))
	assert.Equal(t, "Ç****", MaskName("  Çağla  "))
	assert.Equal(t, "A K****", MaskName("A Kemal"))
	assert.Equal(t, "", MaskName(""))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Çikolatalı Tart":        "cikolatali-tart",
		"Yaş Pasta":              "yas-pasta",
		"İRMİK HELVASI":          "irmik-helvasi",
		"  Özel -- Ürün!  ":      "ozel-urun",
		"Butik Kurabiye (12'li)": "butik-kurabiye-12-li",
		"!!!":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestParseDateAndMonth(t *testing.T) {
	d, err := ParseDate(" 2030-05-10 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("10.05.2030")
	assert.EqualError(t, err, "date must be in YYYY-MM-DD format")

	m, err := ParseMonth("2030-05")
	require.NoError(t, err)
	assert.Equal(t, time.May, m.Month())
	assert.Equal(t, 1, m.Day())

	_, err = ParseMonth("2030-13")
	assert.Error(t, err)
}

func validOrder() *CreateOrderRequest {
	return &CreateOrderRequest{
		CustomerName:  " Ayşe Yılmaz ",
		CustomerPhone: "0532 123 45 67",
		CategoryID:    "cat-1",
		Quantity:      2,
		DeliveryDate:  "2030-05-10",
	}
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	req := validOrder()
	empty := "  "
	req.ProductID = &empty
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ayşe Yılmaz", req.CustomerName)
	assert.Equal(t, "5321234567", req.CustomerPhone)
	assert.Nil(t, req.ProductID)

	tests := []struct {
		name   string
		mutate func(*CreateOrderRequest)
		errMsg string
	}{
		{"short name", func(r *CreateOrderRequest) { r.CustomerName = "A" }, "customer name must be between 2 and 100 characters"},
		{"bad phone", func(r *CreateOrderRequest) { r.CustomerPhone = "12" }, "phone number must have 10 digits"},
		{"bad email", func(r *CreateOrderRequest) { r.CustomerEmail = "ayse@" }, "invalid email address"},
		{"no category", func(r *CreateOrderRequest) { r.CategoryID = "" }, "category_id is required"},
		{"zero quantity", func(r *CreateOrderRequest) { r.Quantity = 0 }, "quantity must be between 1 and 1000"},
		{"bad date", func(r *CreateOrderRequest) { r.DeliveryDate = "yarın" }, "date must be in YYYY-MM-DD format"},
		{"long note", func(r *CreateOrderRequest) { r.Note = strings.Repeat("x", 1001) }, "note must be at most 1000 characters"},
		{"negative price", func(r *CreateOrderRequest) {
			p := decimal.NewFromInt(-1)
			r.TotalPrice = &p
		}, "price cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOrder()
			tt.mutate(req)
			assert.EqualError(t, req.Validate(), tt.errMsg)
		})
	}
}

func TestUpdateOrderStatusRequest_Validate(t *testing.T) {
	req := &UpdateOrderStatusRequest{Status: " tamamlandi "}
	require.NoError(t, req.Validate())
	assert.Equal(t, OrderStatusCompleted, req.Status)

	req = &UpdateOrderStatusRequest{Status: "teslim"}
	assert.Error(t, req.Validate())
}

func TestOrderStatus_CountsTowardWorkload(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.Equal(t, s != OrderStatusCancelled, s.CountsTowardWorkload(), s)
	}
	assert.False(t, OrderStatus("bilinmiyor").CountsTowardWorkload())
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, validatePrice(decimal.Zero))
	assert.NoError(t, validatePrice(decimal.RequireFromString("45.50")))
	assert.NoError(t, validatePrice(decimal.RequireFromString("10.500")))
	assert.EqualError(t, validatePrice(decimal.RequireFromString("10.005")), "price can have at most 2 decimal places")
	assert.EqualError(t, validatePrice(decimal.NewFromInt(1_000_001)), "price is too large")
}

func TestCreateCategoryRequest_Validate(t *testing.T) {
	req := &CreateCategoryRequest{Name: "  Ekler ", WorkloadPoints: 2}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ekler", req.Name)

	assert.Error(t, (&CreateCategoryRequest{Name: "???"}).Validate())
	assert.Error(t, (&CreateCategoryRequest{Name: "Ekler", WorkloadPoints: -1}).Validate())

	points := 1001
	assert.Error(t, (&UpdateCategoryRequest{WorkloadPoints: &points}).Validate())
}

func TestCreateContactMessageRequest_Validate(t *testing.T) {
	req := &CreateContactMessageRequest{
		Name:  "Ayşe Yılmaz",
		Email: " ayse@example.com ",
		Phone: "+90 532 123 45 67",
		Body:  "Cumartesi için pasta siparişi vermek istiyorum.",
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ayse@example.com", req.Email)
	assert.Equal(t, "5321234567", req.Phone)

	req.Body = "kısa"
	assert.EqualError(t, req.Validate(), "message must be between 10 and 2000 characters")
}

func TestReportRange_Validate(t *testing.T) {
	now := time.Date(2030, 5, 31, 15, 0, 0, 0, time.UTC)

	r := &ReportRange{}
	require.NoError(t, r.Validate(now))
	assert.Equal(t, "2030-05-02", r.From)
	assert.Equal(t, "2030-05-31", r.To)

	r = &ReportRange{From: "2030-06-01", To: "2030-05-01"}
	assert.EqualError(t, r.Validate(now), "from must not be after to")

	r = &ReportRange{From: "2026-01-01", To: "2030-01-01"}
	assert.EqualError(t, r.Validate(now), "report range must not exceed two years")
}

func TestCustomer_AvailableGifts(t *testing.T) {
	c := &Customer{GiftsEarned: 3, GiftsUsed: 1}
	assert.Equal(t, 2, c.AvailableGifts())
}
