package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_EscapesUserContent(t *testing.T) {
	html, err := render(contactTmpl, ContactNotice{
		Name:  "Ayşe <script>",
		Email: "ayse@example.com",
		Body:  "Merhaba, <b>pasta</b> siparişi",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Ayşe &lt;script&gt;")
	assert.NotContains(t, html, "<b>pasta</b>")
}

func TestRender_Digest(t *testing.T) {
	html, err := render(digestTmpl, Digest{
		Date:  "2026-05-02",
		Score: 42,
		Tier:  "yogun",
		Orders: []DigestOrder{
			{Number: "SP-260502-AB12", Customer: "Mehmet", Category: "Yaş Pasta", Quantity: 2, Status: "onaylandi", IsGift: true},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "SP-260502-AB12")
	assert.Contains(t, html, "(hediye)")

	empty, err := render(digestTmpl, Digest{Date: "2026-05-03"})
	require.NoError(t, err)
	assert.Contains(t, empty, "Sipariş yok.")
}

func TestNopSender(t *testing.T) {
	s := NewNopSender()
	ctx := context.Background()
	assert.NoError(t, s.SendContactNotification(ctx, ContactNotice{}))
	assert.NoError(t, s.SendGiftEarned(ctx, GiftNotice{}))
	assert.NoError(t, s.SendDailyDigest(ctx, Digest{}))
}
