package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"digistore/internal/domain"
)

func TestRupees(t *testing.T) {
	assert.Equal(t, "₹100", Rupees(10000))
	assert.Equal(t, "₹30", Rupees(3000))
	assert.Equal(t, "₹0", Rupees(0))
}

func TestProductButtonText(t *testing.T) {
	single := domain.Product{ID: "flipkart", Name: "Flipkart ₹100 Voucher", Price: 10000, MinQty: 1}
	assert.Equal(t, "Flipkart ₹100 Voucher — ₹100", productButtonText(single))

	bulk := domain.Product{ID: "shein2k", Name: "Shein ₹2000 Account", Price: 3000, MinQty: 3}
	assert.Contains(t, productButtonText(bulk), "(min 3)")
}

func TestPaymentInstructionsText(t *testing.T) {
	sess := domain.Session{
		ProductID:   "shein4k",
		ProductName: "Shein ₹4000 Account",
		Quantity:    2,
		TotalPrice:  10000,
		StartedAt:   time.Now(),
	}
	text := paymentInstructionsText(sess, "store@upi")
	assert.Contains(t, text, "`store@upi`")
	assert.Contains(t, text, "₹100")
	assert.Contains(t, text, "/cancel")
}

func TestAdminOrderCard(t *testing.T) {
	o := domain.Order{
		ID:          "ord-1",
		UserID:      42,
		Username:    "buyer",
		ProductName: "Flipkart ₹100 Voucher",
		Quantity:    2,
		TotalPrice:  20000,
		Status:      domain.StatusPending,
	}
	card := adminOrderCard(o)
	assert.Contains(t, card, "`ord-1`")
	assert.Contains(t, card, "@buyer")
	assert.Contains(t, card, "₹200")

	o.Username = ""
	assert.Contains(t, adminOrderCard(o), "user 42")
}

func TestDeliveryTextListsAllCodes(t *testing.T) {
	d := domain.Delivery{
		Order: domain.Order{ProductName: "Google Play ₹100 Card", Quantity: 2},
		Codes: []string{"CODE-A", "CODE-B"},
	}
	text := deliveryText(d)
	assert.Contains(t, text, "`CODE-A`")
	assert.Contains(t, text, "`CODE-B`")
}

func TestParseCodes(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, parseCodes([]string{"A", "B", "C"}))
	assert.Equal(t, []string{"A", "B", "C"}, parseCodes([]string{"A,B,C"}))
	assert.Equal(t, []string{"A", "B", "C"}, parseCodes([]string{"A,B", "C"}))
	assert.Empty(t, parseCodes([]string{",", ""}))
}

func TestBroadcastRecipientsSkipAdmin(t *testing.T) {
	users := []domain.User{{ID: 1}, {ID: 100}, {ID: 2}}

	got := broadcastRecipients(users, 100)
	assert.Equal(t, []int64{1, 2}, got)

	// Admin not in the user list, everyone receives.
	got = broadcastRecipients(users, 999)
	assert.Len(t, got, 3)
}

func TestStatsText(t *testing.T) {
	st := domain.Stats{
		Users:    5,
		Pending:  1,
		Approved: 2,
		Rejected: 1,
		Revenue:  30000,
		Products: []domain.ProductStat{
			{ProductID: "flipkart", Name: "Flipkart ₹100 Voucher", Remaining: 7},
		},
	}
	text := statsText(st)
	assert.Contains(t, text, "Users: 5")
	assert.Contains(t, text, "1 pending / 2 approved / 1 rejected")
	assert.Contains(t, text, "₹300")
	assert.Contains(t, text, "(`flipkart`): 7")
}
