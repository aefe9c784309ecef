package bot

import (
	"fmt"
	"strings"

	"digistore/core/telegram/format"
	"digistore/internal/domain"
)

// Rupees renders a minor-unit amount as whole rupees. Prices in the catalog
// are multiples of one rupee, so no decimal part is shown.
func Rupees(minor int64) string {
	return fmt.Sprintf("₹%d", minor/100)
}

func welcomeText() string {
	return "\U0001f44b *Welcome to the store!*\n\n" +
		"Pick a product below to see payment instructions.\n" +
		"After paying, send the payment screenshot here and the admin will verify it."
}

func productButtonText(p domain.Product) string {
	label := fmt.Sprintf("%s — %s", p.Name, Rupees(p.Price))
	if p.MinQty > 1 {
		label += fmt.Sprintf(" (min %d)", p.MinQty)
	}
	return label
}

func paymentInstructionsText(sess domain.Session, upiID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\U0001f6d2 *%s* × %d\n", format.EscapeMarkdown(sess.ProductName), sess.Quantity)
	fmt.Fprintf(&b, "Total: *%s*\n\n", Rupees(sess.TotalPrice))
	fmt.Fprintf(&b, "\U0001f4b3 Pay to UPI ID: `%s`\n\n", upiID)
	b.WriteString("\U0001f4f8 After paying, send the payment screenshot here.\n")
	b.WriteString("Send /cancel to abandon this purchase.")
	return b.String()
}

func orderReceivedText(o domain.Order) string {
	return fmt.Sprintf(
		"✅ Screenshot received!\n\nOrder `%s` is now *pending verification*. "+
			"You will get your codes as soon as the admin approves the payment.", o.ID)
}

func adminOrderCard(o domain.Order) string {
	var b strings.Builder
	b.WriteString("\U0001f514 *New payment proof*\n\n")
	fmt.Fprintf(&b, "Order: `%s`\n", o.ID)
	fmt.Fprintf(&b, "User: [%s](tg://user?id=%d) (`%d`)\n", userLabel(o), o.UserID, o.UserID)
	fmt.Fprintf(&b, "Product: %s × %d\n", format.EscapeMarkdown(o.ProductName), o.Quantity)
	fmt.Fprintf(&b, "Total: *%s*", Rupees(o.TotalPrice))
	return b.String()
}

func userLabel(o domain.Order) string {
	if o.Username != "" {
		return "@" + o.Username
	}
	return fmt.Sprintf("user %d", o.UserID)
}

func deliveryText(d domain.Delivery) string {
	var b strings.Builder
	b.WriteString("\U0001f389 *Payment approved!*\n\n")
	fmt.Fprintf(&b, "%s × %d\n\nYour codes:\n", format.EscapeMarkdown(d.Order.ProductName), d.Order.Quantity)
	for _, code := range d.Codes {
		fmt.Fprintf(&b, "`%s`\n", code)
	}
	b.WriteString("\nThank you for your purchase!")
	return b.String()
}

func rejectionText(o domain.Order) string {
	return fmt.Sprintf(
		"❌ *Payment rejected*\n\nOrder `%s` was not approved. "+
			"If you believe this is a mistake, contact the admin.", o.ID)
}

func statsText(st domain.Stats) string {
	var b strings.Builder
	b.WriteString("\U0001f4ca *Store statistics*\n\n")
	fmt.Fprintf(&b, "Users: %d\n", st.Users)
	fmt.Fprintf(&b, "Orders: %d pending / %d approved / %d rejected\n", st.Pending, st.Approved, st.Rejected)
	fmt.Fprintf(&b, "Revenue: *%s*\n\n", Rupees(st.Revenue))
	b.WriteString("*Stock remaining*\n")
	for _, p := range st.Products {
		fmt.Fprintf(&b, "%s (`%s`): %d\n", format.EscapeMarkdown(p.Name), p.ProductID, p.Remaining)
	}
	return b.String()
}
