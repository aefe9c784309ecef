package bot

import (
	"errors"
	"log/slog"
	"time"

	"digistore/core/logger"
	"digistore/core/telegram/callbacks"
	tghelpers "digistore/core/telegram/helpers"
	"digistore/core/telegram/keyboard"
	"digistore/internal/domain"
	"digistore/internal/orders"

	tele "gopkg.in/telebot.v4"
)

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	sender := c.Sender()

	if err := a.store.UpsertUser(ctx, domain.User{
		ID:        sender.ID,
		Username:  sender.Username,
		FirstSeen: time.Now(),
	}); err != nil {
		return err
	}

	products, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}

	buttons := make([]keyboard.InlineBtn, 0, len(products))
	for _, p := range products {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   productButtonText(p),
			Unique: cbBuy,
			Data:   p.ID,
		})
	}
	return tghelpers.SendMD(c, welcomeText(), keyboard.InlineButtonsNPerRow(buttons, 1))
}

func (a *App) handleBuy(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "buy")
	productID := callbacks.CallbackPayload(c)

	p, err := a.catalog.Get(ctx, productID)
	if errors.Is(err, domain.ErrUnknownProduct) {
		return tghelpers.SendMD(c, "❓ That product is no longer available. Send /start to see the catalog.")
	}
	if err != nil {
		return err
	}

	sess, err := a.checkout.Start(ctx, c.Sender().ID, p, p.MinQty)
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, paymentInstructionsText(sess, a.upiID))
}

// Handle consumes updates from a user with an open checkout. A photo is the
// payment proof; anything else gets a nudge toward the screenshot.
func (a *App) Handle(c tele.Context) error {
	if c.Message() == nil || c.Message().Photo == nil {
		return tghelpers.SendMD(c,
			"\U0001f4f8 I am waiting for your payment screenshot. Send the photo here, or /cancel to abandon the purchase.")
	}
	return a.handleProof(c)
}

func (a *App) handleProof(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "payment_proof")
	sender := c.Sender()

	sess, err := a.checkout.Active(ctx, sender.ID)
	if errors.Is(err, domain.ErrNoActiveCheckout) {
		return tghelpers.SendMD(c, "❓ No purchase in progress. Send /start to pick a product first.")
	}
	if err != nil {
		return err
	}

	proofID := c.Message().Photo.FileID
	o, err := a.orders.Create(ctx, orders.CreateRequest{
		UserID:      sender.ID,
		Username:    sender.Username,
		ProductID:   sess.ProductID,
		ProductName: sess.ProductName,
		Quantity:    sess.Quantity,
		TotalPrice:  sess.TotalPrice,
		ProofRef:    proofID,
	})
	if err != nil {
		// Session stays alive so the buyer can resend the screenshot
		// instead of paying for a checkout that went nowhere.
		return err
	}

	// Order is persisted, the session has served its purpose.
	_ = a.checkout.Cancel(ctx, sender.ID)

	a.forwardProofToAdmin(c, o)
	return tghelpers.SendMD(c, orderReceivedText(o))
}

// forwardProofToAdmin sends the screenshot and the order card with the
// approve/reject buttons. Delivery to the admin is best effort: the order is
// already recorded and shows up in /stats either way.
func (a *App) forwardProofToAdmin(c tele.Context, o domain.Order) {
	adminID := a.cfg.Telegram.AdminID
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Approve", Unique: cbApprove, Data: o.ID},
		{Text: "❌ Reject", Unique: cbReject, Data: o.ID},
	})

	onFail := func(err error) {
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "order.admin_notify_failed",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}
	_ = tghelpers.SendPhotoToUser(c, adminID, o.ProofRef, adminOrderCard(o), onFail, markup)
}

func (a *App) handleCancel(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "cancel")
	if err := a.checkout.Cancel(ctx, c.Sender().ID); err != nil {
		return err
	}
	return tghelpers.SendMD(c, "\U0001f6ab Purchase cancelled. Send /start whenever you are ready.")
}

func (a *App) handleUnknownText(c tele.Context) error {
	return tghelpers.SendMD(c, "❓ I did not understand that. Send /start to browse the store.")
}

func (a *App) handleUnexpectedPhoto(c tele.Context) error {
	return tghelpers.SendMD(c,
		"❓ I was not expecting a photo. Pick a product with /start first, then send the payment screenshot.")
}

func (a *App) handleStaleCallback(c tele.Context) error {
	return tghelpers.SendMD(c, "❓ That button has expired. Send /start to begin again.")
}
