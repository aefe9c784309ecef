package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"digistore/core/logger"
	"digistore/core/telegram/callbacks"
	"digistore/core/telegram/format"
	tghelpers "digistore/core/telegram/helpers"
	"digistore/core/telegram/middleware"
	"digistore/internal/domain"

	tele "gopkg.in/telebot.v4"
)

// Callbacks bypass the command admin gate, so the verdict handlers check the
// sender themselves and answer a plain denial instead of staying silent.
func (a *App) requireAdminCallback(c tele.Context) bool {
	if middleware.IsAdmin(c, a.cfg.Telegram.AdminID) {
		return true
	}
	_ = tghelpers.SendText(c, "This action is for the admin only.")
	return false
}

func (a *App) handleApprove(c tele.Context) error {
	if !a.requireAdminCallback(c) {
		return nil
	}
	ctx := tghelpers.WithHandler(c, "approve")
	orderID := callbacks.CallbackPayload(c)

	d, err := a.orders.Approve(ctx, orderID)
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return tghelpers.SendMD(c, fmt.Sprintf("⚠️ Order `%s` was already processed.", orderID))
	case errors.Is(err, domain.ErrInsufficientStock):
		return tghelpers.SendMD(c, fmt.Sprintf(
			"⚠️ Not enough stock to fulfil order `%s`. It stays pending; restock with /addstock and approve again.",
			orderID))
	case errors.Is(err, domain.ErrOrderNotFound):
		return tghelpers.SendMD(c, fmt.Sprintf("❓ Order `%s` not found.", orderID))
	case err != nil:
		return err
	}

	a.markVerdict(c, d.Order, "✅ *APPROVED*")
	a.deliverCodes(c, d)
	return tghelpers.SendMD(c, fmt.Sprintf("✅ Order `%s` approved, %d code(s) sent to %s.",
		d.Order.ID, len(d.Codes), userLabel(d.Order)))
}

func (a *App) handleReject(c tele.Context) error {
	if !a.requireAdminCallback(c) {
		return nil
	}
	ctx := tghelpers.WithHandler(c, "reject")
	orderID := callbacks.CallbackPayload(c)

	o, err := a.orders.Reject(ctx, orderID)
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return tghelpers.SendMD(c, fmt.Sprintf("⚠️ Order `%s` was already processed.", orderID))
	case errors.Is(err, domain.ErrOrderNotFound):
		return tghelpers.SendMD(c, fmt.Sprintf("❓ Order `%s` not found.", orderID))
	case err != nil:
		return err
	}

	a.markVerdict(c, o, "❌ *REJECTED*")
	a.notifyUser(c, o.UserID, rejectionText(o), o.ID)
	return tghelpers.SendMD(c, fmt.Sprintf("❌ Order `%s` rejected, user notified.", o.ID))
}

// markVerdict rewrites the proof caption so the admin chat shows the outcome
// and the buttons disappear. Editing an old message can fail; the verdict is
// already durable, so failures are only logged.
func (a *App) markVerdict(c tele.Context, o domain.Order, verdict string) {
	msg := c.Message()
	if msg == nil {
		return
	}
	caption := adminOrderCard(o) + "\n\n" + verdict
	if _, err := c.Bot().EditCaption(msg, caption, &tele.SendOptions{ParseMode: tele.ModeMarkdown}); err != nil {
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "order.caption_edit_failed",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (a *App) deliverCodes(c tele.Context, d domain.Delivery) {
	a.notifyUser(c, d.Order.UserID, deliveryText(d), d.Order.ID)
}

// notifyUser sends asynchronously; when Telegram refuses (user blocked the
// bot, for instance) the admin gets a warning with the order id so the codes
// can be passed on manually.
func (a *App) notifyUser(c tele.Context, userID int64, text, orderID string) {
	onFail := func(err error) {
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "order.user_notify_failed",
			slog.String("order_id", orderID),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		_ = tghelpers.SendToUser(c, a.cfg.Telegram.AdminID, fmt.Sprintf(
			"⚠️ Could not message user `%d` about order `%s`: %s",
			userID, orderID, err.Error()), nil)
	}
	_ = tghelpers.SendToUser(c, userID, text, onFail)
}

// /addstock <product_id> <code> [code ...]
// Codes may be separated by spaces, commas or both.
func (a *App) handleAddStock(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "addstock")
	args := c.Args()
	if len(args) < 2 {
		return tghelpers.SendMD(c, "Usage: `/addstock <product_id> <code> [code ...]`")
	}

	productID := args[0]
	codes := parseCodes(args[1:])
	if len(codes) == 0 {
		return tghelpers.SendMD(c, "Usage: `/addstock <product_id> <code> [code ...]`")
	}
	remaining, err := a.catalog.AddStock(ctx, productID, codes)
	if errors.Is(err, domain.ErrUnknownProduct) {
		return tghelpers.SendMD(c, fmt.Sprintf("❓ Unknown product `%s`.", productID))
	}
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, fmt.Sprintf("\U0001f4e6 Added %d code(s) to `%s`, %d in stock.",
		len(codes), productID, remaining))
}

// /sendproduct <user_id> <product_id> [qty]
func (a *App) handleSendProduct(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "sendproduct")
	args := c.Args()
	if len(args) < 2 {
		return tghelpers.SendMD(c, "Usage: `/sendproduct <user_id> <product_id> [qty]`")
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendMD(c, fmt.Sprintf("❓ `%s` is not a user id.", args[0]))
	}
	productID := args[1]
	qty := 1
	if len(args) > 2 {
		qty, err = strconv.Atoi(args[2])
		if err != nil || qty <= 0 {
			return tghelpers.SendMD(c, fmt.Sprintf("❓ `%s` is not a valid quantity.", args[2]))
		}
	}

	p, err := a.catalog.Get(ctx, productID)
	if errors.Is(err, domain.ErrUnknownProduct) {
		return tghelpers.SendMD(c, fmt.Sprintf("❓ Unknown product `%s`.", productID))
	}
	if err != nil {
		return err
	}

	codes, err := a.catalog.TakeStock(ctx, productID, qty)
	if errors.Is(err, domain.ErrInsufficientStock) {
		return tghelpers.SendMD(c, fmt.Sprintf("⚠️ Not enough `%s` in stock.", productID))
	}
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\U0001f381 *%s* × %d from the admin:\n\n", format.EscapeMarkdown(p.Name), len(codes))
	for _, code := range codes {
		fmt.Fprintf(&b, "`%s`\n", code)
	}
	a.notifyUser(c, userID, b.String(), "manual")
	return tghelpers.SendMD(c, fmt.Sprintf("\U0001f4e4 Sent %d `%s` code(s) to user `%d`.",
		len(codes), productID, userID))
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "stats")
	st, err := a.orders.Stats(ctx)
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, statsText(st))
}

// parseCodes flattens command arguments into codes, accepting space and
// comma separators interchangeably.
func parseCodes(args []string) []string {
	var codes []string
	for _, arg := range args {
		for _, code := range strings.Split(arg, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}
	return codes
}

// /broadcast <text>
// broadcastRecipients filters the admin out of the user list. The reported
// count matches the sends actually queued.
func broadcastRecipients(users []domain.User, adminID int64) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		if u.ID == adminID {
			continue
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func (a *App) handleBroadcast(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "broadcast")
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return tghelpers.SendMD(c, "Usage: `/broadcast <message>`")
	}

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	recipients := broadcastRecipients(users, a.cfg.Telegram.AdminID)
	for _, id := range recipients {
		_ = tghelpers.SendToUser(c, id, text, nil)
	}
	return tghelpers.SendMD(c, fmt.Sprintf("\U0001f4e3 Broadcast queued for %d user(s).", len(recipients)))
}
