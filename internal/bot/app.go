// Package bot wires the storefront flows onto the Telegram surface.
package bot

import (
	"context"

	coreconfig "digistore/core/config"
	tg "digistore/core/telegram"
	"digistore/core/telegram/commands"
	tghelpers "digistore/core/telegram/helpers"
	"digistore/core/telegram/middleware"
	"digistore/core/telegram/router"
	"digistore/internal/catalog"
	"digistore/internal/checkout"
	"digistore/internal/orders"
	"digistore/internal/storage"

	tele "gopkg.in/telebot.v4"
)

// App composes the storefront services behind the Telegram handlers.
type App struct {
	cfg      *coreconfig.Config
	upiID    string
	catalog  *catalog.Service
	orders   *orders.Engine
	checkout *checkout.Manager
	store    storage.Store
}

// Options collect the dependencies for New.
type Options struct {
	Config   *coreconfig.Config
	UPIID    string
	Catalog  *catalog.Service
	Orders   *orders.Engine
	Checkout *checkout.Manager
	Store    storage.Store
}

func New(opts Options) *App {
	return &App{
		cfg:      opts.Config,
		upiID:    opts.UPIID,
		catalog:  opts.Catalog,
		orders:   opts.Orders,
		checkout: opts.Checkout,
		store:    opts.Store,
	}
}

// Callback uniques. Buy carries a product id, the admin pair an order id.
const (
	cbBuy     = "buy"
	cbApprove = "approve"
	cbReject  = "reject"
)

// CoreConfig satisfies the runner's config carrier when App doubles as one.
func (a *App) CoreConfig() *coreconfig.Config { return a.cfg }

// TelegramRunOptions assembles the registry, middlewares and routes.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Browse the store",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Abandon the current purchase",
	})
	reg.RegisterCommand("/addstock", commands.Command{
		Handler:     a.handleAddStock,
		Description: "Add codes to a product",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/sendproduct", commands.Command{
		Handler:     a.handleSendProduct,
		Description: "Send codes to a user directly",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Store statistics",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/broadcast", commands.Command{
		Handler:     a.handleBroadcast,
		Description: "Message every known user",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := reg.RegisterCallback(cbBuy, a.handleBuy); err != nil {
		return tg.RunOptions{}, err
	}
	if err := reg.RegisterCallback(cbApprove, a.handleApprove); err != nil {
		return tg.RunOptions{}, err
	}
	if err := reg.RegisterCallback(cbReject, a.handleReject); err != nil {
		return tg.RunOptions{}, err
	}

	reg.SetCallbackNotFound(a.handleStaleCallback)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{
		Admin:        middleware.AdminOptions{AdminID: a.cfg.Telegram.AdminID},
		UnknownText:  a.handleUnknownText,
		UnknownPhoto: a.handleUnexpectedPhoto,
	})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, a.handleRateLimited),
		Routes:      routes,
	}, nil
}

// InProgress reports whether the user owes a payment screenshot.
func (a *App) InProgress(userID int64) bool {
	return a.checkout.InProgress(context.Background(), userID)
}

func (a *App) handleRateLimited(c tele.Context) error {
	return tghelpers.SendText(c, "⏳ Slow down a little and try again.")
}
