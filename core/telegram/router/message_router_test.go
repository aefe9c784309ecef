package router

import (
	"testing"

	tg "digistore/core/telegram"
	"digistore/core/telegram/commands"
	"digistore/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// stubContext fakes the handful of tele.Context methods the text route
// touches. Anything else panics via the embedded nil interface, which keeps
// the test honest about what the route actually calls.
type stubContext struct {
	tele.Context
	sender *tele.User
	text   string
	store  map[string]any
}

func (s *stubContext) Sender() *tele.User { return s.sender }

func (s *stubContext) Chat() *tele.Chat { return nil }

func (s *stubContext) Update() tele.Update { return tele.Update{} }

func (s *stubContext) Text() string { return s.text }

func (s *stubContext) Message() *tele.Message { return nil }

func (s *stubContext) Callback() *tele.Callback { return nil }

func (s *stubContext) Get(key string) any { return s.store[key] }

func (s *stubContext) Set(key string, val any) {
	if s.store == nil {
		s.store = make(map[string]any)
	}
	s.store[key] = val
}

func textRoute(t *testing.T, reg *tg.Registry, adminID int64) tele.HandlerFunc {
	t.Helper()
	routes := TextRoutes(nil, reg, TextOptions{
		Admin: middleware.AdminOptions{AdminID: adminID},
	})
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no OnText route")
	return nil
}

func TestBareAdminCommandDeniedForNonAdmin(t *testing.T) {
	const adminID int64 = 100

	for _, word := range []string{"stats", "broadcast hi", "/stats"} {
		called := false
		reg := tg.NewRegistry()
		reg.RegisterCommand("/stats", commands.Command{
			Handler:     func(c tele.Context) error { called = true; return nil },
			Description: "stats",
			AdminOnly:   true,
			Hidden:      true,
		})
		reg.RegisterCommand("/broadcast", commands.Command{
			Handler:     func(c tele.Context) error { called = true; return nil },
			Description: "broadcast",
			AdminOnly:   true,
			Hidden:      true,
		})

		c := &stubContext{sender: &tele.User{ID: 999}, text: word}
		if err := textRoute(t, reg, adminID)(c); err != nil {
			t.Fatalf("route(%q): %v", word, err)
		}
		if called {
			t.Fatalf("admin handler ran for non-admin input %q", word)
		}
	}
}

func TestBareAdminCommandReachesAdmin(t *testing.T) {
	const adminID int64 = 100

	called := false
	reg := tg.NewRegistry()
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     func(c tele.Context) error { called = true; return nil },
		Description: "stats",
		AdminOnly:   true,
		Hidden:      true,
	})

	c := &stubContext{sender: &tele.User{ID: adminID}, text: "stats"}
	if err := textRoute(t, reg, adminID)(c); err != nil {
		t.Fatalf("route: %v", err)
	}
	if !called {
		t.Fatal("admin handler did not run for the admin")
	}
}

func TestBareUserCommandStillRoutes(t *testing.T) {
	called := false
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     func(c tele.Context) error { called = true; return nil },
		Description: "start",
	})

	c := &stubContext{sender: &tele.User{ID: 999}, text: "start"}
	if err := textRoute(t, reg, 100)(c); err != nil {
		t.Fatalf("route: %v", err)
	}
	if !called {
		t.Fatal("public handler did not run")
	}
}
