package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"digistore/core/telegram/commands"
)

func noopHandler(c tele.Context) error { return nil }

func TestRegistryCommandLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     noopHandler,
		Description: "start",
		Aliases:     []string{"/begin"},
	})

	name, _, ok := reg.LookupCommand("/start")
	if !ok || name != "/start" {
		t.Fatalf("lookup /start = (%q, %v)", name, ok)
	}

	name, _, ok = reg.LookupCommand("/begin")
	if !ok || name != "/start" {
		t.Fatalf("alias lookup = (%q, %v), expected canonical /start", name, ok)
	}

	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("expected miss for unregistered command")
	}
}

func TestRegistryHidesHiddenCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "start"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noopHandler, Description: "stats", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 {
		t.Fatalf("all commands = %+v", all)
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("buy", noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("buy", noopHandler); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if _, ok := reg.GetCallback("buy"); !ok {
		t.Fatal("expected registered callback")
	}
	if _, ok := reg.GetCallback("sell"); ok {
		t.Fatal("expected miss for unregistered callback")
	}
}
