package discord

import "testing"

func TestCommands(t *testing.T) {
	want := []string{
		"join", "leave", "play", "queue", "skip", "clear", "remove", "shuffle",
		"pause", "resume", "stop", "seek", "scrub", "jump", "say", "nowplaying", "musicpanel",
	}

	byName := make(map[string]bool)
	for _, cmd := range Commands() {
		if byName[cmd.Name] {
			t.Errorf("duplicate command %q", cmd.Name)
		}
		byName[cmd.Name] = true
	}
	for _, name := range want {
		if !byName[name] {
			t.Errorf("missing command %q", name)
		}
	}
	if len(byName) != len(want) {
		t.Errorf("expected %d commands, got %d", len(want), len(byName))
	}
}

func TestCommands_RemoveAutocompletes(t *testing.T) {
	for _, cmd := range Commands() {
		if cmd.Name != "remove" {
			continue
		}
		if !cmd.Options[0].Autocomplete {
			t.Error("expected position to autocomplete")
		}
		return
	}
	t.Fatal("remove command not found")
}
