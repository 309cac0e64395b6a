package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Talv/sc2-repdump/internal/bank"
	"github.com/Talv/sc2-repdump/internal/replay"
	"github.com/Talv/sc2-repdump/internal/roster"
)

func reportPlayers(w io.Writer, reg *roster.Registry, jsonOut bool) error {
	if jsonOut {
		return writeJSON(w, map[string]any{"players": reg.Players()})
	}

	fmt.Fprintf(w, "\n## PLAYERS\n\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "slot\tname\tclan\tcontrol\thandle\tworking_slot\tcolor")
	for _, p := range reg.Players() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			p.Slot, p.Name, p.Clan, p.Control, p.Handle, p.WorkingSlot, p.Color)
	}
	return tw.Flush()
}

func reportBanks(w io.Writer, reg *roster.Registry, rendered []bank.Rendered, jsonOut bool) error {
	metas := make([]bank.Metadata, 0, len(rendered))
	for _, r := range rendered {
		metas = append(metas, r.Meta)
	}
	if jsonOut {
		return writeJSON(w, map[string]any{"banks": metas})
	}

	fmt.Fprintf(w, "\n## BANKS\n\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "slot\tplayer\tbank\tnet_size\tcontent_size\tsections\tkeys\tsigned")
	for _, m := range metas {
		name := ""
		if p, ok := reg.BySlot(m.Slot); ok {
			name = p.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%t\n",
			m.Slot, name, m.Bank, m.NetSize, m.ContentSize, m.SectionCount, m.KeyCount, m.Signed)
	}
	return tw.Flush()
}

type chatLine struct {
	Clock     string `json:"clock"`
	Recipient string `json:"recipient"`
	Player    string `json:"player"`
	Text      string `json:"text"`
}

// reportChat makes its own pass over the event stream: chat happens past the
// preload window, so the accumulator never sees it.
func reportChat(w io.Writer, eventsPath string, reg *roster.Registry, jsonOut bool) error {
	src, err := replay.Open(eventsPath)
	if err != nil {
		return err
	}
	defer src.Close()

	var lines []chatLine
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		var mErr *replay.MalformedRecordError
		if errors.As(err, &mErr) {
			continue
		}
		if err != nil {
			return err
		}
		if rec.Kind != replay.KindChat {
			continue
		}
		name := fmt.Sprintf("slot %d", rec.Slot)
		if p, ok := reg.BySlot(rec.Slot); ok {
			name = p.Name
		}
		lines = append(lines, chatLine{
			Clock:     gameClock(rec.Gameloop),
			Recipient: rec.Recipient,
			Player:    name,
			Text:      rec.Text,
		})
	}

	if jsonOut {
		return writeJSON(w, map[string]any{"chat": lines})
	}
	fmt.Fprintf(w, "\n## CHATLOG\n\n")
	for _, l := range lines {
		fmt.Fprintf(w, "%s | %-10s | %s: %s\n", l.Clock, l.Recipient, l.Player, l.Text)
	}
	return nil
}

func gameClock(gameloop uint64) string {
	secs := gameloop / replay.GameloopsPerSecond
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
