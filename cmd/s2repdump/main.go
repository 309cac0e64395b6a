package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Talv/sc2-repdump/internal/bank"
	"github.com/Talv/sc2-repdump/internal/catalog"
	"github.com/Talv/sc2-repdump/internal/config"
	"github.com/Talv/sc2-repdump/internal/rebuild"
	"github.com/Talv/sc2-repdump/internal/replay"
	"github.com/Talv/sc2-repdump/internal/roster"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to s2repdump.yaml (optional)")
		outDir      = flag.String("out", "", "output directory for rebuilt banks (default ./out)")
		force       = flag.Bool("force", false, "overwrite existing bank files")
		showPlayers = flag.Bool("players", false, "print the player roster")
		showChat    = flag.Bool("chat", false, "print the chat log")
		bankList    = flag.Bool("bank-list", false, "print bank metadata without writing files")
		bankRebuild = flag.Bool("bank-rebuild", false, "rebuild bank files on disk")
		jsonOut     = flag.Bool("json", false, "emit reports as JSON instead of tables")
		catalogPath = flag.String("catalog", "", "SQLite catalog path (optional)")
		verifySigs  = flag.Bool("verify-signatures", false, "verify recomputed signatures against recorded ones")
		verbose     = flag.Bool("v", false, "verbose logging")
		quiet       = flag.Bool("q", false, "errors only")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: s2repdump [flags] <replay-dir>...\n\n")
		fmt.Fprintf(os.Stderr, "Each replay dir must contain roster.json[.zst] and events.jsonl[.zst]\n")
		fmt.Fprintf(os.Stderr, "as produced by the replay decoder.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[s2repdump] ", log.LstdFlags)
	if *quiet {
		logger.SetOutput(io.Discard)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *verifySigs {
		cfg.Signature.Verify = true
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			logger.Fatalf("open catalog: %v", err)
		}
		defer cat.Close()
	}

	run := runOptions{
		cfg:         cfg,
		cat:         cat,
		logger:      logger,
		verbose:     *verbose,
		showPlayers: *showPlayers,
		showChat:    *showChat,
		bankList:    *bankList,
		bankRebuild: *bankRebuild,
		jsonOut:     *jsonOut,
		force:       *force,
	}

	// Each replay is processed independently: a hard failure in one never
	// affects the output of its siblings.
	failed := 0
	for _, dir := range flag.Args() {
		if err := processReplay(dir, run); err != nil {
			logger.Printf("replay %s: %v", dir, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

type runOptions struct {
	cfg     config.Config
	cat     *catalog.Catalog
	logger  *log.Logger
	verbose bool

	showPlayers bool
	showChat    bool
	bankList    bool
	bankRebuild bool
	jsonOut     bool
	force       bool
}

func processReplay(dir string, run runOptions) error {
	rosterPath, err := findInput(dir, "roster.json")
	if err != nil {
		return err
	}
	eventsPath, err := findInput(dir, "events.jsonl")
	if err != nil {
		return err
	}

	rf, err := replay.LoadRoster(rosterPath)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	reg, err := roster.NewRegistry(rf.Players)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	src, err := replay.Open(eventsPath)
	if err != nil {
		return fmt.Errorf("open events: %w", err)
	}
	res, err := rebuild.New(reg).Run(src)
	_ = src.Close()
	if err != nil {
		if errors.Is(err, rebuild.ErrUnknownPlayerSlot) {
			return fmt.Errorf("reconstruction aborted: %w", err)
		}
		return fmt.Errorf("read events: %w", err)
	}
	for _, w := range res.Warnings {
		run.logger.Printf("warning: %s: %s", dir, w.Reason)
	}

	authorHandle := rf.AuthorHandle
	if run.cfg.Signature.AuthorHandle != "" {
		authorHandle = run.cfg.Signature.AuthorHandle
	}

	var signer bank.Signer
	if run.cfg.Signature.Algorithm == "sha1" {
		signer = bank.SHA1Signer{}
	}

	rendered := make([]bank.Rendered, 0, len(res.Documents))
	for _, doc := range res.Documents {
		ser := &bank.Serializer{
			Compact:      run.cfg.Compact,
			Signer:       signer,
			AuthorHandle: authorHandle,
			OwnerHandle:  ownerHandle(reg, doc.Slot()),
		}
		rendered = append(rendered, ser.Render(doc))
	}

	if run.cfg.Signature.Verify {
		verifySignatures(dir, res, rendered, run.logger)
	}

	replayID := filepath.Base(filepath.Clean(dir))

	if run.showPlayers {
		if err := reportPlayers(os.Stdout, reg, run.jsonOut); err != nil {
			return err
		}
	}
	if run.showChat {
		if err := reportChat(os.Stdout, eventsPath, reg, run.jsonOut); err != nil {
			return err
		}
	}
	if run.bankList {
		if err := reportBanks(os.Stdout, reg, rendered, run.jsonOut); err != nil {
			return err
		}
	}

	if run.bankRebuild {
		for _, r := range rendered {
			path, err := writeBank(run.cfg, reg, r, run.force)
			if err != nil {
				return err
			}
			if run.verbose {
				run.logger.Printf("wrote %s (%d bytes)", path, r.Meta.NetSize)
			}
		}
	}

	if run.cat != nil {
		metas := make([]bank.Metadata, 0, len(rendered))
		for _, r := range rendered {
			metas = append(metas, r.Meta)
		}
		if err := run.cat.RecordRun(context.Background(), replayID, rf.Title, authorHandle, reg.Players(), metas); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	return nil
}

// findInput locates base or base+".zst" inside dir.
func findInput(dir, base string) (string, error) {
	for _, name := range []string{base, base + ".zst"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no %s or %s.zst in %s", base, base, dir)
}

// ownerHandle names the output subdirectory for a slot. Computer players
// have no handle; fall back to a stable slot-derived name.
func ownerHandle(reg *roster.Registry, slot int) string {
	if p, ok := reg.BySlot(slot); ok && p.Handle != "" {
		return p.Handle
	}
	return fmt.Sprintf("slot-%d", slot)
}

func writeBank(cfg config.Config, reg *roster.Registry, r bank.Rendered, force bool) (string, error) {
	dir := filepath.Join(cfg.OutDir, ownerHandle(reg, r.Meta.Slot))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.Meta.Bank+cfg.Extension)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s exists (use -force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, r.Bytes, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func verifySignatures(dir string, res rebuild.Result, rendered []bank.Rendered, logger *log.Logger) {
	byRef := make(map[rebuild.DocRef]bank.Metadata, len(rendered))
	for _, r := range rendered {
		byRef[rebuild.DocRef{Slot: r.Meta.Slot, Bank: r.Meta.Bank}] = r.Meta
	}
	for ref, recorded := range res.ClientSignatures {
		m, ok := byRef[ref]
		if !ok {
			continue
		}
		if !strings.EqualFold(recorded, m.Signature) {
			logger.Printf("warning: %s: bank %q slot %d signature mismatch: recorded %s, recomputed %s",
				dir, ref.Bank, ref.Slot, strings.ToUpper(recorded), m.Signature)
		}
	}
}
