package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"whatsapp-bulksender/internal/automation"
	"whatsapp-bulksender/internal/browser"
	"whatsapp-bulksender/internal/config"
	"whatsapp-bulksender/internal/contacts"
	"whatsapp-bulksender/internal/loader"
	"whatsapp-bulksender/internal/logging"
	"whatsapp-bulksender/internal/messaging"
	"whatsapp-bulksender/internal/selectors"
	"whatsapp-bulksender/internal/session"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	dryRun := flag.Bool("dry-run", false, "Render personalized messages without launching a browser")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := logging.New(cfg.Logging.Level, cfg.Logging.OutputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	log.Info("whatsapp-bulksender started")

	registry := selectors.NewRegistry()
	if err := registry.Load(cfg.Files.SelectorsPath); err != nil {
		log.Warnf("selector overrides not loaded: %v", err)
	}

	contactList, err := loader.ContactsFromCSV(cfg.Files.ContactsCSVPath)
	if err != nil {
		log.Errorf("failed to load contacts: %v", err)
		os.Exit(1)
	}
	messages, err := loader.MessagesFromYAML(cfg.Files.MessagesPath)
	if err != nil {
		log.Errorf("failed to load messages: %v", err)
		os.Exit(1)
	}
	log.Infof("loaded %d contacts and %d messages", len(contactList), len(messages))

	tracker, err := loader.NewCompletedTracker(cfg.Files.CompletedCSVPath, messages)
	if err != nil {
		log.Errorf("failed to initialize completed tracker: %v", err)
		os.Exit(1)
	}

	pending := make([]contacts.Contact, 0, len(contactList))
	for _, c := range contactList {
		if tracker.IsCompleted(c) {
			log.Infof("skipping %s, already messaged in this campaign", c.Normalized())
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		log.Info("every contact already received this campaign, nothing to do")
		return
	}

	if *dryRun {
		renderDryRun(pending, messages)
		return
	}

	// Status updates are the user-facing channel; on the CLI they share
	// the logger.
	status := func(msg string) { log.Info(msg) }

	sess := browser.NewSession(cfg.Browser, log, status)
	instances := browser.NewInstanceManager(sess, log)
	login := session.NewLoginManager(sess, registry, cfg.Browser.QRTimeoutSeconds, log, status)
	resolver := contacts.NewResolver(sess, registry, log, status)
	engine := messaging.NewEngine(sess, registry,
		loader.ImageResolver(filepath.Dir(cfg.Files.MessagesPath)), log, status)
	keeper := automation.NewBrowserSessionKeeper(instances, login, sess, log)
	controller := automation.NewController(keeper, resolver, engine, log, status)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupt received, requesting stop")
		controller.Stop()
	}()

	controller.Start(pending, messages,
		cfg.Automation.MinIntervalSeconds, cfg.Automation.MaxIntervalSeconds,
		cfg.Automation.KeepBrowserOpen)

	stats := controller.GetCurrentStats()
	markCompleted(tracker, pending, stats, log)

	if stats.MessagesFailed > 0 {
		os.Exit(1)
	}
}

// markCompleted records every processed contact that is not in the failed
// list. Contacts are processed strictly in input order, so the first
// ContactsProcessed entries are exactly the attempted ones.
func markCompleted(tracker *loader.CompletedTracker, pending []contacts.Contact, stats automation.Stats, log *zap.SugaredLogger) {
	failed := make(map[string]bool, len(stats.FailedContacts))
	for _, c := range stats.FailedContacts {
		failed[c.Normalized()] = true
	}
	for i := 0; i < stats.ContactsProcessed && i < len(pending); i++ {
		c := pending[i]
		if failed[c.Normalized()] {
			continue
		}
		if err := tracker.MarkCompleted(c); err != nil {
			log.Warnf("failed to mark %s as completed: %v", c.Normalized(), err)
		}
	}
}

func renderDryRun(pending []contacts.Contact, messages []messaging.Message) {
	scheduler := messaging.NewScheduler(messages)
	for _, c := range pending {
		msg := scheduler.Next()
		text := messaging.Personalize(msg.Text, c)
		fmt.Printf("[DRY RUN] %s (%s):\n", c.DisplayName(), c.Normalized())
		if text != "" {
			fmt.Printf("  %s\n", text)
		}
		if msg.HasImage() {
			mode := "separate"
			if msg.JointSendMode {
				mode = "joint"
			}
			fmt.Printf("  image: %s (%s)\n", msg.ImageRef, mode)
		}
	}
}
