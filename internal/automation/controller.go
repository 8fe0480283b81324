// Package automation orchestrates one bulk-messaging run: validation,
// session acquisition, the sequential contact loop with cyclic message
// rotation and randomized pacing, and the statistics model.
package automation

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"whatsapp-bulksender/internal/contacts"
	"whatsapp-bulksender/internal/messaging"
)

// SessionKeeper owns browser acquisition and release for a run.
type SessionKeeper interface {
	// Acquire brings up (or reuses) the browser and drives the chat
	// client to its ready state.
	Acquire() bool
	// Release tears the browser down, or keeps it for the next run.
	Release(keepOpen bool)
	// Alive probes the browser process.
	Alive() bool
	// Reconnect re-runs the login flow after a mid-run session loss.
	Reconnect() bool
}

// ConversationOpener opens the conversation for a phone number.
type ConversationOpener interface {
	Open(phoneNumber string) bool
}

// Deliverer sends one already-personalized message into the open
// conversation.
type Deliverer interface {
	Send(msg messaging.Message) bool
}

type waitResult int

const (
	waitCompleted waitResult = iota
	waitStopped
	waitSessionLost
)

// Controller runs at most one automation at a time. Cancellation is
// cooperative: Stop raises a flag that is polled between contacts and at
// every second of the inter-message wait, never mid-send.
type Controller struct {
	sessions  SessionKeeper
	opener    ConversationOpener
	deliverer Deliverer
	log       *zap.SugaredLogger
	status    func(string)

	running       atomic.Bool
	stopRequested atomic.Bool

	mu    sync.Mutex
	stats *runStats

	// test seams
	pickInterval func(minSec, maxSec int) int
	sleep        func(d time.Duration)
}

func NewController(sessions SessionKeeper, opener ConversationOpener, deliverer Deliverer, log *zap.SugaredLogger, status func(string)) *Controller {
	if status == nil {
		status = func(string) {}
	}
	return &Controller{
		sessions:     sessions,
		opener:       opener,
		deliverer:    deliverer,
		log:          log,
		status:       status,
		pickInterval: randomInterval,
		sleep:        time.Sleep,
	}
}

func randomInterval(minSec, maxSec int) int {
	if maxSec <= minSec {
		return minSec
	}
	return minSec + rand.IntN(maxSec-minSec+1)
}

// Start executes one full run and blocks until it finishes. A second
// concurrent Start is rejected outright: two runs would fight over the one
// browser and its open-conversation state. Returns false when the run was
// rejected or aborted before processing any contact.
func (c *Controller) Start(contactList []contacts.Contact, messages []messaging.Message, minInterval, maxInterval int, keepBrowserOpen bool) bool {
	if !c.running.CompareAndSwap(false, true) {
		c.status("Ya hay una automatización en curso")
		c.log.Warn("start rejected: a run is already active")
		return false
	}
	defer c.running.Store(false)

	if !c.validate(contactList, messages, minInterval, maxInterval) {
		return false
	}

	c.stopRequested.Store(false)
	stats := newRunStats(len(contactList), len(messages))
	c.mu.Lock()
	c.stats = stats
	c.mu.Unlock()

	c.status(fmt.Sprintf("Iniciando automatización: %d contactos, %d mensajes", len(contactList), len(messages)))

	if !c.sessions.Acquire() {
		c.status("No se pudo preparar la sesión del navegador")
		stats.finish()
		c.emitSummary(stats)
		return false
	}

	scheduler := messaging.NewScheduler(messages)
	c.runLoop(contactList, scheduler, stats, minInterval, maxInterval)

	stats.finish()
	c.emitSummary(stats)
	c.sessions.Release(keepBrowserOpen)
	return true
}

func (c *Controller) validate(contactList []contacts.Contact, messages []messaging.Message, minInterval, maxInterval int) bool {
	switch {
	case len(contactList) == 0:
		c.status("No hay contactos para procesar")
	case len(messages) == 0:
		c.status("No hay mensajes configurados")
	case minInterval <= 0 || maxInterval < minInterval:
		c.status(fmt.Sprintf("Intervalo inválido: min=%d max=%d", minInterval, maxInterval))
	default:
		for i, m := range messages {
			if !m.Deliverable() {
				c.status(fmt.Sprintf("El mensaje %d está vacío", i+1))
				return false
			}
		}
		return true
	}
	return false
}

func (c *Controller) runLoop(contactList []contacts.Contact, scheduler *messaging.Scheduler, stats *runStats, minInterval, maxInterval int) {
	for i, contact := range contactList {
		if c.stopRequested.Load() {
			c.status("Automatización detenida por el usuario")
			return
		}

		msg := scheduler.Next()
		personalized := messaging.HasPlaceholders(msg.Text)
		msg.Text = messaging.Personalize(msg.Text, contact)

		pos, total := scheduler.Position()
		c.status(fmt.Sprintf("Contacto %d/%d: %s (mensaje %d/%d)",
			i+1, len(contactList), contact.DisplayName(), pos+1, total))

		if c.processContact(contact, msg, personalized, stats) == waitSessionLost {
			c.status("El navegador dejó de responder; abortando la ejecución")
			return
		}

		if i < len(contactList)-1 {
			switch c.waitInterval(minInterval, maxInterval) {
			case waitStopped:
				c.status("Automatización detenida por el usuario")
				return
			case waitSessionLost:
				c.status("El navegador dejó de responder; abortando la ejecución")
				return
			}
		}
	}
	c.status("Automatización completada")
}

// processContact resolves and delivers for one contact. Per-contact failures
// are isolated; only a dead browser aborts the run.
func (c *Controller) processContact(contact contacts.Contact, msg messaging.Message, personalized bool, stats *runStats) waitResult {
	if !c.opener.Open(contact.PhoneNumber) {
		stats.recordFailed(contact)
		return c.afterFailure(contact)
	}

	if !c.deliverer.Send(msg) {
		stats.recordFailed(contact)
		return c.afterFailure(contact)
	}

	stats.recordSent(personalized)
	return waitCompleted
}

// afterFailure checks whether the failure was really the session dying. One
// reconnect attempt is made; the run continues as long as the browser
// process itself is alive.
func (c *Controller) afterFailure(contact contacts.Contact) waitResult {
	if c.sessions.Alive() {
		return waitCompleted
	}
	c.log.Warnf("session lost while processing %s, attempting reconnect", contact.Normalized())
	if c.sessions.Reconnect() {
		return waitCompleted
	}
	if c.sessions.Alive() {
		return waitCompleted
	}
	return waitSessionLost
}

// waitInterval sleeps a randomized number of seconds between sends, one
// second at a time, so a stop request or browser crash interrupts the wait
// within about a second instead of after the full interval.
func (c *Controller) waitInterval(minSec, maxSec int) waitResult {
	total := c.pickInterval(minSec, maxSec)
	c.log.Debugf("waiting %d seconds before the next contact", total)

	for elapsed := 0; elapsed < total; elapsed++ {
		if c.stopRequested.Load() {
			return waitStopped
		}
		if !c.sessions.Alive() {
			return waitSessionLost
		}
		c.sleep(time.Second)
	}
	return waitCompleted
}

// Stop requests cooperative cancellation. In-flight browser calls are not
// interrupted; the flag is honored at the next loop or poll boundary.
func (c *Controller) Stop() {
	if !c.running.Load() {
		return
	}
	c.stopRequested.Store(true)
	c.status("Detención solicitada; finalizando el contacto actual...")
}

// IsActive reports whether a run is in progress.
func (c *Controller) IsActive() bool {
	return c.running.Load()
}

// GetCurrentStats returns a snapshot of the current (or last) run.
func (c *Controller) GetCurrentStats() Stats {
	c.mu.Lock()
	stats := c.stats
	c.mu.Unlock()
	if stats == nil {
		return Stats{}
	}
	return stats.snapshot()
}

func (c *Controller) emitSummary(stats *runStats) {
	for _, line := range stats.summaryLines() {
		c.status(line)
	}
}
