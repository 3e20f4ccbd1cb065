// Package pos reads the POS terminal's serial output, classifies every line, mirrors it
// to the receipt printer and publishes billing outcomes on the bus.
package pos

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sync"

	"interceptor/internal/apperr"
	"interceptor/internal/domain/models"
	"interceptor/internal/domain/ports"
)

// MaxReadErrors is the number of consecutive read failures the bridge tolerates.
// One more stops the loop.
const MaxReadErrors = 5

// Bridge owns the POS link and, when printing is enabled, the printer link.
type Bridge struct {
	pos     ports.SerialPort
	reader  *bufio.Reader
	printer ports.SerialPort // nil when printing is disabled
	pub     ports.Publisher
	rules   models.ClassificationRules
	dec     *Decoder
	log     ports.Logger

	errRun    int
	closeOnce sync.Once
}

// New creates a bridge. printer may be nil. A nil decoder means UTF-8.
func New(pos, printer ports.SerialPort, pub ports.Publisher, rules models.ClassificationRules, dec *Decoder, log ports.Logger) *Bridge {
	if dec == nil {
		dec = &Decoder{name: "utf-8"}
	}
	return &Bridge{
		pos:     pos,
		reader:  bufio.NewReader(pos),
		printer: printer,
		pub:     pub,
		rules:   rules.Normalized(),
		dec:     dec,
		log:     ports.OrNop(log),
	}
}

// PrintEnabled reports whether lines are mirrored to the printer.
func (b *Bridge) PrintEnabled() bool {
	return b.printer != nil
}

// Run reads and handles lines until more than MaxReadErrors reads fail in a row, or
// ctx is done. Both links are closed on return.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.Info("Starting pos-printer state machine", "print_enabled", b.PrintEnabled(), "encoding", b.dec.Name())
	defer b.log.Info("Ending pos-printer state machine")
	defer b.close()

	// A blocked read only returns once the port is closed.
	stop := context.AfterFunc(ctx, b.close)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, line, err := b.readLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.errRun++
			b.log.Error("Error reading from serial port", "error", err, "consecutive", b.errRun)
			if b.errRun > MaxReadErrors {
				b.log.Error("Too many errors, exiting")
				return fmt.Errorf("pos bridge: %d consecutive reads failed: %w", b.errRun, err)
			}
			b.log.Warn("Continuing to read from serial port")
			continue
		}
		b.errRun = 0

		err = b.handleLine(ctx, raw, line)
		if apperr.Fatal(err) {
			return err
		}
		if err != nil {
			b.log.Error("Error printing from printer", "error", err, "kind", apperr.Kind(err))
		}
	}
}

// readLine returns one newline-terminated line as raw bytes and decoded text.
func (b *Bridge) readLine() ([]byte, string, error) {
	raw, err := b.reader.ReadBytes('\n')
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", apperr.ErrReadFailure, err)
	}
	line, err := b.dec.Decode(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", apperr.ErrReadFailure, err)
	}
	return raw, line, nil
}

// handleLine classifies the line, publishes at most one billing event and mirrors the
// raw bytes to the printer. Only a printer write failure is returned.
func (b *Bridge) handleLine(ctx context.Context, raw []byte, line string) error {
	b.log.Debug("Line received", "line", line)

	class := b.rules.Classify(line)
	switch class {
	case models.ClassGeneric:
		b.log.Debug("Generic string found", "line", line)
	case models.ClassSuccess:
		b.log.Debug("Success string found", "line", line)
		b.publish(ctx, models.BillingEvent{Outcome: models.OutcomeSuccess})
	case models.ClassFailure:
		b.log.Debug("Failure string found", "line", line)
		b.publish(ctx, models.BillingEvent{Outcome: models.OutcomeFailure})
	}

	if b.printer == nil {
		return nil
	}
	if _, err := b.printer.Write(raw); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}
	b.log.Debug("Printing to printer", "line", line)
	return nil
}

func (b *Bridge) publish(ctx context.Context, ev models.BillingEvent) {
	if err := b.pub.Publish(ctx, models.TopicPOSBilling, ev.Payload()); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		b.log.Error("Publishing billing event failed", "outcome", ev.Outcome, "error", err)
	}
}

func (b *Bridge) close() {
	b.closeOnce.Do(func() {
		if err := b.pos.Close(); err != nil {
			b.log.Debug("Closing POS port", "error", err)
		}
		if b.printer != nil {
			if err := b.printer.Close(); err != nil {
				b.log.Debug("Closing printer port", "error", err)
			}
		}
	})
}
