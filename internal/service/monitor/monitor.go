// Package monitor tails lane serial links for bench testing.
package monitor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"interceptor/internal/domain/ports"
)

// Source is one link to tail, e.g. the POS or the printer.
type Source struct {
	Label string
	Port  io.ReadCloser
}

// Line is one line read from a source.
type Line struct {
	Label string
	Text  string
}

// Tail logs every line of every source as "<label> <text>" and calls onLine, if set, for
// each of them. It returns when all sources hit EOF, when one fails, or when ctx is done.
// Sources are closed on return.
func Tail(ctx context.Context, log ports.Logger, onLine func(Line), sources ...Source) error {
	log = ports.OrNop(log)
	g, gctx := errgroup.WithContext(ctx)

	for _, src := range sources {
		stop := context.AfterFunc(gctx, func() { src.Port.Close() })
		g.Go(func() error {
			defer stop()
			defer src.Port.Close()

			sc := bufio.NewScanner(src.Port)
			for sc.Scan() {
				text := strings.TrimSpace(sc.Text())
				log.Info(src.Label + " " + text)
				if onLine != nil {
					onLine(Line{Label: src.Label, Text: text})
				}
			}
			if err := sc.Err(); err != nil && gctx.Err() == nil && !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		})
	}

	log.Info("Monitoring Serial Ports...")
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
