// Command quote-batch prices gzip-compressed JSONL order dumps offline.
//
// Every input line is a quote request as accepted by POST /api/quotes.
// Quotes are written to stdout as JSON lines in input order.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/app"
	pgzip "github.com/klauspost/pgzip"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/pierogi-pricing/internal/codec"
	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/internal/domain/quote"
	"github.com/xenking/pierogi-pricing/internal/storage/memory"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 1 << 20

func main() {
	workers := flag.Int("workers", runtime.GOMAXPROCS(0), "orders priced concurrently")
	flag.Parse()

	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		if flag.NArg() == 0 {
			return errors.New("usage: quote-batch [-workers N] FILE.jsonl.gz...")
		}
		return run(ctx, lg, m.TracerProvider(), flag.Args(), *workers, os.Stdout)
	})
}

func run(ctx context.Context, lg *zap.Logger, tp trace.TracerProvider, files []string, workers int, out io.Writer) error {
	calc, err := pricing.NewCalculator(pricing.DefaultRates())
	if err != nil {
		return errors.Wrap(err, "create calculator")
	}
	svc := quote.NewService(calc, memory.NewQuoteRepository(), tp)

	w := bufio.NewWriter(out)
	for _, path := range files {
		reqs, err := readRequests(ctx, path)
		if err != nil {
			return err
		}
		lg.Info("Pricing file", zap.String("path", path), zap.Int("orders", len(reqs)))

		quotes, err := svc.PriceBatch(ctx, reqs, workers)
		if err != nil {
			return errors.Wrapf(err, "price %s", path)
		}
		for _, q := range quotes {
			var e jx.Encoder
			codec.EncodeQuote(&e, q)
			if _, err := w.Write(append(e.Bytes(), '\n')); err != nil {
				return errors.Wrap(err, "write quote")
			}
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flush output")
	}
	return nil
}

// readRequests decodes every non-empty line of a gzip-compressed JSONL file.
func readRequests(ctx context.Context, path string) ([]quote.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var reqs []quote.Request
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		req, err := codec.DecodeRequest(jx.DecodeBytes(scanner.Bytes()))
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, line)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan %s", path)
	}
	return reqs, nil
}
