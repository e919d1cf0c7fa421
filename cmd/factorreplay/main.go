// cmd/factorreplay is a demo entry point: it parses a handful of factors,
// builds an in-memory source from embedded sample data, runs the replay
// engine, and logs the result. Flag parsing and file I/O are out of scope
// (spec.md §1 non-goals) — swap in internal/sources.SQLSource or your own
// batch.Source to point this at real data.
package main

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"factorlang/internal/batch"
	"factorlang/internal/factor"
	"factorlang/internal/replay"
)

var sampleFactors = map[string]string{
	"ma5":       "(TSMean 5 :close)",
	"ret1":      "(TSLogReturn 1 :close)",
	"vol_rank":  "(TSRank 10 :volume)",
	"spread":    "(- :high :low)",
	"corr_10":   "(TSCorrelation 10 :close :volume)",
}

func sampleColumns() map[string][]float64 {
	n := 60
	closePrice := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	volume := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += float64(i%7) - 3
		closePrice[i] = price
		high[i] = price + 1.5
		low[i] = price - 1.5
		volume[i] = float64(1000 + 17*i%500)
	}
	return map[string][]float64{"close": closePrice, "high": high, "low": low, "volume": volume}
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   isatty.IsTerminal(os.Stdout.Fd()),
		FullTimestamp: true,
	})

	specs := make([]replay.FactorSpec, 0, len(sampleFactors))
	for name, text := range sampleFactors {
		f, err := factor.Parse(text)
		if err != nil {
			log.WithError(err).WithField("factor", name).Fatal("parsing factor")
		}
		specs = append(specs, replay.FactorSpec{Name: name, Factor: f})
	}

	src := batch.NewMemorySource(sampleColumns(), nil, 16)

	opts := replay.Options{
		NDataJobs:   2,
		NFactorJobs: 4,
		Trim:        true,
		Verbose:     true,
		Log:         log,
	}

	out, err := replay.Run(context.Background(), []batch.Source{src}, specs, opts)
	if err != nil {
		log.WithError(err).Fatal("replay failed")
	}

	log.WithField("rows", out.Len()).Info("replay complete")
	for _, name := range out.Columns {
		col := out.Column(name)
		tail := col
		if len(tail) > 5 {
			tail = tail[len(tail)-5:]
		}
		log.WithFields(logrus.Fields{"factor": name, "last_values": tail}).Info("factor output")
	}
}
