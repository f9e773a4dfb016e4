package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"sqldrive/config"
	"sqldrive/pacing"
	"sqldrive/param"
	"sqldrive/rlog"
	"sqldrive/stats"
)

// Run validates the resolved property bag, constructs the shared
// datasource, builds the start barrier, and spawns threads workers plus
// one monitor, waiting for every worker to finish. It returns the run's
// final stats array so a caller can inspect the terminal counters, plus
// only a startup validation error; failures inside individual workers are
// classified and counted, never surfaced here.
func Run(ctx context.Context, props config.Properties) (*stats.Array, error) {
	opts, err := validate(props)
	if err != nil {
		return nil, err
	}

	ds, err := Open(props)
	if err != nil {
		return nil, fmt.Errorf("opening datasource: %w", err)
	}
	defer ds.Close()

	var table *param.DataTable
	if path := props.Get(config.Data); path != "" {
		table, err = param.LoadDataTable(path)
		if err != nil {
			return nil, fmt.Errorf("loading data file: %w", err)
		}
	}

	if addr := props.Get(config.MetricsAddr); addr != "" {
		statsArr := stats.New()
		_, handler := stats.NewPromExporter(statsArr)
		go func() {
			if err := stats.Serve(addr, handler); err != nil {
				rlog.Warnf("metrics server stopped: %v", err)
			}
		}()
		opts.sharedStats = statsArr
	}

	statsArr := opts.sharedStats
	if statsArr == nil {
		statsArr = stats.New()
	}

	deadline := time.Now().Add(time.Duration(opts.timeSeconds) * time.Second)
	ringCap := pacing.Capacity(opts.rate, opts.threads, opts.timeSeconds)
	hist := stats.NewLatencyHistograms()

	var barrier sync.WaitGroup
	barrier.Add(opts.threads + 1)

	var wg sync.WaitGroup
	for i := 0; i < opts.threads; i++ {
		tpl, err := param.NewTemplate(props.Get(config.SQL), props.Get(config.Params), table, int64(i)+1)
		if err != nil {
			return nil, fmt.Errorf("building statement template: %w", err)
		}

		w := &Worker{
			ID:           i,
			DS:           ds,
			Stats:        statsArr,
			Template:     tpl,
			Hist:         hist,
			Deadline:     deadline,
			QueryPerTx:   opts.batch,
			Iterate:      opts.iterate,
			TargetTxNs:   opts.targetTxNs,
			Desaturation: opts.desaturation,
			Ring:         pacing.NewRing(ringCap),
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx, &barrier)
		}()
	}

	mon := &Monitor{
		Stats:        statsArr,
		Hist:         hist,
		Threads:      opts.threads,
		ReportPeriod: time.Duration(opts.reportSeconds) * time.Second,
		Deadline:     deadline,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		mon.Run(&barrier)
	}()

	wg.Wait()
	return statsArr, nil
}

type options struct {
	threads       int
	timeSeconds   int
	batch         int
	rate          int
	load          int
	reportSeconds int
	iterate       bool
	targetTxNs    int64
	desaturation  float64
	sharedStats   *stats.Array
}

// validate checks the resolved properties against the documented rules and
// derives the worker-facing numbers (targetTxNs, desaturation) once so
// every worker shares identical pacing parameters.
func validate(props config.Properties) (*options, error) {
	if props.Get(config.URL) == "" || props.Get(config.User) == "" || props.Get(config.Password) == "" {
		return nil, fmt.Errorf("url, user and password are required")
	}

	threads, err := strconv.Atoi(props.GetDefault(config.Threads, "10"))
	if err != nil || threads < 1 {
		return nil, fmt.Errorf("invalid threads: %q", props.Get(config.Threads))
	}
	timeSeconds, err := strconv.Atoi(props.GetDefault(config.Time, "1"))
	if err != nil || timeSeconds < 1 {
		return nil, fmt.Errorf("invalid time: %q", props.Get(config.Time))
	}
	batch, err := strconv.Atoi(props.GetDefault(config.Batch, "1"))
	if err != nil || batch < 1 {
		return nil, fmt.Errorf("invalid batch: %q", props.Get(config.Batch))
	}
	reportSeconds, err := strconv.Atoi(props.GetDefault(config.Report, "1"))
	if err != nil || reportSeconds < 1 {
		return nil, fmt.Errorf("invalid report: %q", props.Get(config.Report))
	}
	iterate := props.GetDefault(config.Iterate, "false") == "true"

	var rate int
	if rawRate := props.Get(config.Rate); rawRate != "" {
		rate, err = strconv.Atoi(rawRate)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("rate must be > 0: %q", rawRate)
		}
		if rate*timeSeconds < 2*threads {
			return nil, fmt.Errorf("rate*time must be >= 2*threads")
		}
	}

	load, err := strconv.Atoi(props.GetDefault(config.Load, "95"))
	if err != nil || load < 1 || load > 100 {
		return nil, fmt.Errorf("load must be in [1,100]: %q", props.Get(config.Load))
	}
	// Properties has no way to distinguish "user explicitly passed
	// -load=95" from "95 is just the default", so treat any load value
	// other than the default as an explicit override for warning purposes.
	if rate > 0 && props.Get(config.Load) != config.Defaults[config.Load] {
		rlog.Warnf("both rate and load set; load is ignored")
	}

	opts := &options{
		threads:       threads,
		timeSeconds:   timeSeconds,
		batch:         batch,
		rate:          rate,
		load:          load,
		reportSeconds: reportSeconds,
		iterate:       iterate,
	}

	if rate > 0 {
		opts.targetTxNs = int64(time.Second) * int64(threads) / int64(rate)
	} else if load > 0 && load < 100 {
		opts.desaturation = float64(100-load) / float64(load)
	}

	return opts, nil
}
