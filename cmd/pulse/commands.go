// CLAUDE:SUMMARY One-shot CLI subcommands over the pipeline service; results are printed as indented JSON on stdout.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/detect"
	"github.com/hazyhaar/aadhaar-pulse/pkg/pipeline"
)

// run opens the service, calls fn and prints its result.
func run(cfgPath string, fn func(context.Context, *pipeline.Service) (any, error)) error {
	e, err := open(cfgPath)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	out, err := fn(ctx, e.svc)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func cmdClean(args []string) error {
	fs, cfgPath := newFlagSet("clean")
	id := fs.String("dataset", "", "dataset to clean")
	all := fs.Bool("all", false, "clean all datasets")
	fs.Parse(args)

	if *all == (*id != "") {
		return errors.New("exactly one of -dataset or -all is required")
	}
	return run(*cfgPath, func(ctx context.Context, svc *pipeline.Service) (any, error) {
		if !*all {
			return svc.Clean(ctx, dataset.ID(*id))
		}
		var results []any
		for _, id := range dataset.Core() {
			res, err := svc.Clean(ctx, id)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
		return results, nil
	})
}

func cmdLogs(args []string) error {
	fs, cfgPath := newFlagSet("logs")
	fs.Parse(args)
	return run(*cfgPath, func(ctx context.Context, svc *pipeline.Service) (any, error) {
		return svc.Logs(ctx)
	})
}

func cmdDetect(args []string) error {
	fs, cfgPath := newFlagSet("detect")
	state := fs.String("state", "", "canonical state name")
	id := fs.String("dataset", string(dataset.Enrolment), "cleaned dataset to scan")
	cutoff := fs.Float64("cutoff", detect.DefaultSimilarityCutoff, "similarity cutoff in [0.8, 1.0]")
	ratio := fs.Float64("ratio", detect.DefaultMinCountRatio, "row-count ratio at which a pair is flagged for review")
	fs.Parse(args)

	if *state == "" {
		return errors.New("-state is required")
	}
	opts := detect.Options{SimilarityCutoff: *cutoff, MinCountRatio: *ratio}
	return run(*cfgPath, func(ctx context.Context, svc *pipeline.Service) (any, error) {
		return svc.Detect(ctx, *state, dataset.ID(*id), opts)
	})
}

func cmdAggregate(args []string) error {
	fs, cfgPath := newFlagSet("aggregate")
	level := fs.String("level", "national", "national | state | district")
	state := fs.String("state", "", "canonical state name (district level)")
	fs.Parse(args)

	return run(*cfgPath, func(ctx context.Context, svc *pipeline.Service) (any, error) {
		switch *level {
		case "national":
			return svc.National(ctx)
		case "state":
			return svc.States(ctx)
		case "district":
			if *state == "" {
				return nil, errors.New("-state is required at district level")
			}
			return svc.Districts(ctx, *state)
		}
		return nil, fmt.Errorf("unknown level %q", *level)
	})
}

func cmdEstimate(args []string) error {
	fs, cfgPath := newFlagSet("estimate")
	state := fs.String("state", "", "canonical state name")
	fs.Parse(args)

	if *state == "" {
		return errors.New("-state is required")
	}
	return run(*cfgPath, func(ctx context.Context, svc *pipeline.Service) (any, error) {
		return svc.Stations(ctx, *state)
	})
}

func cmdInsights(args []string) error {
	fs, cfgPath := newFlagSet("insights")
	fs.Parse(args)
	return run(*cfgPath, func(ctx context.Context, svc *pipeline.Service) (any, error) {
		return svc.Insights(ctx)
	})
}

func cmdInspect(args []string) error {
	fs, cfgPath := newFlagSet("inspect")
	id := fs.String("dataset", "", "raw dataset to inspect")
	limit := fs.Int("limit", pipeline.DefaultSampleLimit, "sample rows")
	fs.Parse(args)

	if *id == "" {
		return errors.New("-dataset is required")
	}
	return run(*cfgPath, func(ctx context.Context, svc *pipeline.Service) (any, error) {
		cols, err := svc.Columns(ctx, dataset.ID(*id))
		if err != nil {
			return nil, err
		}
		sample, err := svc.Sample(ctx, dataset.ID(*id), *limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"columns": cols, "sample": sample}, nil
	})
}
