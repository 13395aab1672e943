package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/infra/routing/heuristic"
	"streetsearch/internal/infra/routing/search"
	"streetsearch/internal/infra/routing/termination"
	"streetsearch/internal/util"

	"github.com/pkg/errors"
)

type routeOptions struct {
	dir    string
	from   string
	to     string
	via    string
	modes  string
	alpha  float64
	sample float64
}

type reachOptions struct {
	dir        string
	from       string
	targets    string
	modes      string
	timeout    time.Duration
	percentage float64
}

// loadEngine loads dir quietly; the CLI reports on stdout instead
func loadEngine(dir string, waypoint heuristic.WaypointOptions) (*search.Engine, error) {
	cfg := search.DefaultEngineConfig()
	cfg.Waypoint = waypoint

	engine := search.NewEngine(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := engine.LoadData(dir); err != nil {
		return nil, err
	}

	return engine, nil
}

func runRoute(ctx context.Context, out io.Writer, opts routeOptions) error {
	from, err := entity.ParseLocation(opts.from)
	if err != nil {
		return errors.Wrap(err, "invalid --from")
	}
	to, err := entity.ParseLocation(opts.to)
	if err != nil {
		return errors.Wrap(err, "invalid --to")
	}
	via, err := entity.ParseLocations(opts.via)
	if err != nil {
		return errors.Wrap(err, "invalid --via")
	}
	modes, err := entity.ParseModeSet(opts.modes)
	if err != nil {
		return err
	}

	engine, err := loadEngine(opts.dir, heuristic.WaypointOptions{
		AlphaDistanceM:       opts.alpha,
		ImportanceMultiplier: 1,
		SampleFraction:       opts.sample,
	})
	if err != nil {
		return err
	}

	req := &entity.RoutingRequest{From: from, To: to, Waypoints: via, Modes: modes}
	req.ApplyDefaults()

	startTime := time.Now()
	result, err := engine.PlanTrip(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "From %s (snapped to %s, %s away)\n",
		from, result.Origin.Label, util.FormatDistance(result.Origin.Distance))
	fmt.Fprintf(out, "To   %s (snapped to %s, %s away)\n",
		to, result.Destination.Label, util.FormatDistance(result.Destination.Distance))

	if !result.IsReachable {
		fmt.Fprintf(out, "Destination unreachable with %s (settled %d vertices)\n", modes, result.Settled)

		return nil
	}

	fmt.Fprintf(out, "Distance: %s\n", util.FormatDistance(result.Distance))
	fmt.Fprintf(out, "Duration: %s\n", util.FormatDuration(result.Duration))
	fmt.Fprintf(out, "Cost:     %.1f\n", result.Cost)
	if len(via) > 0 {
		fmt.Fprintf(out, "Waypoints passed: %d of %d\n", result.WaypointsPassed, len(via))
	}
	fmt.Fprintf(out, "Path:     %s\n", strings.Join(result.Vertices, " -> "))
	fmt.Fprintf(out, "Polyline: %s\n", result.Polyline)
	fmt.Fprintf(out, "Settled %d vertices in %s\n", result.Settled, util.FormatDuration(time.Since(startTime)))

	return nil
}

func runReach(ctx context.Context, out io.Writer, opts reachOptions) error {
	from, err := entity.ParseLocation(opts.from)
	if err != nil {
		return errors.Wrap(err, "invalid --from")
	}
	targets, err := entity.ParseLocations(opts.targets)
	if err != nil {
		return errors.Wrap(err, "invalid --targets")
	}
	if len(targets) == 0 {
		return errors.New("at least one target is required")
	}
	modes, err := entity.ParseModeSet(opts.modes)
	if err != nil {
		return err
	}

	engine, err := loadEngine(opts.dir, heuristic.DefaultWaypointOptions())
	if err != nil {
		return err
	}

	req := &entity.RoutingRequest{From: from, To: from, Modes: modes}
	req.ApplyDefaults()

	result, err := engine.ReachTargets(ctx, req, targets, termination.MultiTargetConfig{
		Timeout:         opts.timeout,
		ReachPercentage: opts.percentage,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Origin %s snapped to %s\n", from, result.Origin.Label)
	for _, target := range result.Targets {
		switch {
		case target.Vertex == nil:
			fmt.Fprintf(out, "  [%d] %s  off network\n", target.Index, target.Location)
		case !target.IsReachable:
			fmt.Fprintf(out, "  [%d] %s  %s  unreachable\n", target.Index, target.Location, target.Vertex.Label)
		default:
			fmt.Fprintf(out, "  [%d] %s  %s  %s  %s\n", target.Index, target.Location, target.Vertex.Label,
				util.FormatDistance(target.Distance), util.FormatDuration(target.Duration))
		}
	}
	fmt.Fprintf(out, "Reached %d of %d target vertices, settled %d", result.Reached, result.Total, result.Settled)
	if result.Terminated {
		fmt.Fprint(out, " (stopped early)")
	}
	fmt.Fprintln(out)

	return nil
}
