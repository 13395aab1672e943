package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Supported subcommands:
// - contract: Contract a vertices/edges dataset and write it with metadata
// - validate: Validate data integrity
// - route:    Plan one trip against a dataset
// - reach:    Search from one origin to many targets

func main() {
	// Subcommand definitions
	contractCmd := flag.NewFlagSet("contract", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	routeCmd := flag.NewFlagSet("route", flag.ExitOnError)
	reachCmd := flag.NewFlagSet("reach", flag.ExitOnError)

	// contract parameters
	contractInput := contractCmd.String("input", "", "Directory with vertices.csv and edges.csv")
	contractOutput := contractCmd.String("output", "./data/routing", "Output directory for the contracted graph")
	contractRegion := contractCmd.String("region", "unknown", "Region of the input data, recorded in metadata")
	contractDistance := contractCmd.String("distance", "haversine", "Distance function (haversine, spherical, fast)")
	contractTolerance := contractCmd.Float64("tolerance", 1.0, "Grouping radius in meters when intersections.csv is absent")
	contractCompress := contractCmd.Bool("compress", false, "Write bzip2-compressed CSV files")

	// validate parameters
	validateDir := validateCmd.String("dir", "./data/routing", "Directory to validate")

	// route parameters
	routeDir := routeCmd.String("dir", "./data/routing", "Routing data directory")
	routeFrom := routeCmd.String("from", "", "Origin as lat,lng")
	routeTo := routeCmd.String("to", "", "Destination as lat,lng")
	routeVia := routeCmd.String("via", "", "Waypoints as lat,lng;lat,lng")
	routeModes := routeCmd.String("modes", "WALK", "Allowed modes, e.g. WALK|CAR")
	routeAlpha := routeCmd.Float64("alpha", 50, "Distance in meters at which a waypoint counts as visited")
	routeSample := routeCmd.Float64("sample", 0, "Fraction of waypoints to keep, 0 keeps all")

	// reach parameters
	reachDir := reachCmd.String("dir", "./data/routing", "Routing data directory")
	reachFrom := reachCmd.String("from", "", "Origin as lat,lng")
	reachTargets := reachCmd.String("targets", "", "Targets as lat,lng;lat,lng")
	reachModes := reachCmd.String("modes", "WALK", "Allowed modes, e.g. WALK|BICYCLE")
	reachTimeout := reachCmd.Duration("timeout", 0, "Deadline after which the quorum may end the search")
	reachPercentage := reachCmd.Float64("reach", 0.95, "Share of targets that must be reached before the deadline counts")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	flags := routingFlags{
		Contract: contractFlags{
			cmd:       contractCmd,
			input:     contractInput,
			output:    contractOutput,
			region:    contractRegion,
			distance:  contractDistance,
			tolerance: contractTolerance,
			compress:  contractCompress,
		},
		Validate: validateFlags{
			cmd: validateCmd,
			dir: validateDir,
		},
		Route: routeFlags{
			cmd:    routeCmd,
			dir:    routeDir,
			from:   routeFrom,
			to:     routeTo,
			via:    routeVia,
			modes:  routeModes,
			alpha:  routeAlpha,
			sample: routeSample,
		},
		Reach: reachFlags{
			cmd:        reachCmd,
			dir:        reachDir,
			from:       reachFrom,
			targets:    reachTargets,
			modes:      reachModes,
			timeout:    reachTimeout,
			percentage: reachPercentage,
		},
	}

	if err := runSubcommand(ctx, &flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type routingFlags struct {
	Contract contractFlags
	Validate validateFlags
	Route    routeFlags
	Reach    reachFlags
}

type contractFlags struct {
	cmd       *flag.FlagSet
	input     *string
	output    *string
	region    *string
	distance  *string
	tolerance *float64
	compress  *bool
}

type validateFlags struct {
	cmd *flag.FlagSet
	dir *string
}

type routeFlags struct {
	cmd    *flag.FlagSet
	dir    *string
	from   *string
	to     *string
	via    *string
	modes  *string
	alpha  *float64
	sample *float64
}

type reachFlags struct {
	cmd        *flag.FlagSet
	dir        *string
	from       *string
	targets    *string
	modes      *string
	timeout    *time.Duration
	percentage *float64
}

func runSubcommand(ctx context.Context, flags *routingFlags) error {
	switch os.Args[1] {
	case "contract":
		return handleContract(flags)
	case "validate":
		return handleValidate(flags)
	case "route":
		return handleRoute(ctx, flags)
	case "reach":
		return handleReach(ctx, flags)
	default:
		printUsage()

		return errors.New("unknown subcommand")
	}
}

func handleContract(flags *routingFlags) error {
	if err := flags.Contract.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse contract flags")
	}

	if *flags.Contract.input == "" {
		return errors.New("--input flag is required for contract command")
	}

	return runContract(os.Stdout, contractOptions{
		input:      *flags.Contract.input,
		output:     *flags.Contract.output,
		region:     *flags.Contract.region,
		distance:   *flags.Contract.distance,
		toleranceM: *flags.Contract.tolerance,
		compress:   *flags.Contract.compress,
	})
}

func handleValidate(flags *routingFlags) error {
	if err := flags.Validate.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse validate flags")
	}

	return runValidate(os.Stdout, *flags.Validate.dir)
}

func handleRoute(ctx context.Context, flags *routingFlags) error {
	if err := flags.Route.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse route flags")
	}

	if *flags.Route.from == "" || *flags.Route.to == "" {
		return errors.New("--from and --to flags are required for route command")
	}

	return runRoute(ctx, os.Stdout, routeOptions{
		dir:    *flags.Route.dir,
		from:   *flags.Route.from,
		to:     *flags.Route.to,
		via:    *flags.Route.via,
		modes:  *flags.Route.modes,
		alpha:  *flags.Route.alpha,
		sample: *flags.Route.sample,
	})
}

func handleReach(ctx context.Context, flags *routingFlags) error {
	if err := flags.Reach.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse reach flags")
	}

	if *flags.Reach.from == "" || *flags.Reach.targets == "" {
		return errors.New("--from and --targets flags are required for reach command")
	}

	return runReach(ctx, os.Stdout, reachOptions{
		dir:        *flags.Reach.dir,
		from:       *flags.Reach.from,
		targets:    *flags.Reach.targets,
		modes:      *flags.Reach.modes,
		timeout:    *flags.Reach.timeout,
		percentage: *flags.Reach.percentage,
	})
}

func printUsage() {
	fmt.Println("Usage: routing-cli <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  contract    Contract intersections and write the graph with metadata")
	fmt.Println("  validate    Validate data integrity")
	fmt.Println("  route       Plan a trip, optionally through waypoints")
	fmt.Println("  reach       Search from one origin to many targets")
	fmt.Println("")
	fmt.Println("Use 'routing-cli <command> -h' for more information about a command.")
}

// Command implementations are in their respective files
