package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/samber/lo"

	"racer-ai-core/utils"
)

func main() {
	var (
		scenPath    = flag.String("scenario", "config/scenarios/oval_duel.json", "Scenario JSON file")
		mapPath     = flag.String("map", "config/can/can_map.csv", "Path to can_map.csv; empty disables frames")
		iface       = flag.String("iface", "", "SocketCAN interface name; empty keeps frames in memory")
		frameName   = flag.String("frame", "AI_CONTROL_CMD", "Control frame to transmit")
		statusFrame = flag.String("status-frame", "AI_STATUS", "Status frame to transmit; empty disables")
		logLevel    = flag.String("log", "info", "trace|debug|info|warn|error|critical")
		logFile     = flag.String("logfile", "closed_loop.log", "Log file")
		csvPath     = flag.String("csv", "", "Telemetry CSV output")
		plotPath    = flag.String("plot", "", "Trajectory PNG output")
		monitor     = flag.Bool("monitor", false, "Decode and log frames seen on -iface instead of running a scenario")
	)
	flag.Parse()

	log, err := utils.NewFileLogger(*logFile, utils.ParseLevel(*logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open " + *logFile + ": " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *monitor {
		if err := runMonitor(ctx, *iface, *mapPath, log); err != nil {
			log.Critical("Monitor failed: %v", err)
			os.Exit(1)
		}
		return
	}

	cfg := RunnerConfig{
		Interface:    *iface,
		MapPath:      *mapPath,
		ScenarioPath: *scenPath,
		FrameName:    *frameName,
		StatusFrame:  *statusFrame,
		CSVPath:      *csvPath,
		PlotPath:     *plotPath,
	}

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}

func runMonitor(ctx context.Context, iface, mapPath string, log *utils.Logger) error {
	if iface == "" {
		return errors.New("monitor needs -iface")
	}
	cmap, err := utils.LoadCANMap(mapPath)
	if err != nil {
		return fmt.Errorf("load can map: %w", err)
	}
	r, err := utils.NewSocketCANReader(ctx, iface)
	if err != nil {
		return err
	}
	defer r.Close()

	log.Info("Monitoring %s (%d frames known)", iface, len(cmap.FrameNames()))
	return utils.MonitorCAN(ctx, r, cmap, log, func(fd *utils.FrameDef, values map[string]float64) {
		log.Info("%s %s", fd.Name, formatValues(values))
	})
}

func formatValues(values map[string]float64) string {
	keys := lo.Keys(values)
	slices.Sort(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string {
		return fmt.Sprintf("%s=%.3f", k, values[k])
	}), " ")
}
