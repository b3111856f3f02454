package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wavelab/wavesim/simulation"
	"github.com/wavelab/wavesim/vtime"
)

var (
	demoMessages    int
	demoMonitorOff  bool
	demoMonitorPort int
	demoDashboard   bool
	demoOutput      string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a small ping-pong simulation",
	Long: `Run a small ping-pong simulation between two nodes. Each message ` +
		`takes 50 microseconds to propagate. The event trace is recorded ` +
		`into a SQLite database.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().IntVar(&demoMessages, "messages", 10,
		"number of messages to exchange")
	demoCmd.Flags().BoolVar(&demoMonitorOff, "no-monitor", false,
		"disable the monitoring server")
	demoCmd.Flags().IntVar(&demoMonitorPort, "monitor-port", 0,
		"port for the monitoring server, 0 picks a free port")
	demoCmd.Flags().BoolVar(&demoDashboard, "dashboard", false,
		"open the monitoring page in the default browser")
	demoCmd.Flags().StringVar(&demoOutput, "output", "",
		"output database file name, without the .sqlite3 suffix")

	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	applyDemoEnv()

	builder := simulation.MakeBuilder().
		WithResolution(vtime.Microsecond)
	if demoMonitorOff {
		builder = builder.WithoutMonitoring()
	} else if demoMonitorPort > 0 {
		builder = builder.WithMonitorPort(demoMonitorPort)
	}
	if demoOutput != "" {
		builder = builder.WithOutputFileName(demoOutput)
	}

	s := builder.Build()

	if demoDashboard && s.GetMonitor() != nil {
		if err := s.GetMonitor().OpenDashboard(); err != nil {
			fmt.Fprintln(os.Stderr, "cannot open dashboard:", err)
		}
	}

	ping := s.RegisterNode("Ping", nil)
	pong := s.RegisterNode("Pong", nil)
	engine := s.GetEngine()

	const propagation = vtime.Duration(50) // 50 us

	delivered := 0
	var deliver func() error
	deliver = func() error {
		delivered++
		if delivered >= demoMessages {
			return nil
		}

		next := pong
		if engine.Context() == pong {
			next = ping
		}

		_, err := engine.ScheduleAt(next, propagation, deliver)
		return err
	}

	if _, err := engine.ScheduleAt(pong, propagation, deliver); err != nil {
		return err
	}

	if err := engine.Run(); err != nil {
		return err
	}

	seconds := engine.Resolution().ToSeconds(engine.Now())
	fmt.Printf("delivered %d messages in %.6f simulated seconds\n",
		delivered, seconds)

	return s.Terminate()
}

// applyDemoEnv fills in flags that are still at their defaults from the
// environment, typically loaded from a .env file.
func applyDemoEnv() {
	if demoMonitorPort == 0 {
		if v := os.Getenv("WAVESIM_MONITOR_PORT"); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				demoMonitorPort = port
			}
		}
	}

	if demoOutput == "" {
		demoOutput = os.Getenv("WAVESIM_OUTPUT")
	}
}
