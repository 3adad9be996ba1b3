package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	terminal "golang.org/x/term"

	"github.com/Shopify/toxics/app"
	"github.com/Shopify/toxics/controller"
	"github.com/Shopify/toxics/pkg/errors"
	"github.com/Shopify/toxics/scenario"
)

var Version = "1.0.0"

var scenarioDescription = `
  Scenarios target the proxy named by --proxy (TOXIPROXY_PROXY):
` + describeScenarios() + `
  temporary:
    usage: toxics temporary <scenario> <durationSeconds>

    example: toxics temporary latency 10
      applies latency for 10s, removes it for 10s, and repeats until
      interrupted. The first Ctrl-C removes the fault and exits; a second
      one abandons the cleanup.
`

var (
	isTTY bool

	// logOutput overrides where logs go, tests capture them here.
	logOutput io.Writer
)

func main() {
	isTTY = terminal.IsTerminal(int(os.Stdout.Fd()))

	err := newCLI(os.Stdout, os.Stderr).Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", color(RED), err, color(NONE))
		os.Exit(exitCode(err))
	}
}

func newCLI(stdout, stderr io.Writer) *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = "toxics"
	cliApp.Version = Version
	cliApp.Usage = "Inject network faults into the broker bridge through toxiproxy"
	cliApp.Description = scenarioDescription
	cliApp.Writer = stdout
	cliApp.ErrWriter = stderr
	cliApp.Commands = cliCommands()
	cliApp.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   app.DefaultEndpoint,
			Usage:   "toxiproxy control plane to connect to",
			EnvVars: []string{"TOXIPROXY_URL"},
		},
		&cli.StringFlag{
			Name:    "proxy",
			Aliases: []string{"p"},
			Value:   app.DefaultProxy,
			Usage:   "name of the proxy scenarios are applied to",
			EnvVars: []string{"TOXIPROXY_PROXY"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML or JSON file with endpoint, proxy and timeouts",
			EnvVars: []string{"TOXICS_CONFIG"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: app.DefaultRequestTimeout,
			Usage: "timeout for each control plane request",
		},
		&cli.DurationFlag{
			Name:  "cleanup-timeout",
			Value: app.DefaultCleanupTimeout,
			Usage: "how long an interrupted temporary session may spend removing its fault",
		},
	}
	cliApp.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		if c.Args().Present() {
			return usageErrorf("unknown command %q", c.Args().First())
		}
		return usageErrorf("a command is required")
	}
	// Errors are reported by main so the exit code follows our taxonomy.
	cliApp.ExitErrHandler = func(*cli.Context, error) {}
	return cliApp
}

func cliCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:    "list-proxies",
			Usage:   "list all proxies\n\tusage: 'toxics list-proxies'\n",
			Aliases: []string{"ls"},
			Action:  withController(listProxies),
		},
		{
			Name:   "list-toxics",
			Usage:  "list the toxics on the target proxy\n\tusage: 'toxics list-toxics'\n",
			Action: withController(listToxics),
		},
		{
			Name:      "apply",
			Usage:     "apply a scenario\n\tusage: 'toxics apply <scenario>'\n",
			ArgsUsage: "<scenario>",
			Action:    withController(applyScenario),
		},
		{
			Name:      "remove",
			Usage:     "remove a scenario\n\tusage: 'toxics remove <scenario>'\n",
			ArgsUsage: "<scenario>",
			Action:    withController(removeScenario),
		},
		{
			Name: "temporary",
			Usage: "toggle a scenario on and off until interrupted\n\t" +
				"usage: 'toxics temporary <scenario> <durationSeconds>'\n",
			ArgsUsage: "<scenario> <durationSeconds>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "metrics-addr",
					Usage: "serve Prometheus metrics on this address while running",
				},
			},
			Action: withController(temporaryScenario),
		},
		{
			Name:   "scenarios",
			Usage:  "list the known scenarios\n\tusage: 'toxics scenarios'\n",
			Action: listScenarios,
		},
		{
			Name:   "status",
			Usage:  "show the control plane version and target proxy state\n\tusage: 'toxics status'\n",
			Action: withController(status),
		},
	}
}

type controllerAction func(*cli.Context, *app.App, *controller.Controller) error

func withController(f controllerAction) func(*cli.Context) error {
	return func(c *cli.Context) error {
		config, err := loadConfig(c)
		if err != nil {
			return err
		}

		a, err := app.NewApp(config)
		if err != nil {
			return err
		}

		client := a.NewClient(fmt.Sprintf(
			"toxics/%s (%s/%s)",
			c.App.Version,
			runtime.GOOS,
			runtime.GOARCH,
		))
		return f(c, a, a.NewController(client))
	}
}

// loadConfig layers defaults, the config file, then flags and environment.
func loadConfig(c *cli.Context) (app.Config, error) {
	config := app.DefaultConfig()

	if path := c.String("config"); path != "" {
		file, err := app.LoadFile(path)
		if err != nil {
			return config, errors.JoinError(err, errors.ErrUsage)
		}
		if err := file.Overlay(&config); err != nil {
			return config, errors.JoinError(err, errors.ErrUsage)
		}
	}

	if c.IsSet("host") {
		config.Endpoint = c.String("host")
	}
	if c.IsSet("proxy") {
		config.Proxy = c.String("proxy")
	}
	if c.IsSet("timeout") {
		config.RequestTimeout = c.Duration("timeout")
	}
	if c.IsSet("cleanup-timeout") {
		config.CleanupTimeout = c.Duration("cleanup-timeout")
	}
	if c.IsSet("metrics-addr") {
		config.MetricsAddr = c.String("metrics-addr")
	}
	config.LogOutput = logOutput

	return config, nil
}

func listProxies(c *cli.Context, a *app.App, ctl *controller.Controller) error {
	proxies, err := ctl.ListProxies(c.Context)
	if err != nil {
		return err
	}
	printProxies(c.App.Writer, proxies)
	return nil
}

func listToxics(c *cli.Context, a *app.App, ctl *controller.Controller) error {
	toxics, err := ctl.ListToxics(c.Context)
	if err != nil {
		return err
	}
	printToxics(c.App.Writer, a.Config.Proxy, toxics)
	return nil
}

func applyScenario(c *cli.Context, a *app.App, ctl *controller.Controller) error {
	id, err := scenarioArg(c)
	if err != nil {
		return err
	}
	if err := ctl.Apply(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Applied scenario '%s' on proxy '%s'\n", id, a.Config.Proxy)
	return nil
}

func removeScenario(c *cli.Context, a *app.App, ctl *controller.Controller) error {
	id, err := scenarioArg(c)
	if err != nil {
		return err
	}
	if err := ctl.Remove(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed scenario '%s' on proxy '%s'\n", id, a.Config.Proxy)
	return nil
}

func temporaryScenario(c *cli.Context, a *app.App, ctl *controller.Controller) error {
	id, err := scenarioArg(c)
	if err != nil {
		return err
	}
	if c.Args().Len() < 2 {
		cli.ShowSubcommandHelp(c)
		return usageErrorf("duration in seconds is required as the second argument")
	}
	period, err := controller.ParseDuration(c.Args().Get(1))
	if err != nil {
		return err
	}
	if _, err := scenario.Lookup(id); err != nil {
		return err
	}

	watcher := watchSignals(a.Logger, os.Interrupt, syscall.SIGTERM)
	defer watcher.Stop()

	if a.Config.MetricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if _, err := a.ServeMetrics(metricsCtx, a.Config.MetricsAddr); err != nil {
			return usageErrorf("cannot serve metrics on %s: %s", a.Config.MetricsAddr, err)
		}
	}

	fmt.Fprintf(
		c.App.Writer,
		"Toggling scenario '%s' on proxy '%s' every %s, interrupt to stop\n",
		id,
		a.Config.Proxy,
		period,
	)
	return ctl.Temporary(watcher.Interrupted(), watcher.Aborted(), id, period)
}

func listScenarios(c *cli.Context) error {
	printScenarios(c.App.Writer, scenario.All())
	return nil
}

func status(c *cli.Context, a *app.App, ctl *controller.Controller) error {
	st, err := ctl.Status(c.Context)
	if err != nil {
		return err
	}
	printStatus(c.App.Writer, a.Config, st)
	return nil
}

func scenarioArg(c *cli.Context) (string, error) {
	id := c.Args().First()
	if id == "" {
		cli.ShowSubcommandHelp(c)
		return "", usageErrorf(
			"scenario is required as the first argument, one of: %s",
			strings.Join(scenario.IDs(), ", "),
		)
	}
	return id, nil
}

func usageErrorf(m string, args ...interface{}) error {
	return errors.JoinError(fmt.Errorf(m, args...), errors.ErrUsage)
}

// exitCode maps err to the process exit status. Anything outside the
// taxonomy comes from argument parsing and counts as a usage error.
func exitCode(err error) int {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.ExitCode
	}
	return errors.ExitUsage
}
