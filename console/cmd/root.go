package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jlog "github.com/luno/jettison/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luno/optconsole"
	"github.com/luno/optconsole/console/ops/config"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "optconsole",
	Short: "Operator console for the service placement optimizer",
	Long: `optconsole drives a service placement optimizer backend over REST. The watch
command keeps a live view of the backend and serves it as a dashboard, the other
commands are one-shot operations for scripts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLogger(os.Stderr, viper.GetString("log_format"), cmd.Name())
		if err != nil {
			return err
		}
		jlog.SetLogger(l)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.optconsole/config.yaml)")
	pf.StringVar(&outputFormat, "output", "table", "output format: table or json")
	pf.String("backend", "http://localhost:8080", "optimizer backend base URL")
	pf.Duration("request_timeout", 10*time.Second, "timeout of a single backend request")
	pf.String("console_config", "", "yaml file with presets, constraints and status patterns (default embedded)")
	pf.String("log_format", "json", "log format on stderr: json or text")

	for _, name := range []string{"backend", "request_timeout", "console_config", "log_format"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".optconsole"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OPTCONSOLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}

func isJSONOutput() bool {
	return outputFormat == "json"
}

func loadConsoleConfig() (config.Config, error) {
	return config.Load(viper.GetString("console_config"))
}

// newClient builds the backend client. Endpoint paths can be overridden
// under the paths key of the config file.
func newClient(opts ...optconsole.ClientOption) *optconsole.Client {
	var paths optconsole.Paths
	_ = viper.UnmarshalKey("paths", &paths)

	return optconsole.NewClient(append([]optconsole.ClientOption{
		optconsole.WithBaseURL(viper.GetString("backend")),
		optconsole.WithRequestTimeout(viper.GetDuration("request_timeout")),
		optconsole.WithPaths(paths),
	}, opts...)...)
}
