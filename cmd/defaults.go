package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evcharge-sim/evcharge-sim/sim"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the effective configuration as YAML",
	Long:  "Print the configuration a run would use: defaults, then --config, then EVSIM_* environment overrides. The output is a valid --config file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeConfigYAML(os.Stdout, cfg); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func writeConfigYAML(w io.Writer, cfg *sim.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
}
