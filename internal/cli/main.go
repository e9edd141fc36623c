package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forPelevin/shortsfinder/internal/config"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:          "shortsfinder",
		Short:        "Find short-form clip opportunities in podcast transcripts",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (yaml, json or toml)")
	pf.String("source", "json", "Transcript source: json, mongo or postgres")
	pf.String("data", "data/all_transcripts.json", "Transcript JSON file (json source)")
	pf.String("vocab", "", "Vocabulary YAML overriding the built-in pattern tables")
	pf.String("log-level", "info", "Log level")
	pf.String("log-format", "text", "Log format: text or json")
	mustBind(v, "source.kind", root, "source")
	mustBind(v, "source.path", root, "data")
	mustBind(v, "engine.vocabulary_path", root, "vocab")
	mustBind(v, "log.level", root, "log-level")
	mustBind(v, "log.format", root, "log-format")

	root.AddCommand(newServeCmd(v), newClipsCmd(v))
	return root
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
