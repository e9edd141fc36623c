package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forPelevin/shortsfinder/internal/config"
	"github.com/forPelevin/shortsfinder/internal/pipeline"
	"github.com/forPelevin/shortsfinder/internal/usecase"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the clip API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolve(cmd, v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return pipeline.Serve(ctx, cfg, pipeline.NewLogger(cfg))
		},
	}
	cmd.Flags().String("addr", ":3000", "Listen address")
	mustBind(v, "server.addr", cmd, "addr")
	return cmd
}

func newClipsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clips",
		Short: "Print ranked clips as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolve(cmd, v)
			if err != nil {
				return err
			}
			q := usecase.DefaultQuery()
			f := cmd.Flags()
			q.EpisodeID, _ = f.GetString("episode")
			q.MinDuration, _ = f.GetFloat64("min")
			q.MaxDuration, _ = f.GetFloat64("max")
			q.MinScore, _ = f.GetInt("min-score")
			q.Limit, _ = f.GetInt("limit")
			q.Speaker, _ = f.GetString("speaker")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			log := pipeline.NewLogger(cfg)
			log.SetOutput(cmd.ErrOrStderr())
			app, err := pipeline.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(ctx); err != nil {
					log.WithError(err).Warn("close source")
				}
			}()

			res, err := app.Usecase.FindClips(ctx, q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	f := cmd.Flags()
	f.String("episode", usecase.AllEpisodes, "Episode id, or all")
	f.Float64("min", 30, "Min clip duration seconds")
	f.Float64("max", 90, "Max clip duration seconds")
	f.Int("min-score", 70, "Min score")
	f.Int("limit", 10, "Max clips to print")
	f.String("speaker", "", "Keep clips whose speaker contains this text")
	return cmd
}

func resolve(cmd *cobra.Command, v *viper.Viper) (pipeline.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	root, err := config.Load(v, file)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}
	cfg := pipeline.Config{Root: root}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
