package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goodtune/runtracker/internal/config"
	"github.com/goodtune/runtracker/internal/geo"
	"github.com/goodtune/runtracker/internal/location"
	storageredis "github.com/goodtune/runtracker/internal/storage/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	publishLat     float64
	publishLng     float64
	publishDevice  string
	publishChannel string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a location sample to the redis location channel",
	Long: `Send one location sample to the redis channel a runtracker with
location.source=redis is listening on. Useful for driving a session by hand.`,
	Example: `  runtracker publish -c config.yaml --lat 51.5007 --lng -0.1246
  runtracker publish --device phone-1 --lat 51.5033 --lng -0.1195`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().Float64Var(&publishLat, "lat", 0, "Latitude in degrees")
	publishCmd.Flags().Float64Var(&publishLng, "lng", 0, "Longitude in degrees")
	publishCmd.Flags().StringVar(&publishDevice, "device", "", "Device whose channel receives the sample (default location.device)")
	publishCmd.Flags().StringVar(&publishChannel, "channel", "", "Explicit channel name (default location.channel)")
	_ = publishCmd.MarkFlagRequired("lat")
	_ = publishCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	loc := cfg.Location
	if publishDevice != "" {
		loc.Device = publishDevice
		loc.Channel = ""
	}
	if publishChannel != "" {
		loc.Channel = publishChannel
	}

	client, err := storageredis.NewClient(cfg.Storage.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	return publishSample(ctx, cmd.OutOrStdout(), client, locationChannel(loc), geo.Point{Lat: publishLat, Lng: publishLng})
}

// publishSample validates p and sends it to channel.
func publishSample(ctx context.Context, out io.Writer, client *redis.Client, channel string, p geo.Point) error {
	if !p.Valid() {
		return fmt.Errorf("invalid location %s: latitude must be within ±90 and longitude within ±180", p)
	}

	if err := location.PublishPoint(ctx, client, channel, p); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Published %s to %s\n", p, channel)
	return nil
}
