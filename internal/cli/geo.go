package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/geo"
)

func init() {
	cmd := &cobra.Command{
		Use:   "geo",
		Short: "Location helpers for place-triggered modes",
	}

	distance := &cobra.Command{
		Use:   "distance <lat1> <lon1> <lat2> <lon2>",
		Short: "Great-circle distance in meters",
		Args:  cobra.ExactArgs(4),
		Run:   runGeoDistance,
	}
	distance.Flags().Float64("radius", 0, "Also report whether the points are within this many meters")

	address := &cobra.Command{
		Use:   "address <lat> <lon>",
		Short: "Reverse geocode a position",
		Args:  cobra.ExactArgs(2),
		Run:   runGeoAddress,
	}
	cmd.AddCommand(distance, address)

	RootCmd.AddCommand(cmd)
}

func parseCoords(args []string) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			exitErr("parse coordinate", err)
		}
		out[i] = v
	}
	return out
}

func runGeoDistance(cmd *cobra.Command, args []string) {
	c := parseCoords(args)
	radius, _ := cmd.Flags().GetFloat64("radius")

	d := geo.Distance(c[0], c[1], c[2], c[3])
	res := map[string]any{"meters": d}
	if cmd.Flags().Changed("radius") {
		res["radius"] = radius
		res["within"] = geo.WithinRadius(c[0], c[1], c[2], c[3], radius)
	}
	if textOutput() {
		fmt.Printf("%.1f m\n", d)
		return
	}
	printJSON(res)
}

func runGeoAddress(cmd *cobra.Command, args []string) {
	c := parseCoords(args)
	g := geo.NewNominatimGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout)

	addr := geo.Describe(cmd.Context(), g, c[0], c[1])
	if textOutput() {
		fmt.Println(addr)
		return
	}
	printJSON(map[string]any{"latitude": c[0], "longitude": c[1], "address": addr})
}
