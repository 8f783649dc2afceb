// Package main is the doorfinder command: it segments recorded depth frames into planes and
// reports the straight edges found on each plane.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/swatdrc/doorpcl/logging"
	"github.com/swatdrc/doorpcl/rimage"
)

const (
	// Flags.
	flagConfig            = "config"
	flagFrames            = "frames"
	flagIntrinsics        = "intrinsics"
	flagDefaultIntrinsics = "default-intrinsics"
	flagStart             = "start"
	flagCount             = "count"
	flagDebug             = "debug"
)

// newDetector builds the line detector; tests swap it for one that does not need OpenCV.
var newDetector = rimage.NewCannyHoughDetector

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var logger logging.Logger

	return &cli.App{
		Name:  "doorfinder",
		Usage: "find planes and their straight edges in recorded depth frames",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("doorfinder")
			} else {
				logger = logging.NewLogger("doorfinder")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				//nolint:errcheck
				logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "segment numbered PCD frames until one is missing",
				UsageText: "doorfinder run --frames PREFIX [--config FILE] [--intrinsics FILE] [--default-intrinsics]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`",
					},
					&cli.StringFlag{
						Name:  flagFrames,
						Usage: "read frames from `PREFIX`<n>.pcd, overriding frames.prefix",
					},
					&cli.StringFlag{
						Name:  flagIntrinsics,
						Usage: "load camera intrinsics from a JSON `FILE`, overriding the camera section",
					},
					&cli.BoolFlag{
						Name:  flagDefaultIntrinsics,
						Usage: "use the default depth sensor intrinsics when none are configured",
					},
					&cli.IntFlag{
						Name:  flagStart,
						Usage: "first frame number, overriding frames.start",
					},
					&cli.IntFlag{
						Name:  flagCount,
						Usage: "stop after this many frames; 0 reads until a frame is missing",
					},
				},
				Action: func(c *cli.Context) error {
					_, err := runAction(c, logger)
					return err
				},
			},
		},
	}
}
