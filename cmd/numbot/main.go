// Command numbot runs the numerology Telegram bot.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/m3rciful/numerobot/core/buildinfo"
	corecmd "github.com/m3rciful/numerobot/core/cmd"
	"github.com/m3rciful/numerobot/internal/app"
)

func main() {
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *version {
		fmt.Println(buildinfo.String())
		return
	}

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Printf("numbot: %v", err)
		os.Exit(1)
	}
}
