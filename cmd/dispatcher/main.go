package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/personal-assistant-for-students/dispatcher-service/core/buildinfo"
	corecmd "github.com/personal-assistant-for-students/dispatcher-service/core/cmd"
	coreconfig "github.com/personal-assistant-for-students/dispatcher-service/core/config"
	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/bot"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dispatcher %s (%s, %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			if err := logger.InitLogger(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.App, error) {
			return bot.New(cfg)
		},
	})
	if err != nil {
		log.Printf("dispatcher exited with error: %v", err)
		os.Exit(1)
	}
}
