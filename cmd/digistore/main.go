package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	corecmd "digistore/core/cmd"
	"digistore/internal/app"
)

func main() {
	// Local deployments keep the token and admin id in .env.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := app.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			application, err := app.Build(cfg)
			if err != nil {
				return nil, err
			}
			return application, nil
		},
	})
	if err != nil {
		log.Fatalf("digistore: %v", err)
	}
}
