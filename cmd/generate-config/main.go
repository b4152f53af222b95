package main

import (
	"os"

	"gopkg.in/yaml.v2"

	"headsup-server/internal/config"
)

func main() {
	if err := yaml.NewEncoder(os.Stdout).Encode(config.DefaultConfig()); err != nil {
		panic(err)
	}
}
