package main

import (
	"os"

	"github.com/rogpeppe/rjson"
)

type config struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	Debug   bool   `json:"debug"`
}

// loadConfig returns an empty configuration if the file does not exist.
func loadConfig(pathname string) (*config, error) {
	c := new(config)
	f, err := os.Open(pathname)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	err = rjson.NewDecoder(f).Decode(c)
	return c, err
}
