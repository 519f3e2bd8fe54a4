package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nicolagi/kvgate/codec"
	"github.com/nicolagi/kvgate/gateway"
	"github.com/nicolagi/kvgate/storage"
	log "github.com/sirupsen/logrus"
)

var errUsage = errors.New("usage: kvgatectl [-config file] [-address addr] [-token t] put [-ciphertext] name [file] | get name | decode name")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.WithField("err", err).Fatal("Failed")
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("kvgatectl", flag.ContinueOnError)
	configFile := fs.String("config", os.ExpandEnv("$HOME/lib/kvgate/kvgatectl.config"), "location of configuration file")
	address := fs.String("address", "", "gateway address, host:port or URL")
	token := fs.String("token", "", "shared token")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	c, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("could not load configuration %q: %w", *configFile, err)
	}
	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if v := os.Getenv("KVGATE_TOKEN"); v != "" {
		c.Token = v
	}
	if *address != "" {
		c.Address = *address
	}
	if *token != "" {
		c.Token = *token
	}
	if c.Address == "" {
		c.Address = "localhost:8080"
	}
	if c.Token == "" {
		c.Token = gateway.DefaultToken
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return errUsage
	}
	switch cmd := rest[0]; cmd {
	case "put":
		return put(c, rest[1:], stdin)
	case "get", "decode":
		if len(rest) != 2 {
			return errUsage
		}
		return get(c, rest[1], cmd == "decode", stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func put(c *config, args []string, stdin io.Reader) error {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	ciphertext := fs.Bool("ciphertext", false, "store the value base64 encoded")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errUsage
	}
	name := fs.Arg(0)
	in := stdin
	if fs.NArg() == 2 {
		f, err := os.Open(fs.Arg(1))
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		in = f
	}
	value, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	mode := codec.Plaintext
	if *ciphertext {
		mode = codec.Ciphertext
	}
	store, err := storage.NewRemoteStore(c.Address, c.Token, storage.WithMode(mode))
	if err != nil {
		return err
	}
	if err := store.Put(name, value); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"key":  name,
		"mode": mode,
		"size": len(value),
	}).Debug("Stored")
	return nil
}

func get(c *config, name string, decode bool, stdout io.Writer) error {
	store, err := storage.NewRemoteStore(c.Address, c.Token)
	if err != nil {
		return err
	}
	value, err := store.Get(name)
	if err != nil {
		return err
	}
	if decode {
		text, err := codec.Decode(value)
		if err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		_, err = io.WriteString(stdout, text)
		return err
	}
	_, err = stdout.Write(value)
	return err
}
