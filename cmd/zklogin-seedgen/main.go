package main

import (
	"flag"
	"log"
	"os"

	"zklogin-salt/go-backend/internal/tools/seedgen"
)

func main() {
	cfg, err := seedgen.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := seedgen.Run(cfg, os.Stdout, nil, os.Getenv("ZKLOGIN_SALT_PASSPHRASE")); err != nil {
		log.Fatalf("zklogin-seedgen: %v", err)
	}
}
