package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/reportcli"
)

func main() {
	if err := reportcli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, reportcli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			reportcli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
