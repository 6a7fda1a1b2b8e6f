package main

import (
	"os"

	"github.com/hackgods/clinic-booking/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
