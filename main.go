package main

import (
	"os"

	"imagededup/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
