package main

import (
	"github/chapool/go-relay/cmd"
)

func main() {
	cmd.Execute()
}
