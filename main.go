package main

import (
	"github.com/diskarchaeology/a2disk/cmd"
)

func main() {
	cmd.Execute()
}
