package main

import (
	"os"

	"github.com/yoockh/hirelink/app/jobctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
