package main

import (
	"os"
	quit "os"
)

func helper() {
	os.Exit(2)
}

func main() {
	defer helper()

	go func() {
		os.Exit(3)
	}()

	if len(os.Args) > 1 {
		quit.Exit(1) // want "avoid using os.Exit in main.main"
	}

	os.Exit(0) // want "avoid using os.Exit in main.main"
}
