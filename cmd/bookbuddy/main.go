package main

import (
	"log"

	"github.com/patric-chuzhbe/bookbuddy/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatal(err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Println(err)
	}
}
