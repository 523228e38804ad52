// Command todotracker runs the multi-tenant todo tracker service.
package main

import (
	"github.com/patric-chuzhbe/todotracker/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		panic(err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		panic(err)
	}
}
