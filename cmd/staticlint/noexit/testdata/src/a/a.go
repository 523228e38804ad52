package main

import (
	"log"
	"os"

	"go.uber.org/zap"
)

var sugar = &zap.SugaredLogger{}

func helper() {
	os.Exit(2)
}

func main() {
	defer helper()
	plain := &zap.Logger{}
	exit := func() { os.Exit(3) }

	os.Exit(1) // want `avoid os.Exit in main.main: deferred calls do not run`
	log.Fatal("boom") // want `avoid log.Fatal in main.main: deferred calls do not run`
	log.Fatalf("boom %d", 1) // want `avoid log.Fatalf in main.main: deferred calls do not run`
	log.New(os.Stderr, "", 0).Fatalln("boom") // want `avoid log.Fatalln in main.main: deferred calls do not run`
	sugar.Fatalln("boom") // want `avoid zap.Fatalln in main.main: deferred calls do not run`
	plain.Fatal("boom") // want `avoid zap.Fatal in main.main: deferred calls do not run`
	log.Println("fine")
	plain.Info("fine")
	exit()
	panic("fine")
}
