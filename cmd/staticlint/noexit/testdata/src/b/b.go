package b

import (
	"log"
	"os"
)

func main() {
	log.Fatal("not a main package")
	os.Exit(1)
}
