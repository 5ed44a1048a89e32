// Command dumpkey reads a service account JSON key file and prints it as a
// compact single-line string, ready to be stored in an environment variable.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/MonumentoSoftware/monugstore/internal/creds"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: dumpkey <key-file>")
	}

	out, err := creds.DumpKey(os.Args[1])
	if err != nil {
		log.Fatalf("error dumping key file: %v", err)
	}

	fmt.Println(out)
}
