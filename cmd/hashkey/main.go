// Command hashkey prints the Argon2id hash of an operator key for
// auth.operator_key_hash.
package main

import (
	"fmt"
	"os"

	"github.com/KevinKickass/donp/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashkey <operator-key>")
		os.Exit(2)
	}

	hash, err := auth.NewKeyHasher().HashKey(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
