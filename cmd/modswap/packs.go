package main

import (
	"context"
	"fmt"
	"strings"
)

func packsCommand(configs []string) error {
	session, err := startSession(context.Background(), configs)
	if err != nil {
		return err
	}

	registry := session.Registry
	previous, _ := registry.Active()

	for _, pack := range registry.List() {
		if err := registry.Activate(pack.Name); err != nil {
			return err
		}

		source := pack.Source
		if pack.Default {
			source = "(built in)"
		}

		fmt.Printf("%-20s %016x %s\n", pack.Name, pack.Checksum, source)
		if missing := registry.Unresolved(); len(missing) > 0 {
			fmt.Printf("%-20s missing: %s\n", "", strings.Join(missing, ", "))
		}
	}

	return registry.Activate(previous.Name)
}
