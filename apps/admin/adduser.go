package main

import (
	"context"
	"fmt"

	"github.com/trezcool/etudes/core/principal"
)

// addUser registers a new principal.Principal in the credentials file.
func (cli *commandLine) addUser(np principal.NewPrincipal) error {
	p, err := cli.prinSvc.Create(context.Background(), np)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s (%s) registered as %s\n", p.ID, p.DisplayName, p.Role)
	return nil
}

func (cli *commandLine) listUsers() error {
	ps, err := cli.prinSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, p := range ps {
		_, _ = fmt.Fprintf(cli.out, "%-20s %-8s %s\n", p.ID, p.Role, p.DisplayName)
	}
	return nil
}
