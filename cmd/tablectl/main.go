// Command tablectl inspects table schemas and applies record streams to an
// in-memory reactive table store.
package main

import "github.com/primodiumxyz/reactive-tables-sub000/internal/cli"

func main() {
	cli.Execute()
}
