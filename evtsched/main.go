// Command evtsched inspects, records and serves cyclic event schedules.
package main

import "github.com/sarchlab/evtsched/evtsched/cmd"

func main() {
	cmd.Execute()
}
