// Command xcsim runs a design under test against the bus transactor.
package main

import "github.com/scarv/xcsim/xcsim/cmd"

func main() {
	cmd.Execute()
}
