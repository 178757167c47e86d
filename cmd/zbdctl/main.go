// Command zbdctl inspects, resets, and benchmarks zoned block devices.
package main

import "github.com/behrlich/go-zbd/cmd/zbdctl/cmd"

func main() {
	cmd.Execute()
}
