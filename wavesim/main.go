package main

import "github.com/wavelab/wavesim/wavesim/cmd"

func main() {
	cmd.Execute()
}
