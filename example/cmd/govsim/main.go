package main

import "github.com/wooyang2018/govchain/example/cmd/govsim/cmd"

func main() {
	cmd.Execute()
}
