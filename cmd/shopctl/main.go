package main

import "github.com/example/brownie-shop/cmd/shopctl/commands"

func main() {
	commands.Execute()
}
