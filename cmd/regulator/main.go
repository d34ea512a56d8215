package main

import "github.com/MrEthical07/regulator/internal/cli"

func main() {
	cli.Execute()
}
