package main

import "github.com/hireloop/keypool/internal/cli"

func main() {
	cli.Execute()
}
