package main

import "github.com/formbridge/mollie-gateway/cmd"

func main() {
	cmd.Execute()
}
