package main

import "ticketshub/cmd"

func main() {
	cmd.Execute()
}
