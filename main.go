package main

import "github.com/fbz-tec/dbport/cmd"

func main() {
	cmd.Execute()
}
