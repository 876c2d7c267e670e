package main

import "github.com/JonMunkholm/registrar/cmd/registrar/cmd"

func main() {
	cmd.Execute()
}
