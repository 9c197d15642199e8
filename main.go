package main

import "github.com/lockplane/schemaguard/cmd"

func main() {
	cmd.Execute()
}
