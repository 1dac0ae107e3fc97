package main

import "github.com/Cy8erEgo/repo-analyzer/cmd"

func main() {
	cmd.Execute()
}
