package main

import "gitlab.com/sfr-tokyo/economy_api/cmd"

func main() {
	cmd.Execute()
}
