package main

import (
	"gemtracks/cmd/gemtracks/commands"
	"gemtracks/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
