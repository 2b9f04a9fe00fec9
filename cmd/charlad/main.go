package main

import (
	"flag"

	"go.uber.org/fx"

	"github.com/charla-im/charla/internal/daemon"
	"github.com/charla-im/charla/internal/home"
)

func main() {
	homeFlag := flag.String("home", "", "charla home directory (overrides CHARLA_HOME)")
	listenFlag := flag.String("listen", "", "listen address (overrides config)")
	flag.Parse()

	app := fx.New(
		daemon.Module(daemon.Params{
			HomeDir: home.Resolve(*homeFlag),
			Listen:  *listenFlag,
		}),
	)

	app.Run()
}
