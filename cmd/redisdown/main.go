// Command redisdown reads and writes a redisdown location from the shell.
//
//	redisdown --location rooms put 1 '{"name":"lobby"}'
//	redisdown --location rooms scan --gte 1 --limit 10
//	redisdown --url redis://:secret@cache:6379/rooms shell
//
// Every flag can also be set through REDISDOWN_<FLAG> (dashes become
// underscores), read from the environment or from .env / .env.local.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
