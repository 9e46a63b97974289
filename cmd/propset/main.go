// propset reads and edits .properties files: local, over http(s),
// in an S3 compatible bucket or on a remote host over ssh.
package main

import (
	"fmt"
	"os"
)

var (
	run = func() error {
		app := &App{
			Out: os.Stdout,
			Err: os.Stderr,
		}
		defer app.Close()
		return newRootCmd(app).Execute()
	}
	osExit = os.Exit
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "propset: %s\n", err)
		osExit(1)
	}
}
