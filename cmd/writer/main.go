// Command writer writes its second argument to the file named by its first,
// logging to syslog under the user facility. It exits 1 on any error.
//
// It takes no flags. Logging is configured through POSIXKIT_WRITER_* variables
// or the configuration file named by POSIXKIT_CONFIG.
package main

import (
	"os"

	"posixkit/internal/writer"
)

func main() {
	cmd := writer.NewCommand("writer")
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
