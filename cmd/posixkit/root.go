package main

import (
	"context"

	"posixkit/cmd/posixkit/demo"
	"posixkit/cmd/posixkit/process"
	"posixkit/cmd/posixkit/settings"
	"posixkit/internal/app"
	"posixkit/internal/writer"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "posixkit",
		Short: "Small POSIX process and synchronization utilities",
		Long:  `posixkit runs shell commands, launches executables with optional output redirection, demonstrates a shared-lock worker and writes files with syslog logging`,
	}

	app.RegisterFlags(rootCmd)

	rootCmd.AddCommand(process.NewSystemCommand())
	rootCmd.AddCommand(process.NewExecCommand())
	rootCmd.AddCommand(demo.NewMutexDemoCommand())
	rootCmd.AddCommand(writer.NewCommand("write"))
	rootCmd.AddCommand(settings.NewConfigCommand())
	return rootCmd
}

func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}
