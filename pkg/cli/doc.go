/*
Package cli provides helpers shared by the trackrelay commands.

Output Formatting:

Commands that report a result support text and JSON output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Errors:

ConfigError and CommandError carry the exit code the binary returns
(ExitCode), so scripts can tell a bad configuration from a runtime failure.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
