/*
Package cli provides command-line helpers for the pursuit command.

Output Formatting:

Filter results and command summaries are written as text, JSON or CSV:

	format, err := cli.ParseOutputFormat(flagFormat)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, matched); err != nil {
		return err
	}

Progress Reporting:

The bench command reports iterations on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "cost", "iter")
	progress.Start(iterations)
	for i := int64(1); i <= iterations; i++ {
		// filter once
		progress.Update(i)
	}
	progress.Finish()

Errors and Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 3 for descriptors that fail to compile, 1 otherwise.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
